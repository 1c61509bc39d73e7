package main

import (
	"cmp"
	"slices"
)

type costTerm struct {
	a, b   int // alphabet indices
	weight float64
}

// CostModel is a FrequencyTable compiled for repeated evaluation. It is
// immutable and safe to share between goroutines.
type CostModel struct {
	terms []costTerm
}

// NewCostModel compiles table. Bigrams naming a symbol outside the alphabet
// can never be placed and contribute nothing. Terms are kept in bigram order so
// that every evaluation sums in the same order.
func NewCostModel(table FrequencyTable) *CostModel {
	keys := make([]Bigram, 0, len(table))
	for bg := range table {
		if symbolIndex(bg[0]) < 0 || symbolIndex(bg[1]) < 0 {
			continue
		}
		keys = append(keys, bg)
	}
	slices.SortFunc(keys, func(x, y Bigram) int {
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return cmp.Compare(x[1], y[1])
	})

	m := &CostModel{terms: make([]costTerm, 0, len(keys))}
	for _, bg := range keys {
		m.terms = append(m.terms, costTerm{
			a:      symbolIndex(bg[0]),
			b:      symbolIndex(bg[1]),
			weight: table[bg],
		})
	}
	return m
}

// Len returns the number of bigrams that take part in the cost.
func (m *CostModel) Len() int {
	return len(m.terms)
}

// Cost returns the sum of weight * |pos(a) - pos(b)| over all bigrams. It
// panics if l is not a valid layout.
func (m *CostModel) Cost(l *Layout) float64 {
	pos := l.Positions()
	return m.costAt(&pos)
}

func (m *CostModel) costAt(pos *[NumPositions]int) float64 {
	total := 0.0
	for _, t := range m.terms {
		d := pos[t.a] - pos[t.b]
		if d < 0 {
			d = -d
		}
		total += t.weight * float64(d)
	}
	return total
}

// ComputeCost evaluates layout against table without keeping the compiled model.
func ComputeCost(layout Layout, table FrequencyTable) float64 {
	return NewCostModel(table).Cost(&layout)
}
