package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// printTable writes valleys as an aligned table, best first as given.
func printTable(w io.Writer, valleys []StoredValley) {
	fmt.Fprintf(w, "%-4s %-26s %14s %6s\n", "#", "Layout", "Cost", "Steps")
	fmt.Fprintf(w, "%-4s %-26s %14s %6s\n", "----", strings.Repeat("-", NumPositions), "--------------", "------")
	for i, v := range valleys {
		steps := "-"
		if v.Steps > 0 {
			steps = fmt.Sprint(v.Steps)
		}
		fmt.Fprintf(w, "%-4d %-26s %14.4f %6s\n", i+1, v.Layout, v.Cost, steps)
	}
	fmt.Fprintf(w, "%-4s %-26s %14s %6s\n", "----", strings.Repeat("-", NumPositions), "--------------", "------")
	fmt.Fprintf(w, "%d valleys\n", len(valleys))
}

// costBreakdown lists the bigrams that contribute most to the cost of l.
func costBreakdown(w io.Writer, l Layout, table FrequencyTable, top int) {
	type contrib struct {
		bg   Bigram
		dist int
		cost float64
	}
	pos := l.Positions()
	var cs []contrib
	for bg, wt := range table {
		a, b := symbolIndex(bg[0]), symbolIndex(bg[1])
		if a < 0 || b < 0 {
			continue
		}
		d := pos[a] - pos[b]
		if d < 0 {
			d = -d
		}
		cs = append(cs, contrib{bg, d, wt * float64(d)})
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].cost != cs[j].cost {
			return cs[i].cost > cs[j].cost
		}
		return string(cs[i].bg[:]) < string(cs[j].bg[:])
	})
	if top > 0 && len(cs) > top {
		cs = cs[:top]
	}
	for _, c := range cs {
		fmt.Fprintf(w, "  %c%c  dist=%2d  cost=%.4f\n", c.bg[0], c.bg[1], c.dist, c.cost)
	}
}
