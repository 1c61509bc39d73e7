package main

// ── Steepest descent ────────────────────────────────────────────────

// climber holds a layout together with its inverse so a swap is O(1).
type climber struct {
	model  *CostModel
	layout Layout
	pos    [NumPositions]int
}

func newClimber(start Layout, model *CostModel) *climber {
	c := &climber{model: model, layout: start}
	c.pos = c.layout.Positions()
	return c
}

func (c *climber) swap(i, j int) {
	si, sj := c.layout[i], c.layout[j]
	c.layout[i], c.layout[j] = sj, si
	c.pos[symbolIndex(si)] = j
	c.pos[symbolIndex(sj)] = i
}

func (c *climber) cost() float64 {
	return c.model.costAt(&c.pos)
}

// bestSwap scans every position pair in (i, j) order and returns the first
// swap reaching the lowest cost. ok is false when no swap beats current.
func (c *climber) bestSwap(current float64) (bi, bj int, best float64, ok bool) {
	best = current
	for i := 0; i < NumPositions; i++ {
		for j := i + 1; j < NumPositions; j++ {
			c.swap(i, j)
			if s := c.cost(); s < best {
				bi, bj, best, ok = i, j, s, true
			}
			c.swap(i, j)
		}
	}
	return bi, bj, best, ok
}

// Descend runs steepest descent from start and calls visit, if non-nil, with
// the step number and the cost after each iteration.
func Descend(start Layout, model *CostModel, visit func(step int, cost float64)) OptimizationResult {
	c := newClimber(start, model)
	current := c.cost()
	steps := 0
	for {
		i, j, best, ok := c.bestSwap(current)
		steps++
		if ok {
			c.swap(i, j)
			current = best
		}
		if visit != nil {
			visit(steps, current)
		}
		if !ok {
			return OptimizationResult{Layout: c.layout, Cost: current, Steps: steps}
		}
	}
}

// FindValley drives start to a layout that no single swap improves. start must
// be a permutation of the alphabet; see Layout.Positions.
func FindValley(start Layout, model *CostModel) OptimizationResult {
	return Descend(start, model, nil)
}

// IsValley reports whether no single position swap strictly lowers the cost of l.
func IsValley(l Layout, model *CostModel) bool {
	c := newClimber(l, model)
	_, _, _, ok := c.bestSwap(c.cost())
	return !ok
}
