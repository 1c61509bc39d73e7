package main

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
)

// NaturalLayout returns the alphabet in natural order.
func NaturalLayout() Layout {
	var l Layout
	copy(l[:], Alphabet)
	return l
}

// ParseLayout converts a 26-letter string into a Layout, rejecting anything
// that is not a permutation of the alphabet.
func ParseLayout(s string) (Layout, error) {
	var l Layout
	if len(s) != NumPositions {
		return l, fmt.Errorf("%w: %q has %d symbols, want %d", ErrInvalidLayout, s, len(s), NumPositions)
	}
	var seen [NumPositions]bool
	for i := 0; i < len(s); i++ {
		idx := symbolIndex(s[i])
		if idx < 0 {
			return l, fmt.Errorf("%w: %q has symbol %q outside the alphabet", ErrInvalidLayout, s, s[i])
		}
		if seen[idx] {
			return l, fmt.Errorf("%w: %q repeats symbol %q", ErrInvalidLayout, s, s[i])
		}
		seen[idx] = true
		l[i] = s[i]
	}
	return l, nil
}

// String returns the canonical form used as the store key.
func (l Layout) String() string {
	return string(l[:])
}

// Valid reports whether l is a permutation of the alphabet.
func (l Layout) Valid() bool {
	var seen [NumPositions]bool
	for _, s := range l {
		idx := symbolIndex(s)
		if idx < 0 || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// Positions returns the position of every symbol, indexed by alphabet index.
// It panics if l is not a permutation of the alphabet; check untrusted layouts
// with Valid or build them with ParseLayout.
func (l *Layout) Positions() [NumPositions]int {
	var pos [NumPositions]int
	var seen [NumPositions]bool
	for i, s := range l {
		idx := symbolIndex(s)
		if idx < 0 || seen[idx] {
			panic(fmt.Sprintf("%v: %q", ErrInvalidLayout, l.String()))
		}
		seen[idx] = true
		pos[idx] = i
	}
	return pos
}

func (l *Layout) swap(i, j int) {
	l[i], l[j] = l[j], l[i]
}

// ── Random restarts ─────────────────────────────────────────────────

// LayoutGenerator produces uniformly random layouts. It is not safe for
// concurrent use; every worker owns one.
type LayoutGenerator struct {
	rng *rand.Rand
}

// NewLayoutGenerator seeds a generator from the operating system entropy source.
func NewLayoutGenerator() (*LayoutGenerator, error) {
	seed, err := entropySeed()
	if err != nil {
		return nil, err
	}
	return NewSeededGenerator(seed), nil
}

// NewSeededGenerator returns a generator with a fixed seed. Two generators with
// the same seed produce the same sequence.
func NewSeededGenerator(seed [32]byte) *LayoutGenerator {
	return &LayoutGenerator{rng: rand.New(rand.NewChaCha8(seed))}
}

// Next returns a fresh random permutation of the alphabet.
func (g *LayoutGenerator) Next() Layout {
	l := NaturalLayout()
	g.rng.Shuffle(NumPositions, l.swap)
	return l
}

func entropySeed() ([32]byte, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("%w: %v", ErrNoEntropy, err)
	}
	return seed, nil
}
