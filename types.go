package main

// Alphabet is the fixed symbol universe, in natural order.
const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// NumPositions is the number of linear positions in a layout.
const NumPositions = len(Alphabet)

// Symbol is one letter of the alphabet.
type Symbol = byte

// Layout assigns every alphabet symbol to exactly one position.
type Layout [NumPositions]Symbol

// Bigram is an ordered pair of symbols.
type Bigram [2]Symbol

// FrequencyTable maps bigrams to non-negative weights. It is read-only once loaded.
type FrequencyTable map[Bigram]float64

// OptimizationResult is a valley found by FindValley.
type OptimizationResult struct {
	Layout Layout
	Cost   float64
	// Steps counts descent iterations, including the final scan that found no improvement.
	Steps int
}

// StoredValley is a row read back from the result store.
type StoredValley struct {
	Layout string  `json:"layout" yaml:"layout"`
	Cost   float64 `json:"cost" yaml:"cost"`
	Steps  int     `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// symbolIndex returns the alphabet index of s, or -1 if s is not in the alphabet.
func symbolIndex(s Symbol) int {
	if s < 'a' || s > 'z' {
		return -1
	}
	return int(s - 'a')
}
