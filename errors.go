package main

import "errors"

var (
	// ErrInvalidLayout is returned when a string is not a permutation of the alphabet.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrNoEntropy is returned when a worker cannot seed its random generator.
	ErrNoEntropy = errors.New("no entropy source available")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)
