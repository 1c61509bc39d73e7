package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadFrequencies reads a frequency table from path. Files ending in .json are
// parsed as JSON, everything else as the line format "<bigram> <weight>".
// Malformed entries are skipped; only failing to read the file is an error.
func LoadFrequencies(path string) (FrequencyTable, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return parseFrequencyJSON(string(raw)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ParseFrequencies(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return table, nil
}

// ParseFrequencies reads "<bigram><whitespace><weight>" lines. Lines with the
// wrong number of fields, a bigram that is not two bytes long, or a weight that
// is not a finite non-negative number are ignored. A bigram seen twice keeps
// its last weight.
func ParseFrequencies(r io.Reader) (FrequencyTable, error) {
	table := make(FrequencyTable)
	br := bufio.NewReader(r)
	for {
		// ReadString has no line length limit; an overlong line is just malformed
		line, err := br.ReadString('\n')
		if bg, w, ok := parseFrequencyLine(line); ok {
			table[bg] = w
		}
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func parseFrequencyLine(line string) (Bigram, float64, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Bigram{}, 0, false
	}
	bg, ok := parseBigram(fields[0])
	if !ok {
		return Bigram{}, 0, false
	}
	w, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || !validWeight(w) {
		return Bigram{}, 0, false
	}
	return bg, w, true
}

func parseBigram(s string) (Bigram, bool) {
	if len(s) != 2 {
		return Bigram{}, false
	}
	return Bigram{s[0], s[1]}, true
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 1) // NaN fails the comparison
}
