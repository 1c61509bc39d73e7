package main

import (
	"github.com/tidwall/gjson"
)

// parseFrequencyJSON accepts three shapes:
//
//	{"th": 1.5, "he": 1.2}
//	{"bigrams": {"th": 1.5}}
//	[{"bigram": "th", "weight": 1.5}]   ("freq" is accepted for "weight")
//
// Entries that do not fit are skipped, like malformed lines in the text format.
func parseFrequencyJSON(raw string) FrequencyTable {
	table := make(FrequencyTable)
	root := gjson.Parse(raw)
	if b := root.Get("bigrams"); b.Exists() {
		root = b
	}
	readFrequencyResult(root, table)
	return table
}

func readFrequencyResult(v gjson.Result, table FrequencyTable) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, e gjson.Result) bool {
			w := e.Get("weight")
			if !w.Exists() {
				w = e.Get("freq")
			}
			addFrequency(table, e.Get("bigram"), w)
			return true
		})
	case v.IsObject():
		v.ForEach(func(k, w gjson.Result) bool {
			addFrequency(table, k, w)
			return true
		})
	}
}

func addFrequency(table FrequencyTable, key, weight gjson.Result) {
	if key.Type != gjson.String || weight.Type != gjson.Number {
		return
	}
	bg, ok := parseBigram(key.String())
	if !ok {
		return
	}
	w := weight.Float()
	if !validWeight(w) {
		return
	}
	table[bg] = w
}
