package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

// Bounds for one invocation; a Lambda run must finish within its timeout.
const (
	maxLambdaTrials  = 10_000
	maxLambdaWorkers = 16
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type searchResponse struct {
	Trials     int            `json:"trials"`
	Workers    int            `json:"workers"`
	Bigrams    int            `json:"bigrams"`
	Duplicates int            `json:"duplicates"`
	TimeMs     int64          `json:"timeMs"`
	Valleys    []StoredValley `json:"valleys"`
}

// handler runs a bounded search for a request body of the form
//
//	{"bigrams": {"th": 1.5, ...}, "trials": 500, "workers": 4}
//
// against a throwaway in-memory store and returns the valleys it found.
func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}
	if !gjson.Valid(body) {
		return errResp(400, "invalid JSON")
	}

	req := gjson.Parse(body)
	if !req.Get("bigrams").Exists() {
		return errResp(400, "missing bigrams field")
	}
	table := parseFrequencyJSON(body)

	trials := int(req.Get("trials").Int())
	if trials <= 0 {
		return errResp(400, "trials must be positive")
	}
	trials = min(trials, maxLambdaTrials)
	workers := int(req.Get("workers").Int())
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, maxLambdaWorkers)

	store, err := OpenStore(ctx, StoreOptions{Path: MemoryStore, PersistSteps: true})
	if err != nil {
		return errResp(500, err.Error())
	}
	defer store.Close()

	collected := &collectReporter{}
	coord, err := NewCoordinator(NewCostModel(table), store, SearchOptions{
		Trials:    trials,
		Workers:   workers,
		CacheSize: trials,
		Reporter:  collected,
	})
	if err != nil {
		return errResp(400, err.Error())
	}
	st, err := coord.Run(ctx)
	if err != nil {
		return errResp(500, err.Error())
	}

	found := collected.Results()
	valleys := make([]StoredValley, 0, len(found))
	for _, r := range found {
		valleys = append(valleys, StoredValley{Layout: r.Layout.String(), Cost: r.Cost, Steps: r.Steps})
	}
	sort.Slice(valleys, func(i, j int) bool {
		if valleys[i].Cost != valleys[j].Cost {
			return valleys[i].Cost < valleys[j].Cost
		}
		return valleys[i].Layout < valleys[j].Layout
	})

	resp := searchResponse{
		Trials:     st.Trials,
		Workers:    workers,
		Bigrams:    len(table),
		Duplicates: st.Duplicates,
		TimeMs:     st.Elapsed.Round(time.Millisecond).Milliseconds(),
		Valleys:    valleys,
	}
	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
