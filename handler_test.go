package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Search(t *testing.T) {
	body := `{"bigrams": {"qw": 10, "az": 5, "by": 5}, "trials": 20, "workers": 3}`
	resp, err := handler(context.Background(), events.LambdaFunctionURLRequest{Body: body})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var out searchResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, 20, out.Trials)
	assert.Equal(t, 3, out.Workers)
	assert.Equal(t, 3, out.Bigrams)
	require.NotEmpty(t, out.Valleys)
	assert.Equal(t, 20, len(out.Valleys)+out.Duplicates)

	model := NewCostModel(FrequencyTable{{'q', 'w'}: 10, {'a', 'z'}: 5, {'b', 'y'}: 5})
	for i, v := range out.Valleys {
		l := mustLayout(t, v.Layout)
		assert.True(t, IsValley(l, model))
		assert.Equal(t, model.Cost(&l), v.Cost)
		if i > 0 {
			assert.LessOrEqual(t, out.Valleys[i-1].Cost, v.Cost)
		}
	}
}

func TestHandler_Base64AndCaps(t *testing.T) {
	raw := `{"bigrams": {"th": 1}, "trials": 1000000, "workers": 1000}`
	resp, err := handler(context.Background(), events.LambdaFunctionURLRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(raw)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode, resp.Body)

	var out searchResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, maxLambdaTrials, out.Trials)
	assert.Equal(t, maxLambdaWorkers, out.Workers)
}

func TestHandler_BadRequests(t *testing.T) {
	cases := []struct {
		name   string
		req    events.LambdaFunctionURLRequest
		status int
	}{
		{"BadBase64", events.LambdaFunctionURLRequest{Body: "%%%", IsBase64Encoded: true}, 400},
		{"NotJSON", events.LambdaFunctionURLRequest{Body: "{nope"}, 400},
		{"NoBigrams", events.LambdaFunctionURLRequest{Body: `{"trials": 5}`}, 400},
		{"NoTrials", events.LambdaFunctionURLRequest{Body: `{"bigrams": {"th": 1}}`}, 400},
		{"NegativeTrials", events.LambdaFunctionURLRequest{Body: `{"bigrams": {"th": 1}, "trials": -4}`}, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := handler(context.Background(), tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
