package transport

import (
	"encoding/json"
	"testing"
)

func TestAmount_TolerantParsing(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{`{"budget": 2500}`, 2500},
		{`{"budget": "2500"}`, 2500},
		{`{"budget": "2500.50"}`, 2500.50},
		{`{"budget": ""}`, 0},
		{`{"budget": "TBD"}`, 0},
		{`{"budget": null}`, 0},
		{`{}`, 0},
		{`{"budget": -100}`, 0},
	}

	for _, tc := range cases {
		var req struct {
			Budget Amount `json:"budget"`
		}
		if err := json.Unmarshal([]byte(tc.input), &req); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.input, err)
		}
		if req.Budget.Float64() != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.input, tc.want, req.Budget.Float64())
		}
	}
}
