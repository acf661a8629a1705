package models

import (
	"encoding/json"
	"fmt"
)

// FlexValues accepts either a single JSON number or an array of numbers, so
// clients can write "strike": 100 and "spot": [90, 100, 110] in one request.
type FlexValues struct {
	Scalar float64
	Values []float64
	Many   bool
	Set    bool
}

func (f *FlexValues) UnmarshalJSON(data []byte) error {
	f.Set = true
	if len(data) > 0 && data[0] == '[' {
		f.Many = true
		return json.Unmarshal(data, &f.Values)
	}
	return json.Unmarshal(data, &f.Scalar)
}

func (f FlexValues) MarshalJSON() ([]byte, error) {
	if f.Many {
		return json.Marshal(f.Values)
	}
	return json.Marshal(f.Scalar)
}

// FlexBools is the boolean analogue of FlexValues, used for option sides.
type FlexBools struct {
	Scalar bool
	Values []bool
	Many   bool
	Set    bool
}

func (f *FlexBools) UnmarshalJSON(data []byte) error {
	f.Set = true
	if len(data) > 0 && data[0] == '[' {
		f.Many = true
		return json.Unmarshal(data, &f.Values)
	}
	return json.Unmarshal(data, &f.Scalar)
}

func (f FlexBools) MarshalJSON() ([]byte, error) {
	if f.Many {
		return json.Marshal(f.Values)
	}
	return json.Marshal(f.Scalar)
}

// BatchRequest is the shared input shape for pricing, Greeks, implied-vol and
// exercise-boundary requests. Fields a given endpoint does not use are
// ignored; Price carries observed market prices for implied-vol only.
type BatchRequest struct {
	Model    string     `json:"model"` // black-scholes, black-76, merton, american
	IsCall   FlexBools  `json:"is_call"`
	Spot     FlexValues `json:"spot"` // forward price for black-76
	Strike   FlexValues `json:"strike"`
	Time     FlexValues `json:"time_to_expiry"`
	Expiry   string     `json:"expiry_date"` // YYYY-MM-DD alternative to time_to_expiry
	Rate     FlexValues `json:"rate"`
	Dividend FlexValues `json:"dividend_yield"`
	Vol      FlexValues `json:"volatility"`
	Price    FlexValues `json:"price"`
}

// Validate checks the fields every endpoint needs. Per-element numeric
// validation happens inside the engine; this only rejects structurally
// unusable requests.
func (r *BatchRequest) Validate(needVol, needPrice bool) error {
	if !r.Spot.Set {
		return fmt.Errorf("missing field: spot")
	}
	if !r.Strike.Set {
		return fmt.Errorf("missing field: strike")
	}
	if !r.Time.Set && r.Expiry == "" {
		return fmt.Errorf("missing field: time_to_expiry or expiry_date")
	}
	if !r.Rate.Set {
		return fmt.Errorf("missing field: rate")
	}
	if needVol && !r.Vol.Set {
		return fmt.Errorf("missing field: volatility")
	}
	if needPrice && !r.Price.Set {
		return fmt.Errorf("missing field: price")
	}
	if !r.IsCall.Set {
		return fmt.Errorf("missing field: is_call")
	}
	return nil
}

// ResponseMeta describes how a batch was executed.
type ResponseMeta struct {
	Model         string  `json:"model"`
	Strategy      string  `json:"strategy"`
	Elements      int     `json:"elements"`
	ComputeMillis float64 `json:"compute_ms"`
	RequestID     string  `json:"request_id,omitempty"`
}

// BatchResponse carries one value per input element. Invalid elements are
// returned as nulls with their indices listed; Fallback lists American
// elements priced by the dampened-European fallback.
type BatchResponse struct {
	Values   []*float64   `json:"values"`
	Invalid  []int        `json:"invalid_indices,omitempty"`
	Fallback []int        `json:"fallback_indices,omitempty"`
	Meta     ResponseMeta `json:"meta"`
}

// GreeksResponse carries the sensitivities as parallel arrays.
type GreeksResponse struct {
	Delta       []*float64   `json:"delta"`
	Gamma       []*float64   `json:"gamma"`
	Vega        []*float64   `json:"vega"`
	Theta       []*float64   `json:"theta"`
	Rho         []*float64   `json:"rho"`
	DividendRho []*float64   `json:"dividend_rho"`
	Invalid     []int        `json:"invalid_indices,omitempty"`
	Meta        ResponseMeta `json:"meta"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse reports service liveness and engine configuration.
type HealthResponse struct {
	Status        string `json:"status"`
	ExecutionMode string `json:"execution_mode"`
	Workers       int    `json:"workers"`
}
