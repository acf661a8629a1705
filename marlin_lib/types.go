package marlin

import (
	"fmt"

	"github.com/marlinquant/marlin/internal/broadcast"
	"github.com/marlinquant/marlin/internal/pricing"
)

// Model selects the pricing kernel; re-exported so callers never import the
// internal packages.
type Model = pricing.Model

const (
	BlackScholes = pricing.BlackScholes
	Black76      = pricing.Black76
	Merton       = pricing.Merton
	American     = pricing.American
)

// Greeks is the per-element sensitivity set.
type Greeks = pricing.Greeks

// ParseModel maps the wire names used by the HTTP API onto Model values.
func ParseModel(s string) (Model, error) {
	switch s {
	case "black-scholes", "black_scholes", "bs":
		return BlackScholes, nil
	case "black76", "black-76", "b76":
		return Black76, nil
	case "merton":
		return Merton, nil
	case "american":
		return American, nil
	}
	return BlackScholes, fmt.Errorf("unknown model %q", s)
}

// Error types surfaced by the engine. Scalar calls return them directly;
// batch calls surface ShapeMismatchError for the whole call and record
// ValidationError/ConvergenceError elements as NaN plus an index in
// BatchResult.Invalid.
type (
	ShapeMismatchError = broadcast.ShapeMismatchError
	ValidationError    = pricing.ValidationError
	ConvergenceError   = pricing.ConvergenceError
)

// Param is a batch input field: one value broadcast across the batch, or one
// value per element.
type Param struct {
	scalar  float64
	values  []float64
	isSlice bool
}

// Scalar broadcasts a single value across the batch.
func Scalar(v float64) Param { return Param{scalar: v} }

// Values supplies one value per element. The slice is borrowed for the
// duration of the call.
func Values(vs []float64) Param { return Param{values: vs, isSlice: true} }

func (p Param) field(name string) broadcast.Field {
	if p.isSlice {
		return broadcast.Values(name, p.values)
	}
	return broadcast.Scalar(name, p.scalar)
}

// BoolParam is the boolean analogue of Param, used for call/put sides.
type BoolParam struct {
	scalar  bool
	values  []bool
	isSlice bool
}

// Side broadcasts a single call/put flag across the batch.
func Side(isCall bool) BoolParam { return BoolParam{scalar: isCall} }

// Sides supplies one call/put flag per element.
func Sides(isCalls []bool) BoolParam { return BoolParam{values: isCalls, isSlice: true} }

func (p BoolParam) field(name string) broadcast.Field {
	if p.isSlice {
		return broadcast.ValueBools(name, p.values)
	}
	return broadcast.ScalarBool(name, p.scalar)
}

// Inputs carries the broadcastable pricing parameters. Spot holds the
// forward price for Black76. Dividend defaults to a scalar zero. Vol is
// ignored by implied-volatility calls.
type Inputs struct {
	Spot     Param
	Strike   Param
	Time     Param
	Rate     Param
	Dividend Param
	Vol      Param
}

// BatchResult is one output buffer plus the per-element flag side channel.
// Values[i] is NaN exactly when i appears in Invalid. Fallback lists the
// elements priced by the American approximator's dampened-European fallback.
type BatchResult struct {
	Values   []float64
	Invalid  []int
	Fallback []int
	Strategy string
}

// GreeksResult is the struct-of-arrays Greeks output: one contiguous buffer
// per sensitivity, for cache-friendly columnar consumers.
type GreeksResult struct {
	Delta       []float64
	Gamma       []float64
	Vega        []float64
	Theta       []float64
	Rho         []float64
	DividendRho []float64
	Invalid     []int
	Strategy    string
}
