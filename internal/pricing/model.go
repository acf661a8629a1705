// Package pricing holds the per-element option pricing kernels: closed-form
// European models, an early-exercise approximation for American options, and
// the implied volatility root-finder. Every function here is pure and
// allocation-free per call, so the batch layer can hammer them across
// goroutines without coordination.
package pricing

import (
	"fmt"
	"math"
)

// Model selects a pricing kernel. The set is closed: each variant carries its
// own parameter conventions and the dispatch is a plain switch.
type Model int

const (
	// BlackScholes prices on a non-dividend-paying spot.
	BlackScholes Model = iota
	// Black76 prices on a forward; Params.Spot carries the forward price.
	Black76
	// Merton prices on a spot with a continuous dividend yield.
	Merton
	// American prices early-exercise options on a dividend-paying spot via
	// an analytic approximation.
	American
)

func (m Model) String() string {
	switch m {
	case BlackScholes:
		return "black-scholes"
	case Black76:
		return "black76"
	case Merton:
		return "merton"
	case American:
		return "american"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// Params is the full input set for one element. Spot carries the forward
// price for Black76; Dividend is the continuous yield and is ignored by
// BlackScholes and Black76.
type Params struct {
	Spot     float64
	Strike   float64
	Time     float64
	Rate     float64
	Dividend float64
	Vol      float64
	IsCall   bool
}

// Greeks holds the standard sensitivities. DividendRho is populated only by
// the dividend-bearing models (Merton, American).
type Greeks struct {
	Delta       float64
	Gamma       float64
	Vega        float64
	Theta       float64
	Rho         float64
	DividendRho float64
}

// Degenerate-input cutoffs. Below minTime the vol*sqrt(t) denominator is
// meaningless and the kernel returns intrinsic value; below minVol the payoff
// is deterministic. Beyond deepMoneynessRatio the normal CDF tails cancel
// catastrophically, so prices short-circuit to their asymptotic bounds.
const (
	minTime            = 1e-10
	minVol             = 1e-10
	deepMoneynessRatio = 100.0
)

func validateCommon(p Params) error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"time", p.Time},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return &ValidationError{Field: c.name, Value: c.v, Reason: "must be finite"}
		}
		if c.v <= 0 {
			return &ValidationError{Field: c.name, Value: c.v, Reason: "must be positive"}
		}
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return &ValidationError{Field: "rate", Value: p.Rate, Reason: "must be finite"}
	}
	if math.IsNaN(p.Dividend) || math.IsInf(p.Dividend, 0) {
		return &ValidationError{Field: "dividend", Value: p.Dividend, Reason: "must be finite"}
	}
	if p.Dividend < 0 {
		return &ValidationError{Field: "dividend", Value: p.Dividend, Reason: "must not be negative"}
	}
	return nil
}

func validateVol(vol float64) error {
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return &ValidationError{Field: "volatility", Value: vol, Reason: "must be finite"}
	}
	if vol <= 0 {
		return &ValidationError{Field: "volatility", Value: vol, Reason: "must be positive"}
	}
	return nil
}

// validateAmerican adds the early-exercise preconditions: a positive rate
// (the boundary equations divide by 1-exp(-rT)) and no dividend arbitrage.
func validateAmerican(p Params) error {
	if p.Rate <= 0 {
		return &ValidationError{Field: "rate", Value: p.Rate, Reason: "must be positive for early-exercise pricing"}
	}
	if p.Dividend > p.Rate {
		return &ValidationError{Field: "dividend", Value: p.Dividend, Reason: "must not exceed the risk-free rate"}
	}
	return nil
}

func validate(m Model, p Params) error {
	if err := validateCommon(p); err != nil {
		return err
	}
	if err := validateVol(p.Vol); err != nil {
		return err
	}
	if m == American {
		return validateAmerican(p)
	}
	return nil
}

// Price computes the model price for one element.
func Price(m Model, p Params) (float64, error) {
	if err := validate(m, p); err != nil {
		return math.NaN(), err
	}
	if m == American {
		price, _, err := americanPrice(p)
		return price, err
	}
	return europeanPrice(m, p), nil
}

// GreeksFor computes price sensitivities for one element.
func GreeksFor(m Model, p Params) (Greeks, error) {
	if err := validate(m, p); err != nil {
		return Greeks{}, err
	}
	if m == American {
		return americanGreeks(p), nil
	}
	return europeanGreeks(m, p), nil
}
