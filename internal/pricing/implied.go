package pricing

import "math"

// Solver constants are fixed rather than per-call parameters so batch
// behavior stays uniform. The Newton budget is generous for the smooth
// European surface; bisection takes over when vega flattens out.
const (
	ivPriceTolerance    = 1e-9
	ivNewtonIterations  = 60
	ivBisectIterations  = 200
	ivMin               = 1e-4
	ivMax               = 10.0
	ivVegaFloor         = 1e-8
	ivAmericanVegaShift = 1e-4
)

// ImpliedVol inverts the model price at observed. Params.Vol is ignored.
// Returns a ValidationError when the observed price sits outside the
// no-arbitrage band, and a ConvergenceError when the iteration budget runs
// out before the price tolerance is met.
func ImpliedVol(m Model, observed float64, p Params) (float64, error) {
	if err := validateCommon(p); err != nil {
		return math.NaN(), err
	}
	if m == American {
		if err := validateAmerican(p); err != nil {
			return math.NaN(), err
		}
	}
	if math.IsNaN(observed) || math.IsInf(observed, 0) || observed <= 0 {
		return math.NaN(), &ValidationError{Field: "price", Value: observed, Reason: "must be positive and finite"}
	}

	s, q := carriers(m, p)
	k, t, r := p.Strike, p.Time, p.Rate

	lower := p
	lower.Vol = minVol
	floor := europeanPrice(m, lower)
	var ceil float64
	if p.IsCall {
		ceil = s * math.Exp(-q*t)
	} else {
		ceil = k * math.Exp(-r*t)
	}
	if m == American && !p.IsCall {
		ceil = k
	}
	if observed < floor-ivPriceTolerance || observed > ceil+ivPriceTolerance {
		return math.NaN(), &ValidationError{Field: "price", Value: observed, Reason: "outside the no-arbitrage band"}
	}

	priceAt := func(vol float64) float64 {
		pp := p
		pp.Vol = vol
		if m == American {
			v, _, _ := americanPrice(pp)
			return v
		}
		return europeanPrice(m, pp)
	}
	vegaAt := func(vol float64) float64 {
		if m == American {
			// Bump-and-reprice; the approximation has no closed-form vega.
			return (priceAt(vol+ivAmericanVegaShift) - priceAt(vol-ivAmericanVegaShift)) / (2 * ivAmericanVegaShift)
		}
		pp := p
		pp.Vol = vol
		return europeanGreeks(m, pp).Vega
	}

	// At-the-money approximation scaled by moneyness for the starting point.
	f := s * math.Exp((r-q)*t)
	guess := math.Sqrt(2*math.Pi/t)*observed/(s*math.Exp(-q*t)) +
		0.25*math.Abs(math.Log(f/k))/math.Sqrt(t)
	vol := clampVol(guess)

	var residual float64
	for i := 0; i < ivNewtonIterations; i++ {
		residual = priceAt(vol) - observed
		if math.Abs(residual) < ivPriceTolerance {
			return vol, nil
		}
		vega := vegaAt(vol)
		if math.Abs(vega) < ivVegaFloor {
			break
		}
		vol = clampVol(vol - residual/vega)
	}

	// Newton stalled: fall back to bisection over the clamped band. The
	// price is monotone in vol, so the bracket is always valid.
	lo, hi := ivMin, ivMax
	for i := 0; i < ivBisectIterations; i++ {
		mid := (lo + hi) / 2
		residual = priceAt(mid) - observed
		if math.Abs(residual) < ivPriceTolerance {
			return mid, nil
		}
		if residual < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.NaN(), &ConvergenceError{
		Op:         "implied-volatility search",
		Iterations: ivNewtonIterations + ivBisectIterations,
		Residual:   math.Abs(residual),
	}
}

func clampVol(v float64) float64 {
	if v < ivMin {
		return ivMin
	}
	if v > ivMax {
		return ivMax
	}
	return v
}
