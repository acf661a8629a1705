package pricing

import "math"

// Early-exercise boundary search budget and the fallback applied when the
// search fails. The scale is calibrated against at-the-money reference
// prices at 0.5-1.5 year maturities; outside that range it is a documented
// approximation, which is why fallback elements are reported to callers.
const (
	boundaryMaxIterations      = 100
	boundaryTolerance          = 1e-8
	earlyExerciseFallbackScale = 1.08
)

// americanPrice approximates the early-exercise price (Barone-Adesi-Whaley):
// the Merton European baseline plus an analytic early-exercise premium
// A*(S/S*)^q anchored at the critical price S*. When the S* search does not
// converge the function falls back to the scaled European baseline and
// reports it, rather than failing the element.
func americanPrice(p Params) (price float64, fallback bool, err error) {
	s, k, t, r, q := p.Spot, p.Strike, p.Time, p.Rate, p.Dividend
	intrinsic := intrinsicValue(s, k, p.IsCall)

	// Exercise is immediate at expiry; with zero volatility the holder takes
	// the better of exercising now or holding the deterministic payoff.
	if t <= minTime {
		return intrinsic, false, nil
	}
	european := europeanPrice(American, p)
	if p.Vol <= minVol {
		return math.Max(intrinsic, european), false, nil
	}

	// Without dividends an American call is never exercised early.
	if p.IsCall && q <= 0 {
		return european, false, nil
	}

	crit, ok := criticalPrice(k, t, r, q, p.Vol, p.IsCall)
	if !ok {
		return math.Max(intrinsic, european*earlyExerciseFallbackScale), true, nil
	}

	b := r - q
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(crit/k) + (b+0.5*p.Vol*p.Vol)*t) / (p.Vol * sqrtT)
	qq := exponentFor(r, b, p.Vol, t, p.IsCall)

	if p.IsCall {
		if s >= crit {
			return s - k, false, nil
		}
		a2 := (crit / qq) * (1 - math.Exp(-q*t)*normCDF(d1))
		price = european + a2*math.Pow(s/crit, qq)
	} else {
		if s <= crit {
			return k - s, false, nil
		}
		a1 := -(crit / qq) * (1 - math.Exp(-q*t)*normCDF(-d1))
		price = european + a1*math.Pow(s/crit, qq)
	}

	// The approximation must never undercut the European baseline or the
	// immediate exercise value.
	return math.Max(math.Max(price, european), intrinsic), false, nil
}

// AmericanPrice exposes the approximation with its fallback flag, so batch
// callers can report which elements used the dampened European baseline.
func AmericanPrice(p Params) (price float64, fallback bool, err error) {
	if err := validate(American, p); err != nil {
		return math.NaN(), false, err
	}
	return americanPrice(p)
}

// ExerciseBoundary returns the critical underlying price at which immediate
// exercise becomes optimal. Calls on a non-dividend-paying spot have no
// finite boundary and return +Inf.
func ExerciseBoundary(p Params) (float64, error) {
	if err := validate(American, p); err != nil {
		return math.NaN(), err
	}
	if p.Time <= minTime || p.Vol <= minVol {
		return p.Strike, nil
	}
	if p.IsCall && p.Dividend <= 0 {
		return math.Inf(1), nil
	}
	crit, ok := criticalPrice(p.Strike, p.Time, p.Rate, p.Dividend, p.Vol, p.IsCall)
	if !ok {
		return math.NaN(), &ConvergenceError{
			Op:         "exercise-boundary search",
			Iterations: boundaryMaxIterations,
			Residual:   boundaryTolerance,
		}
	}
	return crit, nil
}

// exponentFor computes the positive (call) or negative (put) root of the
// quadratic from the early-exercise ODE.
func exponentFor(r, b, vol, t float64, isCall bool) float64 {
	v2 := vol * vol
	m := 2 * r / v2
	n := 2 * b / v2
	kf := 1 - math.Exp(-r*t)
	root := math.Sqrt((n-1)*(n-1) + 4*m/kf)
	if isCall {
		return (-(n - 1) + root) / 2
	}
	return (-(n - 1) - root) / 2
}

// criticalPrice solves for S* by Newton iteration on the value-matching
// condition, seeded from the perpetual-option boundary.
func criticalPrice(k, t, r, q, vol float64, isCall bool) (float64, bool) {
	b := r - q
	v2 := vol * vol
	m := 2 * r / v2
	n := 2 * b / v2
	sqrtT := math.Sqrt(t)
	rootInf := math.Sqrt((n-1)*(n-1) + 4*m)

	si := 0.0
	if isCall {
		q2inf := (-(n - 1) + rootInf) / 2
		sInf := k / (1 - 1/q2inf)
		h2 := -(b*t + 2*vol*sqrtT) * k / (sInf - k)
		si = k + (sInf-k)*(1-math.Exp(h2))
	} else {
		q1inf := (-(n - 1) - rootInf) / 2
		sInf := k / (1 - 1/q1inf)
		h1 := (b*t - 2*vol*sqrtT) * k / (k - sInf)
		si = sInf + (k-sInf)*math.Exp(h1)
	}
	if !(si > 0) || math.IsInf(si, 0) || math.IsNaN(si) {
		return 0, false
	}

	qq := exponentFor(r, b, vol, t, isCall)
	dfq := math.Exp(-q * t)

	for i := 0; i < boundaryMaxIterations; i++ {
		d1 := (math.Log(si/k) + (b+0.5*v2)*t) / (vol * sqrtT)
		pp := Params{Spot: si, Strike: k, Time: t, Rate: r, Dividend: q, Vol: vol, IsCall: isCall}
		euro := europeanPrice(American, pp)

		var lhs, rhs, slope float64
		if isCall {
			lhs = si - k
			rhs = euro + (1-dfq*normCDF(d1))*si/qq
			slope = dfq*normCDF(d1)*(1-1/qq) + (1-dfq*normPDF(d1)/(vol*sqrtT))/qq
		} else {
			lhs = k - si
			rhs = euro - (1-dfq*normCDF(-d1))*si/qq
			slope = -dfq*normCDF(-d1)*(1-1/qq) - (1+dfq*normPDF(-d1)/(vol*sqrtT))/qq
		}

		if math.Abs(lhs-rhs)/k < boundaryTolerance {
			return si, true
		}
		if isCall {
			si = (k + rhs - slope*si) / (1 - slope)
		} else {
			si = (k - rhs + slope*si) / (1 + slope)
		}
		if !(si > 0) || math.IsNaN(si) {
			return 0, false
		}
	}
	return 0, false
}

// americanGreeks uses central bump-and-reprice differences: the BAW price is
// piecewise-analytic and cheap, and bumping keeps every sensitivity
// consistent with the actual kernel output.
func americanGreeks(p Params) Greeks {
	price := func(pp Params) float64 {
		v, _, _ := americanPrice(pp)
		return v
	}

	base := price(p)
	ds := p.Spot * 1e-4
	dv := 1e-4
	dr := 1e-4
	dt := math.Min(1e-4, p.Time/2)

	var g Greeks

	up, dn := p, p
	up.Spot += ds
	dn.Spot -= ds
	pu, pd := price(up), price(dn)
	g.Delta = (pu - pd) / (2 * ds)
	g.Gamma = (pu - 2*base + pd) / (ds * ds)

	up, dn = p, p
	up.Vol += dv
	dn.Vol = math.Max(dn.Vol-dv, minVol*2)
	g.Vega = (price(up) - price(dn)) / (up.Vol - dn.Vol)

	up, dn = p, p
	up.Time += dt
	dn.Time -= dt
	g.Theta = -(price(up) - price(dn)) / (2 * dt)

	// Rate and dividend bumps must preserve dividend <= rate.
	up, dn = p, p
	up.Rate += dr
	if dn.Rate-dr > dn.Dividend {
		dn.Rate -= dr
	}
	g.Rho = (price(up) - price(dn)) / (up.Rate - dn.Rate)

	up, dn = p, p
	if up.Dividend+dr <= up.Rate {
		up.Dividend += dr
	}
	dn.Dividend = math.Max(dn.Dividend-dr, 0)
	if up.Dividend != dn.Dividend {
		g.DividendRho = (price(up) - price(dn)) / (up.Dividend - dn.Dividend)
	}
	return g
}
