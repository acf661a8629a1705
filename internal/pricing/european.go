package pricing

import "math"

// carriers maps a model onto the generalized Black-Scholes-Merton core: an
// underlying s and a carry yield q. Black76 quotes the forward directly,
// which is the q = r special case of the same formula.
func carriers(m Model, p Params) (s, q float64) {
	switch m {
	case Black76:
		return p.Spot, p.Rate
	case Merton, American:
		return p.Spot, p.Dividend
	default:
		return p.Spot, 0
	}
}

func europeanPrice(m Model, p Params) float64 {
	s, q := carriers(m, p)
	return gbsPrice(s, p.Strike, p.Time, p.Rate, q, p.Vol, p.IsCall, m == Black76)
}

// gbsPrice is the generalized European price. The forward flag marks models
// whose degenerate-expiry intrinsic is discounted (forward-settled payoffs).
func gbsPrice(s, k, t, r, q, vol float64, isCall, forward bool) float64 {
	if t <= minTime {
		intrinsic := intrinsicValue(s, k, isCall)
		if forward {
			return math.Exp(-r*t) * intrinsic
		}
		return intrinsic
	}
	if vol <= minVol {
		f := s * math.Exp((r-q)*t)
		return math.Exp(-r*t) * intrinsicValue(f, k, isCall)
	}

	// Deep in/out of the money: the closed form degenerates to its
	// asymptotic bound before the CDF tails start cancelling.
	if s >= k*deepMoneynessRatio {
		if isCall {
			return positive(s*math.Exp(-q*t) - k*math.Exp(-r*t))
		}
		return 0
	}
	if s <= k/deepMoneynessRatio {
		if isCall {
			return 0
		}
		return positive(k*math.Exp(-r*t) - s*math.Exp(-q*t))
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*vol*vol)*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	var price float64
	if isCall {
		price = s*math.Exp(-q*t)*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	} else {
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*math.Exp(-q*t)*normCDF(-d1)
	}
	return positive(price)
}

func europeanGreeks(m Model, p Params) Greeks {
	s, q := carriers(m, p)
	k, t, r, vol := p.Strike, p.Time, p.Rate, p.Vol

	if t <= minTime || vol <= minVol || s >= k*deepMoneynessRatio || s <= k/deepMoneynessRatio {
		return limitingGreeks(m, s, k, t, r, q, p.IsCall)
	}

	if m == Black76 {
		return black76Greeks(s, k, t, r, vol, p.IsCall)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*vol*vol)*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	dfq := math.Exp(-q * t)
	dfr := math.Exp(-r * t)
	pdf := normPDF(d1)

	var g Greeks
	g.Gamma = dfq * pdf / (s * vol * sqrtT)
	g.Vega = s * dfq * pdf * sqrtT
	if p.IsCall {
		g.Delta = dfq * normCDF(d1)
		g.Theta = -s*dfq*pdf*vol/(2*sqrtT) - r*k*dfr*normCDF(d2) + q*s*dfq*normCDF(d1)
		g.Rho = k * t * dfr * normCDF(d2)
	} else {
		g.Delta = dfq * (normCDF(d1) - 1)
		g.Theta = -s*dfq*pdf*vol/(2*sqrtT) + r*k*dfr*normCDF(-d2) - q*s*dfq*normCDF(-d1)
		g.Rho = -k * t * dfr * normCDF(-d2)
	}
	if m == Merton || m == American {
		if p.IsCall {
			g.DividendRho = -t * s * dfq * normCDF(d1)
		} else {
			g.DividendRho = t * s * dfq * normCDF(-d1)
		}
	}
	return g
}

// black76Greeks differs from the spot-model Greeks in theta and rho: the
// whole forward value is discounted, so rho is -T times the price.
func black76Greeks(f, k, t, r, vol float64, isCall bool) Greeks {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(f/k) + 0.5*vol*vol*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	df := math.Exp(-r * t)
	pdf := normPDF(d1)

	var price float64
	if isCall {
		price = df * (f*normCDF(d1) - k*normCDF(d2))
	} else {
		price = df * (k*normCDF(-d2) - f*normCDF(-d1))
	}

	var g Greeks
	g.Gamma = df * pdf / (f * vol * sqrtT)
	g.Vega = f * df * pdf * sqrtT
	g.Theta = r*price - f*df*pdf*vol/(2*sqrtT)
	g.Rho = -t * price
	if isCall {
		g.Delta = df * normCDF(d1)
	} else {
		g.Delta = df * (normCDF(d1) - 1)
	}
	return g
}

// limitingGreeks returns the sensitivities in the degenerate and deep
// moneyness regimes, where the distribution collapses to an indicator.
func limitingGreeks(m Model, s, k, t, r, q float64, isCall bool) Greeks {
	f := s * math.Exp((r-q)*t)
	dfq := math.Exp(-q * t)
	dfr := math.Exp(-r * t)

	var g Greeks
	itm := false
	if isCall {
		itm = f > k
		if itm {
			g.Delta = dfq
			g.Rho = k * t * dfr
			if m == Merton || m == American {
				g.DividendRho = -t * s * dfq
			}
		}
	} else {
		itm = f < k
		if itm {
			g.Delta = -dfq
			g.Rho = -k * t * dfr
			if m == Merton || m == American {
				g.DividendRho = t * s * dfq
			}
		}
	}
	if m == Black76 {
		// Forward-quoted: delta carries the discount factor, rho is -T*price.
		if itm {
			if isCall {
				g.Delta = dfr
				g.Rho = -t * dfr * (f - k)
			} else {
				g.Delta = -dfr
				g.Rho = -t * dfr * (k - f)
			}
		} else {
			g.Delta = 0
			g.Rho = 0
		}
		g.DividendRho = 0
	}
	return g
}

func intrinsicValue(s, k float64, isCall bool) float64 {
	if isCall {
		return positive(s - k)
	}
	return positive(k - s)
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
