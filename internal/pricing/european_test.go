package pricing

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBlackScholesReferencePrices(t *testing.T) {
	// Canonical values for K=100, T=1, r=0.05, vol=0.20.
	cases := []struct {
		spot float64
		want float64
	}{
		{90, 5.091222},
		{100, 10.450584},
		{110, 17.662954},
	}
	for _, tc := range cases {
		got, err := Price(BlackScholes, Params{
			Spot: tc.spot, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true,
		})
		if err != nil {
			t.Fatalf("Price(spot=%v) returned error: %v", tc.spot, err)
		}
		if !almostEqual(got, tc.want, 1e-5) {
			t.Errorf("call(spot=%v) = %.6f, want %.6f", tc.spot, got, tc.want)
		}
	}

	put, err := Price(BlackScholes, Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2})
	if err != nil {
		t.Fatalf("put price returned error: %v", err)
	}
	if !almostEqual(put, 5.573526, 1e-5) {
		t.Errorf("ATM put = %.6f, want 5.573526", put)
	}
}

func TestBlack76ReferencePrice(t *testing.T) {
	got, err := Price(Black76, Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if !almostEqual(got, 7.577082, 1e-5) {
		t.Errorf("Black76 ATM call = %.6f, want 7.577082", got)
	}
}

func TestMertonReferencePrices(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Dividend: 0.02, Vol: 0.2}

	p.IsCall = true
	call, err := Price(Merton, p)
	if err != nil {
		t.Fatalf("call price returned error: %v", err)
	}
	if !almostEqual(call, 9.227006, 1e-5) {
		t.Errorf("Merton call = %.6f, want 9.227006", call)
	}

	p.IsCall = false
	put, err := Price(Merton, p)
	if err != nil {
		t.Fatalf("put price returned error: %v", err)
	}
	if !almostEqual(put, 6.330081, 1e-5) {
		t.Errorf("Merton put = %.6f, want 6.330081", put)
	}
}

func TestPutCallParity(t *testing.T) {
	for _, tc := range []struct {
		model Model
		p     Params
	}{
		{BlackScholes, Params{Spot: 95, Strike: 100, Time: 0.75, Rate: 0.03, Vol: 0.35}},
		{Merton, Params{Spot: 120, Strike: 100, Time: 2, Rate: 0.05, Dividend: 0.03, Vol: 0.25}},
		{Black76, Params{Spot: 80, Strike: 100, Time: 0.5, Rate: 0.04, Vol: 0.4}},
	} {
		cp := tc.p
		cp.IsCall = true
		call, err := Price(tc.model, cp)
		if err != nil {
			t.Fatalf("%v call: %v", tc.model, err)
		}
		put, err := Price(tc.model, tc.p)
		if err != nil {
			t.Fatalf("%v put: %v", tc.model, err)
		}

		s, q := carriers(tc.model, tc.p)
		want := s*math.Exp(-q*tc.p.Time) - tc.p.Strike*math.Exp(-tc.p.Rate*tc.p.Time)
		if !almostEqual(call-put, want, 1e-10) {
			t.Errorf("%v parity: C-P = %.12f, want %.12f", tc.model, call-put, want)
		}
	}
}

func TestDegenerateTimeReturnsIntrinsic(t *testing.T) {
	call, err := Price(BlackScholes, Params{Spot: 105, Strike: 100, Time: 1e-12, Rate: 0.05, Vol: 0.9, IsCall: true})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if call != 5 {
		t.Errorf("near-expiry call = %v, want exactly 5 (intrinsic)", call)
	}

	put, err := Price(BlackScholes, Params{Spot: 105, Strike: 100, Time: 1e-12, Rate: 0.05, Vol: 0.9})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if put != 0 {
		t.Errorf("near-expiry OTM put = %v, want exactly 0", put)
	}
}

func TestDegenerateVolReturnsDiscountedForwardPayoff(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Vol: 1e-12, IsCall: true}
	got, err := Price(BlackScholes, p)
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	f := 100 * math.Exp(0.05)
	want := math.Exp(-0.05) * (f - 100)
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("zero-vol call = %.12f, want %.12f", got, want)
	}
}

func TestDeepMoneynessShortCircuit(t *testing.T) {
	deepITM, err := Price(BlackScholes, Params{Spot: 50_000, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	want := 50_000 - 100*math.Exp(-0.05)
	if !almostEqual(deepITM, want, 1e-9) {
		t.Errorf("deep ITM call = %v, want %v", deepITM, want)
	}

	deepOTM, err := Price(BlackScholes, Params{Spot: 0.5, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true})
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if deepOTM != 0 {
		t.Errorf("deep OTM call = %v, want exactly 0", deepOTM)
	}
}

func TestValidationErrors(t *testing.T) {
	base := Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true}

	for name, mutate := range map[string]func(*Params){
		"negative spot":   func(p *Params) { p.Spot = -1 },
		"zero strike":     func(p *Params) { p.Strike = 0 },
		"negative time":   func(p *Params) { p.Time = -0.5 },
		"zero vol":        func(p *Params) { p.Vol = 0 },
		"nan spot":        func(p *Params) { p.Spot = math.NaN() },
		"inf vol":         func(p *Params) { p.Vol = math.Inf(1) },
		"nan rate":        func(p *Params) { p.Rate = math.NaN() },
		"negative payout": func(p *Params) { p.Dividend = -0.01 },
	} {
		p := base
		mutate(&p)
		got, err := Price(BlackScholes, p)
		if err == nil {
			t.Errorf("%s: expected error, got price %v", name, got)
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected *ValidationError, got %T", name, err)
		}
		if !math.IsNaN(got) {
			t.Errorf("%s: price = %v, want NaN", name, got)
		}
	}
}

func TestGreeksReferenceValues(t *testing.T) {
	g, err := GreeksFor(BlackScholes, Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Vol: 0.2, IsCall: true})
	if err != nil {
		t.Fatalf("GreeksFor returned error: %v", err)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"delta", g.Delta, 0.636831},
		{"gamma", g.Gamma, 0.018762},
		{"vega", g.Vega, 37.524035},
		{"theta", g.Theta, -6.414028},
		{"rho", g.Rho, 53.232482},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, 1e-5) {
			t.Errorf("%s = %.6f, want %.6f", c.name, c.got, c.want)
		}
	}
	if g.DividendRho != 0 {
		t.Errorf("BlackScholes dividend rho = %v, want 0", g.DividendRho)
	}
}

func TestGreeksAgainstFiniteDifferences(t *testing.T) {
	for _, tc := range []struct {
		model Model
		p     Params
	}{
		{BlackScholes, Params{Spot: 105, Strike: 100, Time: 0.5, Rate: 0.04, Vol: 0.3, IsCall: true}},
		{Merton, Params{Spot: 95, Strike: 100, Time: 1.5, Rate: 0.05, Dividend: 0.02, Vol: 0.25, IsCall: false}},
		{Black76, Params{Spot: 100, Strike: 90, Time: 0.75, Rate: 0.03, Vol: 0.4, IsCall: true}},
	} {
		g, err := GreeksFor(tc.model, tc.p)
		if err != nil {
			t.Fatalf("%v: GreeksFor returned error: %v", tc.model, err)
		}

		price := func(p Params) float64 {
			v, err := Price(tc.model, p)
			if err != nil {
				t.Fatalf("%v: Price returned error: %v", tc.model, err)
			}
			return v
		}

		const h = 1e-5
		up, dn := tc.p, tc.p
		up.Spot *= 1 + h
		dn.Spot *= 1 - h
		fdDelta := (price(up) - price(dn)) / (2 * h * tc.p.Spot)
		if !almostEqual(g.Delta, fdDelta, 1e-4) {
			t.Errorf("%v delta = %v, finite difference %v", tc.model, g.Delta, fdDelta)
		}

		up, dn = tc.p, tc.p
		up.Vol += h
		dn.Vol -= h
		fdVega := (price(up) - price(dn)) / (2 * h)
		if !almostEqual(g.Vega, fdVega, 1e-3) {
			t.Errorf("%v vega = %v, finite difference %v", tc.model, g.Vega, fdVega)
		}

		up, dn = tc.p, tc.p
		up.Rate += h
		dn.Rate -= h
		fdRho := (price(up) - price(dn)) / (2 * h)
		if !almostEqual(g.Rho, fdRho, 1e-3) {
			t.Errorf("%v rho = %v, finite difference %v", tc.model, g.Rho, fdRho)
		}

		up, dn = tc.p, tc.p
		up.Time += h
		dn.Time -= h
		fdTheta := -(price(up) - price(dn)) / (2 * h)
		if !almostEqual(g.Theta, fdTheta, 1e-3) {
			t.Errorf("%v theta = %v, finite difference %v", tc.model, g.Theta, fdTheta)
		}
	}
}

func TestMertonDividendRho(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, Time: 1, Rate: 0.05, Dividend: 0.02, Vol: 0.2, IsCall: true}
	g, err := GreeksFor(Merton, p)
	if err != nil {
		t.Fatalf("GreeksFor returned error: %v", err)
	}

	const h = 1e-5
	up, dn := p, p
	up.Dividend += h
	dn.Dividend -= h
	cu, _ := Price(Merton, up)
	cd, _ := Price(Merton, dn)
	fd := (cu - cd) / (2 * h)
	if !almostEqual(g.DividendRho, fd, 1e-3) {
		t.Errorf("dividend rho = %v, finite difference %v", g.DividendRho, fd)
	}
}
