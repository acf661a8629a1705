package main

import (
	"fmt"
	"log"
	"math"
	"os"

	marlin "github.com/marlinquant/marlin/marlin_lib"
)

type check struct {
	name string
	got  float64
	want float64
	tol  float64
}

// Verify the pricing kernels against published reference values.
func main() {
	fmt.Println("🎯 Verifying Pricing Kernels Against Reference Values")
	fmt.Println("====================================================")

	engine := marlin.NewEngine()
	var checks []check

	// European reference set: K=100, T=1, r=5%, vol=20%
	for _, c := range []struct {
		spot float64
		want float64
	}{
		{90, 5.091222},
		{100, 10.450584},
		{110, 17.662954},
	} {
		got, err := engine.Price(marlin.BlackScholes, true, c.spot, 100, 1, 0.05, 0, 0.2)
		if err != nil {
			log.Fatalf("❌ Black-Scholes call S=%.0f: %v", c.spot, err)
		}
		checks = append(checks, check{fmt.Sprintf("BS call S=%.0f", c.spot), got, c.want, 1e-5})
	}

	put, err := engine.Price(marlin.BlackScholes, false, 100, 100, 1, 0.05, 0, 0.2)
	if err != nil {
		log.Fatalf("❌ Black-Scholes put: %v", err)
	}
	checks = append(checks, check{"BS ATM put", put, 5.573526, 1e-5})

	// Put-call parity: C - P = S - K*e^(-rT)
	call := checks[1].got
	checks = append(checks, check{"put-call parity C-P", call - put, 100 - 100*math.Exp(-0.05), 1e-9})

	b76, err := engine.Price(marlin.Black76, true, 100, 100, 1, 0.05, 0, 0.2)
	if err != nil {
		log.Fatalf("❌ Black76: %v", err)
	}
	checks = append(checks, check{"Black76 ATM call F=100", b76, 7.577082, 1e-5})

	mertonCall, err := engine.Price(marlin.Merton, true, 100, 100, 1, 0.05, 0.02, 0.2)
	if err != nil {
		log.Fatalf("❌ Merton: %v", err)
	}
	checks = append(checks, check{"Merton call q=2%", mertonCall, 9.227006, 1e-5})

	greeks, err := engine.Greeks(marlin.BlackScholes, true, 100, 100, 1, 0.05, 0, 0.2)
	if err != nil {
		log.Fatalf("❌ Greeks: %v", err)
	}
	checks = append(checks,
		check{"delta", greeks.Delta, 0.636831, 1e-5},
		check{"gamma", greeks.Gamma, 0.018762, 1e-5},
		check{"vega", greeks.Vega, 37.524035, 1e-5},
		check{"theta", greeks.Theta, -6.414028, 1e-5},
		check{"rho", greeks.Rho, 53.232482, 1e-5},
	)

	amPut, err := engine.Price(marlin.American, false, 100, 100, 1, 0.05, 0, 0.2)
	if err != nil {
		log.Fatalf("❌ American put: %v", err)
	}
	checks = append(checks, check{"American ATM put", amPut, 6.097615, 1e-3})

	boundary, err := engine.ExerciseBoundary(false, 100, 100, 1, 0.05, 0, 0.2)
	if err != nil {
		log.Fatalf("❌ exercise boundary: %v", err)
	}
	checks = append(checks, check{"American put boundary", boundary, 81.6954, 1e-2})

	iv, err := engine.ImpliedVol(marlin.BlackScholes, 10.450584, true, 100, 100, 1, 0.05, 0)
	if err != nil {
		log.Fatalf("❌ implied vol: %v", err)
	}
	checks = append(checks, check{"implied vol roundtrip", iv, 0.2, 1e-6})

	fmt.Println()
	failures := 0
	for _, c := range checks {
		diff := math.Abs(c.got - c.want)
		if diff <= c.tol {
			fmt.Printf("✅ %-26s %.6f (expected %.6f)\n", c.name, c.got, c.want)
		} else {
			fmt.Printf("❌ %-26s %.6f (expected %.6f, off by %.2e)\n", c.name, c.got, c.want, diff)
			failures++
		}
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("❌ %d of %d checks FAILED\n", failures, len(checks))
		os.Exit(1)
	}
	fmt.Printf("✅ All %d checks passed\n", len(checks))
}
