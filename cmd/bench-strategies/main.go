package main

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/marlinquant/marlin/internal/strategy"
	marlin "github.com/marlinquant/marlin/marlin_lib"
)

// Time the execution strategies against each other across batch sizes so the
// selection thresholds can be sanity-checked on real hardware.
func main() {
	fmt.Println("⚡ Strategy Benchmark - Black-Scholes batch pricing")
	fmt.Printf("   CPUs: %d\n", runtime.NumCPU())
	fmt.Println("==================================================")

	sizes := []int{100, 1_000, 10_000, 100_000, 1_000_000}
	modes := []string{"sequential", "parallel", "auto"}

	for _, n := range sizes {
		spots := make([]float64, n)
		vols := make([]float64, n)
		for i := range spots {
			spots[i] = 50 + float64(i%200)
			vols[i] = 0.1 + float64(i%37)*0.01
		}
		in := marlin.Inputs{
			Spot:   marlin.Values(spots),
			Strike: marlin.Scalar(100),
			Time:   marlin.Scalar(0.75),
			Rate:   marlin.Scalar(0.03),
			Vol:    marlin.Values(vols),
		}

		auto := strategy.Select(n, strategy.DefaultConfig())
		fmt.Printf("\n📊 n=%d (auto picks %s)\n", n, auto.Kind)

		var baseline []float64
		for _, mode := range modes {
			engine := marlin.NewEngineForced(mode)

			// Warm once, then time the best of three runs.
			if _, err := engine.PriceBatch(marlin.BlackScholes, true, in); err != nil {
				log.Fatalf("❌ %s n=%d: %v", mode, n, err)
			}
			best := time.Duration(1<<63 - 1)
			var strat string
			var values []float64
			for run := 0; run < 3; run++ {
				start := time.Now()
				res, err := engine.PriceBatch(marlin.BlackScholes, true, in)
				if err != nil {
					log.Fatalf("❌ %s n=%d: %v", mode, n, err)
				}
				if d := time.Since(start); d < best {
					best = d
				}
				strat = res.Strategy
				values = res.Values
			}

			// Every strategy must produce bit-identical results.
			if baseline == nil {
				baseline = values
			} else {
				for i := range baseline {
					if values[i] != baseline[i] {
						log.Fatalf("❌ %s diverges from sequential at index %d: %v vs %v",
							mode, i, values[i], baseline[i])
					}
				}
			}

			perElem := float64(best.Nanoseconds()) / float64(n)
			fmt.Printf("   %-10s %-14s %10s  (%.1f ns/elem)\n", mode, strat, best, perElem)
		}
	}
	fmt.Println("\n✅ Benchmark complete")
}
