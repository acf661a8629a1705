// Package marlin is the public face of the batch option-pricing engine. It
// broadcasts scalar-or-slice inputs into a per-element plan, selects an
// execution strategy from the batch size, and drives the pricing kernels
// into pre-sized output buffers.
package marlin

import (
	"math"

	"github.com/marlinquant/marlin/internal/batch"
	"github.com/marlinquant/marlin/internal/broadcast"
	"github.com/marlinquant/marlin/internal/pricing"
	"github.com/marlinquant/marlin/internal/strategy"
)

// ExecutionMode constrains how batches are scheduled.
type ExecutionMode string

const (
	// ExecutionModeAuto picks a strategy from the batch size and cache
	// geometry.
	ExecutionModeAuto ExecutionMode = "auto"
	// ExecutionModeSequential forces single-threaded in-order execution.
	ExecutionModeSequential ExecutionMode = "sequential"
	// ExecutionModeParallel forces chunked multi-goroutine execution.
	ExecutionModeParallel ExecutionMode = "parallel"
)

// Engine evaluates pricing batches. Engines are stateless between calls and
// safe for concurrent use; the only configuration is the scheduling mode and
// the strategy constants.
type Engine struct {
	mode ExecutionMode
	cfg  strategy.Config
}

// NewEngine creates an engine with automatic strategy selection.
func NewEngine() *Engine {
	return &Engine{mode: ExecutionModeAuto, cfg: strategy.DefaultConfig()}
}

// NewEngineForced creates an engine pinned to an execution mode. Unknown
// modes fall back to auto, matching the config file's free-form field.
func NewEngineForced(mode string) *Engine {
	e := NewEngine()
	switch ExecutionMode(mode) {
	case ExecutionModeSequential:
		e.mode = ExecutionModeSequential
	case ExecutionModeParallel:
		e.mode = ExecutionModeParallel
	default:
		e.mode = ExecutionModeAuto
	}
	return e
}

// SetStrategyConfig overrides the cache geometry and worker count used for
// strategy selection. Intended for tests and benchmarks.
func (e *Engine) SetStrategyConfig(cfg strategy.Config) { e.cfg = cfg }

// Mode returns the engine's scheduling mode.
func (e *Engine) Mode() ExecutionMode { return e.mode }

func (e *Engine) strategyFor(n int) strategy.Strategy {
	switch e.mode {
	case ExecutionModeSequential:
		return strategy.Strategy{Kind: strategy.Sequential}
	case ExecutionModeParallel:
		workers := e.cfg.Workers
		if workers < 2 {
			workers = 2
		}
		chunk := (n + workers - 1) / workers
		if chunk < 1 {
			chunk = 1
		}
		return strategy.Strategy{Kind: strategy.FullParallel, Workers: workers, ChunkSize: chunk}
	default:
		return strategy.Select(n, e.cfg)
	}
}

// Field order inside broadcast plans built from Inputs.
const (
	fSpot = iota
	fStrike
	fTime
	fRate
	fDividend
	fVol
	fExtra // observed price or call/put side, depending on the call
)

func (in Inputs) fields() []broadcast.Field {
	return []broadcast.Field{
		in.Spot.field("spot"),
		in.Strike.field("strike"),
		in.Time.field("time"),
		in.Rate.field("rate"),
		in.Dividend.field("dividend"),
		in.Vol.field("volatility"),
	}
}

func paramsAt(plan *broadcast.Plan, i int) pricing.Params {
	return pricing.Params{
		Spot:     plan.Get(fSpot, i),
		Strike:   plan.Get(fStrike, i),
		Time:     plan.Get(fTime, i),
		Rate:     plan.Get(fRate, i),
		Dividend: plan.Get(fDividend, i),
		Vol:      plan.Get(fVol, i),
	}
}

// PriceBatch prices every element for one option side. Elements that fail
// validation come back as NaN plus an entry in BatchResult.Invalid; the call
// itself only fails on broadcast-incompatible shapes.
func (e *Engine) PriceBatch(m Model, isCall bool, in Inputs) (*BatchResult, error) {
	plan, err := broadcast.NewPlan(in.fields()...)
	if err != nil {
		return nil, err
	}
	n := plan.Len()
	out := make([]float64, n)
	strat := e.strategyFor(n)

	var kernel batch.Kernel
	if m == American {
		kernel = func(i int) batch.Flag {
			p := paramsAt(plan, i)
			p.IsCall = isCall
			v, fellBack, err := pricing.AmericanPrice(p)
			if err != nil {
				out[i] = math.NaN()
				return batch.Invalid
			}
			out[i] = v
			if fellBack {
				return batch.Fallback
			}
			return batch.OK
		}
	} else {
		kernel = func(i int) batch.Flag {
			p := paramsAt(plan, i)
			p.IsCall = isCall
			v, err := pricing.Price(m, p)
			if err != nil {
				out[i] = math.NaN()
				return batch.Invalid
			}
			out[i] = v
			return batch.OK
		}
	}

	rep := batch.Run(n, strat, kernel)
	return &BatchResult{
		Values:   out,
		Invalid:  rep.Invalid,
		Fallback: rep.Fallback,
		Strategy: strat.Kind.String(),
	}, nil
}

// PriceBatchSides is PriceBatch with the call/put side broadcasting like any
// other field, for callers mixing calls and puts in one batch.
func (e *Engine) PriceBatchSides(m Model, isCalls BoolParam, in Inputs) (*BatchResult, error) {
	fields := append(in.fields(), isCalls.field("is_call"))
	plan, err := broadcast.NewPlan(fields...)
	if err != nil {
		return nil, err
	}
	n := plan.Len()
	out := make([]float64, n)
	strat := e.strategyFor(n)

	rep := batch.Run(n, strat, func(i int) batch.Flag {
		p := paramsAt(plan, i)
		p.IsCall = plan.GetBool(fExtra, i)
		if m == American {
			v, fellBack, err := pricing.AmericanPrice(p)
			if err != nil {
				out[i] = math.NaN()
				return batch.Invalid
			}
			out[i] = v
			if fellBack {
				return batch.Fallback
			}
			return batch.OK
		}
		v, err := pricing.Price(m, p)
		if err != nil {
			out[i] = math.NaN()
			return batch.Invalid
		}
		out[i] = v
		return batch.OK
	})
	return &BatchResult{
		Values:   out,
		Invalid:  rep.Invalid,
		Fallback: rep.Fallback,
		Strategy: strat.Kind.String(),
	}, nil
}

// GreeksBatch computes the full sensitivity set as struct-of-arrays output.
// The call/put side broadcasts like any other field.
func (e *Engine) GreeksBatch(m Model, isCalls BoolParam, in Inputs) (*GreeksResult, error) {
	fields := append(in.fields(), isCalls.field("is_call"))
	plan, err := broadcast.NewPlan(fields...)
	if err != nil {
		return nil, err
	}
	n := plan.Len()
	strat := e.strategyFor(n)

	res := &GreeksResult{
		Delta:       make([]float64, n),
		Gamma:       make([]float64, n),
		Vega:        make([]float64, n),
		Theta:       make([]float64, n),
		Rho:         make([]float64, n),
		DividendRho: make([]float64, n),
		Strategy:    strat.Kind.String(),
	}

	rep := batch.Run(n, strat, func(i int) batch.Flag {
		p := paramsAt(plan, i)
		p.IsCall = plan.GetBool(fExtra, i)
		g, err := pricing.GreeksFor(m, p)
		if err != nil {
			nan := math.NaN()
			res.Delta[i], res.Gamma[i], res.Vega[i] = nan, nan, nan
			res.Theta[i], res.Rho[i], res.DividendRho[i] = nan, nan, nan
			return batch.Invalid
		}
		res.Delta[i] = g.Delta
		res.Gamma[i] = g.Gamma
		res.Vega[i] = g.Vega
		res.Theta[i] = g.Theta
		res.Rho[i] = g.Rho
		res.DividendRho[i] = g.DividendRho
		return batch.OK
	})
	res.Invalid = rep.Invalid
	return res, nil
}

// ImpliedVolBatch inverts observed prices element by element. Inputs.Vol is
// ignored. Non-convergent elements come back as NaN in Invalid, never as a
// whole-batch failure.
func (e *Engine) ImpliedVolBatch(m Model, observed Param, isCalls BoolParam, in Inputs) (*BatchResult, error) {
	fields := []broadcast.Field{
		in.Spot.field("spot"),
		in.Strike.field("strike"),
		in.Time.field("time"),
		in.Rate.field("rate"),
		in.Dividend.field("dividend"),
		observed.field("price"),
		isCalls.field("is_call"),
	}
	plan, err := broadcast.NewPlan(fields...)
	if err != nil {
		return nil, err
	}
	n := plan.Len()
	out := make([]float64, n)
	strat := e.strategyFor(n)

	rep := batch.Run(n, strat, func(i int) batch.Flag {
		p := pricing.Params{
			Spot:     plan.Get(fSpot, i),
			Strike:   plan.Get(fStrike, i),
			Time:     plan.Get(fTime, i),
			Rate:     plan.Get(fRate, i),
			Dividend: plan.Get(fDividend, i),
			IsCall:   plan.GetBool(fExtra, i),
		}
		// The observed price occupies the volatility slot in this plan.
		iv, err := pricing.ImpliedVol(m, plan.Get(fVol, i), p)
		if err != nil {
			out[i] = math.NaN()
			return batch.Invalid
		}
		out[i] = iv
		return batch.OK
	})
	return &BatchResult{Values: out, Invalid: rep.Invalid, Strategy: strat.Kind.String()}, nil
}

// ExerciseBoundaryBatch computes the American early-exercise boundary per
// element. Calls without dividends have no finite boundary and yield +Inf.
func (e *Engine) ExerciseBoundaryBatch(isCalls BoolParam, in Inputs) (*BatchResult, error) {
	fields := append(in.fields(), isCalls.field("is_call"))
	plan, err := broadcast.NewPlan(fields...)
	if err != nil {
		return nil, err
	}
	n := plan.Len()
	out := make([]float64, n)
	strat := e.strategyFor(n)

	rep := batch.Run(n, strat, func(i int) batch.Flag {
		p := paramsAt(plan, i)
		p.IsCall = plan.GetBool(fExtra, i)
		b, err := pricing.ExerciseBoundary(p)
		if err != nil {
			out[i] = math.NaN()
			return batch.Invalid
		}
		out[i] = b
		return batch.OK
	})
	return &BatchResult{Values: out, Invalid: rep.Invalid, Strategy: strat.Kind.String()}, nil
}

// Price is the single-element counterpart of PriceBatch.
func (e *Engine) Price(m Model, isCall bool, spot, strike, tm, rate, dividend, vol float64) (float64, error) {
	return pricing.Price(m, pricing.Params{
		Spot: spot, Strike: strike, Time: tm, Rate: rate, Dividend: dividend, Vol: vol, IsCall: isCall,
	})
}

// Greeks is the single-element counterpart of GreeksBatch.
func (e *Engine) Greeks(m Model, isCall bool, spot, strike, tm, rate, dividend, vol float64) (Greeks, error) {
	return pricing.GreeksFor(m, pricing.Params{
		Spot: spot, Strike: strike, Time: tm, Rate: rate, Dividend: dividend, Vol: vol, IsCall: isCall,
	})
}

// ImpliedVol is the single-element counterpart of ImpliedVolBatch.
func (e *Engine) ImpliedVol(m Model, observed float64, isCall bool, spot, strike, tm, rate, dividend float64) (float64, error) {
	return pricing.ImpliedVol(m, observed, pricing.Params{
		Spot: spot, Strike: strike, Time: tm, Rate: rate, Dividend: dividend, IsCall: isCall,
	})
}

// ExerciseBoundary is the single-element counterpart of ExerciseBoundaryBatch.
func (e *Engine) ExerciseBoundary(isCall bool, spot, strike, tm, rate, dividend, vol float64) (float64, error) {
	return pricing.ExerciseBoundary(pricing.Params{
		Spot: spot, Strike: strike, Time: tm, Rate: rate, Dividend: dividend, Vol: vol, IsCall: isCall,
	})
}
