package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/config"
	"github.com/marlinquant/marlin/internal/logger"
	"github.com/marlinquant/marlin/internal/metrics"
	"github.com/marlinquant/marlin/internal/models"
	"github.com/marlinquant/marlin/internal/utils"
	marlin "github.com/marlinquant/marlin/marlin_lib"
)

// PricingHandler handles batch pricing requests - DUMB HTTP layer only.
// All numeric work happens in the engine; handlers decode, dispatch, round,
// and encode.
type PricingHandler struct {
	engine    *marlin.Engine
	config    *config.Config
	collector *metrics.ComputeCollector
}

// NewPricingHandler creates a new pricing handler - just HTTP routing.
func NewPricingHandler(engine *marlin.Engine, cfg *config.Config, collector *metrics.ComputeCollector) *PricingHandler {
	return &PricingHandler{
		engine:    engine,
		config:    cfg,
		collector: collector,
	}
}

// round trims a value to the configured precision for the wire. NaN and the
// infinities have no decimal representation and come back as nil (JSON null).
func (h *PricingHandler) round(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r, _ := decimal.NewFromFloat(v).Round(h.config.API.PricePrecision).Float64()
	return &r
}

func (h *PricingHandler) roundAll(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = h.round(v)
	}
	return out
}

func (h *PricingHandler) decode(w http.ResponseWriter, r *http.Request, needVol, needPrice bool) (*models.BatchRequest, marlin.Model, bool) {
	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return nil, 0, false
	}
	if err := req.Validate(needVol, needPrice); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	if req.Model == "" {
		req.Model = "black-scholes"
	}
	model, err := marlin.ParseModel(req.Model)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	if !req.Time.Set && req.Expiry != "" {
		t, err := utils.YearsUntil(req.Expiry)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return nil, 0, false
		}
		req.Time = models.FlexValues{Scalar: t, Set: true}
	}
	return &req, model, true
}

func param(f models.FlexValues) marlin.Param {
	if f.Many {
		return marlin.Values(f.Values)
	}
	return marlin.Scalar(f.Scalar)
}

func boolParam(f models.FlexBools) marlin.BoolParam {
	if f.Many {
		return marlin.Sides(f.Values)
	}
	return marlin.Side(f.Scalar)
}

func inputs(req *models.BatchRequest) marlin.Inputs {
	return marlin.Inputs{
		Spot:     param(req.Spot),
		Strike:   param(req.Strike),
		Time:     param(req.Time),
		Rate:     param(req.Rate),
		Dividend: param(req.Dividend),
		Vol:      param(req.Vol),
	}
}

// HandlePrice prices a batch for one model. The call/put side broadcasts
// like any numeric field, so mixed calls and puts work in one request.
func (h *PricingHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	req, model, ok := h.decode(w, r, true, false)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.engine.PriceBatchSides(model, boolParam(req.IsCall), inputs(req))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	elapsed := time.Since(start)

	h.observe(model, res.Strategy, len(res.Values), len(res.Invalid), elapsed)
	h.writeJSON(w, http.StatusOK, models.BatchResponse{
		Values:   h.roundAll(res.Values),
		Invalid:  res.Invalid,
		Fallback: res.Fallback,
		Meta:     h.meta(r, model, res.Strategy, len(res.Values), elapsed),
	})
}

// HandleGreeks computes the full sensitivity set for a batch.
func (h *PricingHandler) HandleGreeks(w http.ResponseWriter, r *http.Request) {
	req, model, ok := h.decode(w, r, true, false)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.engine.GreeksBatch(model, boolParam(req.IsCall), inputs(req))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	elapsed := time.Since(start)

	h.observe(model, res.Strategy, len(res.Delta), len(res.Invalid), elapsed)
	h.writeJSON(w, http.StatusOK, models.GreeksResponse{
		Delta:       h.roundAll(res.Delta),
		Gamma:       h.roundAll(res.Gamma),
		Vega:        h.roundAll(res.Vega),
		Theta:       h.roundAll(res.Theta),
		Rho:         h.roundAll(res.Rho),
		DividendRho: h.roundAll(res.DividendRho),
		Invalid:     res.Invalid,
		Meta:        h.meta(r, model, res.Strategy, len(res.Delta), elapsed),
	})
}

// HandleImpliedVol inverts observed prices to volatilities.
func (h *PricingHandler) HandleImpliedVol(w http.ResponseWriter, r *http.Request) {
	req, model, ok := h.decode(w, r, false, true)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.engine.ImpliedVolBatch(model, param(req.Price), boolParam(req.IsCall), inputs(req))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	elapsed := time.Since(start)

	h.observe(model, res.Strategy, len(res.Values), len(res.Invalid), elapsed)
	h.writeJSON(w, http.StatusOK, models.BatchResponse{
		Values:  h.roundAll(res.Values),
		Invalid: res.Invalid,
		Meta:    h.meta(r, model, res.Strategy, len(res.Values), elapsed),
	})
}

// HandleBoundary computes American early-exercise boundaries. Calls without
// dividends have no finite boundary and come back as null.
func (h *PricingHandler) HandleBoundary(w http.ResponseWriter, r *http.Request) {
	req, _, ok := h.decode(w, r, true, false)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.engine.ExerciseBoundaryBatch(boolParam(req.IsCall), inputs(req))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	elapsed := time.Since(start)

	h.observe(marlin.American, res.Strategy, len(res.Values), len(res.Invalid), elapsed)
	h.writeJSON(w, http.StatusOK, models.BatchResponse{
		Values:  h.roundAll(res.Values),
		Invalid: res.Invalid,
		Meta:    h.meta(r, marlin.American, res.Strategy, len(res.Values), elapsed),
	})
}

// HandleHealth reports liveness plus the engine configuration in effect.
func (h *PricingHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "ok",
		ExecutionMode: string(h.engine.Mode()),
		Workers:       h.config.Engine.Workers,
	})
}

func (h *PricingHandler) meta(r *http.Request, model marlin.Model, strategy string, n int, elapsed time.Duration) models.ResponseMeta {
	return models.ResponseMeta{
		Model:         model.String(),
		Strategy:      strategy,
		Elements:      n,
		ComputeMillis: float64(elapsed.Nanoseconds()) / 1e6,
		RequestID:     RequestIDFrom(r),
	}
}

func (h *PricingHandler) observe(model marlin.Model, strategy string, n, invalid int, elapsed time.Duration) {
	if h.collector != nil {
		h.collector.ObserveBatch(model.String(), strategy, n, invalid, elapsed)
	}
	if invalid > 0 {
		logger.Warn.Printf("⚠️ batch had %d invalid elements of %d (model=%s)", invalid, n, model)
	}
	logger.Debug.Printf("🐛 batch done: model=%s strategy=%s n=%d in %s", model, strategy, n, elapsed)
}

// writeEngineError maps engine failures onto HTTP statuses: shape mismatches
// are client errors, anything else is a 500.
func (h *PricingHandler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var sme *marlin.ShapeMismatchError
	if errors.As(err, &sme) {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.writeError(w, r, http.StatusInternalServerError, err.Error())
}

func (h *PricingHandler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	logger.Error.Printf("❌ %s %s -> %d: %s", r.Method, r.URL.Path, status, msg)
	h.writeJSON(w, status, models.ErrorResponse{Error: msg, RequestID: RequestIDFrom(r)})
}

func (h *PricingHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error.Printf("❌ encoding response: %v", err)
	}
}
