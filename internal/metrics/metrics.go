package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ComputeCollector exposes Prometheus metrics for inbound HTTP requests and
// for the batch compute path (batch sizes and per-model kernel latency).
type ComputeCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	batchSize       prometheus.Histogram
	computeDuration *prometheus.HistogramVec
	invalidElements prometheus.Counter
}

// NewComputeCollector constructs a collector with default histograms/counters.
func NewComputeCollector() (*ComputeCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marlin",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marlin",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	// Buckets straddle the strategy thresholds so the selection behavior is
	// visible straight from the histogram.
	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marlin",
		Subsystem: "engine",
		Name:      "batch_size_elements",
		Help:      "Distribution of batch sizes submitted to the engine.",
		Buckets:   []float64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000},
	})

	computeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marlin",
		Subsystem: "engine",
		Name:      "compute_duration_seconds",
		Help:      "Batch compute latency by model and execution strategy.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	}, []string{"model", "strategy"})

	invalidElements := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marlin",
		Subsystem: "engine",
		Name:      "invalid_elements_total",
		Help:      "Total batch elements rejected by per-element validation.",
	})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal, batchSize, computeDuration, invalidElements,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &ComputeCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		batchSize:       batchSize,
		computeDuration: computeDuration,
		invalidElements: invalidElements,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *ComputeCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveBatch records one batch compute: its size, wall time, strategy, and
// how many elements failed validation.
func (c *ComputeCollector) ObserveBatch(model, strategy string, size, invalid int, elapsed time.Duration) {
	c.batchSize.Observe(float64(size))
	c.computeDuration.WithLabelValues(model, strategy).Observe(elapsed.Seconds())
	if invalid > 0 {
		c.invalidElements.Add(float64(invalid))
	}
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *ComputeCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
