package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestComputeCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewComputeCollector()
	if err != nil {
		t.Fatalf("NewComputeCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `marlin_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `marlin_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestComputeCollectorRecordsBatchMetrics(t *testing.T) {
	collector, err := NewComputeCollector()
	if err != nil {
		t.Fatalf("NewComputeCollector returned error: %v", err)
	}

	collector.ObserveBatch("black-scholes", "sequential", 500, 2, 3*time.Millisecond)
	collector.ObserveBatch("american", "full-parallel", 250_000, 0, 40*time.Millisecond)

	body := scrape(t, collector)
	if !strings.Contains(body, `marlin_engine_batch_size_elements_count 2`) {
		t.Fatalf("batch_size histogram not recorded, body=%q", body)
	}
	if !strings.Contains(body, `marlin_engine_compute_duration_seconds_count{model="black-scholes",strategy="sequential"} 1`) {
		t.Fatalf("compute_duration metric not recorded, body=%q", body)
	}
	if !strings.Contains(body, `marlin_engine_invalid_elements_total 2`) {
		t.Fatalf("invalid_elements counter not recorded, body=%q", body)
	}
}

func scrape(t *testing.T, collector *ComputeCollector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	collector.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
