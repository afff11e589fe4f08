package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ReviewHarvester/internal/domain"
)

func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := New()
	report := domain.RunReport{
		Duration:         2 * time.Second,
		ProductsInserted: 1,
		Reviews:          domain.ReviewUpsertResult{Inserted: 3, Duplicates: 2},
		WatermarkAfter:   105,
		Analysis:         domain.PersistStats{Sentences: 4, Keywords: 6},
	}

	m.ObserveRun(report, nil)
	m.ObserveRun(domain.RunReport{}, errors.New("boom"))

	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failure runs = %v", got)
	}
	if got := testutil.ToFloat64(m.reviewsInserted); got != 3 {
		t.Fatalf("reviews inserted = %v", got)
	}
	if got := testutil.ToFloat64(m.reviewsSkipped.WithLabelValues("duplicate")); got != 2 {
		t.Fatalf("duplicates = %v", got)
	}
	if got := testutil.ToFloat64(m.watermark); got != 105 {
		t.Fatalf("watermark = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveRun(domain.RunReport{}, nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun(domain.RunReport{Analysis: domain.PersistStats{Sentences: 1}}, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "harvester_sentences_analyzed_total 1") {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}

func TestObserveRequest(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest("GET", "/api/products", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/products", 200, 7*time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products", "200")); got != 2 {
		t.Fatalf("requests = %v, want 2", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveRequest("GET", "/", 200, time.Millisecond)
}
