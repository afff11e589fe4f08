// Package metrics exposes pipeline run counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ReviewHarvester/internal/domain"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	productsInserted   prometheus.Counter
	reviewsInserted    prometheus.Counter
	reviewsSkipped     *prometheus.CounterVec
	fetchFailures      prometheus.Counter
	classifierFailures prometheus.Counter
	sentencesAnalyzed  prometheus.Counter
	keywordsCounted    prometheus.Counter
	watermark          prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_run_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		productsInserted: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_products_inserted_total",
			Help: "Products stored for the first time.",
		}),
		reviewsInserted: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_reviews_inserted_total",
			Help: "Reviews stored for the first time.",
		}),
		reviewsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_reviews_skipped_total",
			Help: "Fetched reviews that were not stored, by reason.",
		}, []string{"reason"}),
		fetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_fetch_failures_total",
			Help: "Storefront pages that could not be fetched or decoded.",
		}),
		classifierFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_classifier_failures_total",
			Help: "Sentences skipped because a classifier call failed.",
		}),
		sentencesAnalyzed: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_sentences_analyzed_total",
			Help: "Analyzed sentences persisted.",
		}),
		keywordsCounted: f.NewCounter(prometheus.CounterOpts{
			Name: "harvester_keywords_counted_total",
			Help: "Keyword counter increments.",
		}),
		watermark: f.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_review_watermark",
			Help: "Highest stored review ID after the last run.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_http_requests_total",
			Help: "Dashboard API requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_http_request_duration_seconds",
			Help:    "Dashboard API latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveRun records the outcome of one pipeline run.
func (m *Metrics) ObserveRun(report domain.RunReport, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(report.Duration.Seconds())

	m.productsInserted.Add(float64(report.ProductsInserted))
	m.reviewsInserted.Add(float64(report.Reviews.Inserted))
	m.reviewsSkipped.WithLabelValues("duplicate").Add(float64(report.Reviews.Duplicates))
	m.reviewsSkipped.WithLabelValues("unknown_product").Add(float64(report.Reviews.UnknownProduct))
	m.fetchFailures.Add(float64(report.FetchFailures))
	m.classifierFailures.Add(float64(report.ClassifierFailures))
	m.sentencesAnalyzed.Add(float64(report.Analysis.Sentences))
	m.keywordsCounted.Add(float64(report.Analysis.Keywords))
	if report.WatermarkAfter > 0 {
		m.watermark.Set(float64(report.WatermarkAfter))
	}
}

// ObserveRequest records one served HTTP request. route is the matched
// route pattern, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()
}
