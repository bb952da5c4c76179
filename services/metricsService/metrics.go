package metricsService

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SettlementRuns      *prometheus.CounterVec
	SettlementDuration  *prometheus.HistogramVec
	TipsSettled         *prometheus.CounterVec
	ManualReviews       prometheus.Counter
	AccumulatorsSettled *prometheus.CounterVec
	ProviderFailovers   *prometheus.CounterVec
	ProviderErrors      *prometheus.CounterVec
	TipsGenerated       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SettlementRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_settlement_runs_total",
				Help: "Settlement passes by mode",
			},
			[]string{"mode"},
		),
		SettlementDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tips_settlement_duration_seconds",
				Help:    "Wall time of a settlement pass",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"mode"},
		),
		TipsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_settled_total",
				Help: "Tips moved out of pending, by terminal status",
			},
			[]string{"status"},
		),
		ManualReviews: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tips_manual_review_total",
				Help: "Tips left pending because the result lacked required data",
			},
		),
		AccumulatorsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_accumulators_settled_total",
				Help: "Accumulators moved out of pending, by terminal status",
			},
			[]string{"status"},
		),
		ProviderFailovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_provider_failovers_total",
				Help: "Gateway calls served by the fallback source",
			},
			[]string{"op"},
		),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_provider_errors_total",
				Help: "Failed provider calls by source",
			},
			[]string{"source", "op"},
		),
		TipsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tips_generated_total",
				Help: "Tips created by the generation path, by league and tier",
			},
			[]string{"league", "tier"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SettlementRuns,
		m.SettlementDuration,
		m.TipsSettled,
		m.ManualReviews,
		m.AccumulatorsSettled,
		m.ProviderFailovers,
		m.ProviderErrors,
		m.TipsGenerated,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SettlementRun(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SettlementRuns.WithLabelValues(mode).Inc()
	m.SettlementDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) TipSettled(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TipsSettled.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) ManualReview(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ManualReviews.Add(float64(n))
}

func (m *Metrics) AccumulatorSettled(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AccumulatorsSettled.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) Failover(op string) {
	if m == nil {
		return
	}
	m.ProviderFailovers.WithLabelValues(op).Inc()
}

func (m *Metrics) ProviderError(source, op string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(source, op).Inc()
}

func (m *Metrics) TipGenerated(league, tier string) {
	if m == nil {
		return
	}
	m.TipsGenerated.WithLabelValues(league, tier).Inc()
}

type HealthFunc func(ctx context.Context) error

// StartMetricsServer serves /metrics and /healthz in its own goroutine.
func StartMetricsServer(port string, m *Metrics, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	if m != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if healthFn != nil {
			if err := healthFn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
