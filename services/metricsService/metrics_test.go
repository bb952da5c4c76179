package metricsService

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SettlementRun("batch", time.Second)
	m.TipSettled("won", 3)
	m.ManualReview(1)
	m.AccumulatorSettled("lost", 1)
	m.Failover("fetch_results")
	m.ProviderError("api-football", "fetch_results")
	m.TipGenerated("serie-a", "free")
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have no registry")
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.TipSettled("won", 2)
	m.TipSettled("won", 1)
	m.TipSettled("void", 0)
	m.Failover("fetch_odds")
	m.ManualReview(4)

	if got := testutil.ToFloat64(m.TipsSettled.WithLabelValues("won")); got != 3 {
		t.Errorf("won = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.TipsSettled.WithLabelValues("void")); got != 0 {
		t.Errorf("void = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ProviderFailovers.WithLabelValues("fetch_odds")); got != 1 {
		t.Errorf("failovers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ManualReviews); got != 4 {
		t.Errorf("manual reviews = %v, want 4", got)
	}
}
