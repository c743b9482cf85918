package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func getCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestUpdatePoolStatsAuthority(t *testing.T) {
	c := New()

	c.UpdatePoolStats(8, 5, 3, 1, 2)

	if got := getGaugeValue(t, c.poolIdle); got != 5 {
		t.Errorf("expected idle=5, got %v", got)
	}
	if got := getGaugeValue(t, c.poolInUse); got != 3 {
		t.Errorf("expected in_use=3, got %v", got)
	}
	if got := getGaugeValue(t, c.poolPendingRequests); got != 2 {
		t.Errorf("expected waiting=2, got %v", got)
	}

	// A second call replaces (not increments) the values.
	c.UpdatePoolStats(8, 4, 4, 0, 0)
	if got := getGaugeValue(t, c.poolIdle); got != 4 {
		t.Errorf("expected idle=4 after update, got %v", got)
	}
}

func TestHandshakeCounter(t *testing.T) {
	c := New()

	c.HandshakeCompleted("caching_sha2_password", true)
	c.HandshakeCompleted("caching_sha2_password", true)
	c.HandshakeCompleted("mysql_native_password", false)

	ok := c.handshakesTotal.WithLabelValues("caching_sha2_password", "ok")
	if got := getCounterValue(t, ok); got != 2 {
		t.Errorf("expected 2 ok handshakes, got %v", got)
	}
	failed := c.handshakesTotal.WithLabelValues("mysql_native_password", "error")
	if got := getCounterValue(t, failed); got != 1 {
		t.Errorf("expected 1 failed handshake, got %v", got)
	}
}

func TestQueryDurationObserved(t *testing.T) {
	c := New()

	c.QueryDuration("query", 100*time.Millisecond)
	c.QueryDuration("execute", 200*time.Millisecond)

	families, err := c.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, fam := range families {
		if fam.GetName() == "gomysql_query_duration_seconds" {
			found = true
			total := uint64(0)
			for _, m := range fam.GetMetric() {
				total += m.GetHistogram().GetSampleCount()
			}
			if total != 2 {
				t.Errorf("expected 2 observations, got %d", total)
			}
		}
	}
	if !found {
		t.Fatal("gomysql_query_duration_seconds not gathered")
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Reconnect()
	if got := getCounterValue(t, b.reconnectsTotal); got != 0 {
		t.Errorf("registries are not independent: got %v", got)
	}
}
