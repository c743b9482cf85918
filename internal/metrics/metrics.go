// Package metrics exposes the client's Prometheus collectors: pool
// occupancy gauges, checkout-wait and query-duration histograms, and
// handshake/reconnect counters. All metrics live on a private registry
// so embedding applications never collide on the global default.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for a pool and its connections.
type Collector struct {
	Registry *prometheus.Registry

	poolTotal           prometheus.Gauge
	poolIdle            prometheus.Gauge
	poolInUse           prometheus.Gauge
	poolPendingConns    prometheus.Gauge
	poolPendingRequests prometheus.Gauge

	acquireDuration prometheus.Histogram
	queryDuration   *prometheus.HistogramVec

	handshakesTotal *prometheus.CounterVec
	reconnectsTotal prometheus.Counter
	checkoutErrors  *prometheus.CounterVec
}

// New creates and registers all metrics using a custom registry. Safe to
// call multiple times (e.g., in tests) — each call creates an
// independent registry that doesn't conflict with others.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,
		poolTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomysql_pool_connections_total",
			Help: "Total number of connection slots in the pool",
		}),
		poolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomysql_pool_connections_idle",
			Help: "Number of idle pooled connections",
		}),
		poolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomysql_pool_connections_in_use",
			Help: "Number of pooled connections currently checked out",
		}),
		poolPendingConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomysql_pool_connections_pending",
			Help: "Number of connections in a transient state (connecting, resetting, pinging)",
		}),
		poolPendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gomysql_pool_requests_waiting",
			Help: "Number of goroutines waiting for a pooled connection",
		}),
		acquireDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gomysql_pool_acquire_duration_seconds",
			Help:    "Time spent waiting for a pooled connection",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gomysql_query_duration_seconds",
				Help:    "Duration of protocol operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"operation"},
		),
		handshakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomysql_handshakes_total",
				Help: "Completed handshakes by authentication plugin and outcome",
			},
			[]string{"plugin", "status"},
		),
		reconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gomysql_pool_reconnects_total",
			Help: "Connections re-established after a ping or reset failure",
		}),
		checkoutErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gomysql_pool_checkout_errors_total",
				Help: "Failed pool checkouts by reason",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(
		c.poolTotal,
		c.poolIdle,
		c.poolInUse,
		c.poolPendingConns,
		c.poolPendingRequests,
		c.acquireDuration,
		c.queryDuration,
		c.handshakesTotal,
		c.reconnectsTotal,
		c.checkoutErrors,
	)

	return c
}

// UpdatePoolStats replaces the pool occupancy gauges from a snapshot.
func (c *Collector) UpdatePoolStats(total, idle, inUse, pendingConns, pendingRequests int) {
	c.poolTotal.Set(float64(total))
	c.poolIdle.Set(float64(idle))
	c.poolInUse.Set(float64(inUse))
	c.poolPendingConns.Set(float64(pendingConns))
	c.poolPendingRequests.Set(float64(pendingRequests))
}

// AcquireDuration observes the time spent waiting for a pool checkout.
func (c *Collector) AcquireDuration(d time.Duration) {
	c.acquireDuration.Observe(d.Seconds())
}

// QueryDuration observes one protocol operation's duration. operation is
// the command name ("query", "execute", "prepare", "ping", ...).
func (c *Collector) QueryDuration(operation string, d time.Duration) {
	c.queryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// HandshakeCompleted records one handshake attempt's outcome under the
// auth plugin that finished the exchange.
func (c *Collector) HandshakeCompleted(plugin string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.handshakesTotal.WithLabelValues(plugin, status).Inc()
}

// Reconnect records one connection re-establishment after a health-check
// or reset failure.
func (c *Collector) Reconnect() {
	c.reconnectsTotal.Inc()
}

// CheckoutError records one failed checkout. reason is "timeout",
// "cancelled" or "connect_failed".
func (c *Collector) CheckoutError(reason string) {
	c.checkoutErrors.WithLabelValues(reason).Inc()
}
