package gomysql

import (
	"context"
	"log/slog"
	"time"

	"github.com/gomysql/gomysql/internal/pool"
)

// PoolParams configures a connection pool.
type PoolParams struct {
	// Connect is how each pooled connection reaches and authenticates
	// with the server.
	Connect ConnectParams

	// InitialSize is how many connections are opened up front; MaxSize
	// bounds growth under demand.
	InitialSize int
	MaxSize     int

	ConnectTimeout time.Duration
	PingInterval   time.Duration // 0 disables idle health pings
	PingTimeout    time.Duration
	ResetTimeout   time.Duration
	RetryInterval  time.Duration

	// AcquireTimeout bounds GetConnection when the caller's context
	// carries no deadline.
	AcquireTimeout time.Duration

	ThreadSafe bool

	Logger  *slog.Logger
	Metrics *Metrics
}

// Stats is a snapshot of the pool's counters.
type Stats = pool.Stats

// Pool maintains a set of connections, reconnecting failed ones,
// pinging long-idle ones, and resetting session state between users.
type Pool struct {
	inner   *pool.Pool
	params  PoolParams
	metrics *Metrics
}

// NewPool creates the pool and begins opening its initial connections
// in the background. NewPool itself never blocks on the network.
func NewPool(params PoolParams) *Pool {
	if params.AcquireTimeout <= 0 {
		params.AcquireTimeout = 30 * time.Second
	}
	connectParams := params.Connect
	connectParams.Logger = params.Logger
	connectParams.Metrics = params.Metrics

	connect := func(ctx context.Context) (pool.Conn, error) {
		c := NewConnection(connectParams)
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	inner := pool.New(pool.Params{
		InitialSize:    params.InitialSize,
		MaxSize:        params.MaxSize,
		ConnectTimeout: params.ConnectTimeout,
		PingInterval:   params.PingInterval,
		PingTimeout:    params.PingTimeout,
		ResetTimeout:   params.ResetTimeout,
		RetryInterval:  params.RetryInterval,
		ThreadSafe:     params.ThreadSafe,
	}, connect, params.Logger)

	return &Pool{inner: inner, params: params, metrics: params.Metrics}
}

// GetConnection checks out an idle connection, waiting up to the
// caller's context deadline (or PoolParams.AcquireTimeout when the
// context carries none). On timeout with a failing upstream, the
// returned error wraps the most recent connect failure's diagnostics
// rather than a bare timeout.
func (p *Pool) GetConnection(ctx context.Context) (*PooledConnection, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.params.AcquireTimeout)
		defer cancel()
	}

	start := time.Now()
	node, err := p.inner.Checkout(ctx)
	if p.metrics != nil {
		p.metrics.AcquireDuration(time.Since(start))
		if err != nil {
			reason := "connect_failed"
			if de, ok := AsError(err); ok && de.Kind == KindCancelled {
				if de.Fatal {
					reason = "cancelled"
				} else {
					reason = "timeout"
				}
			}
			p.metrics.CheckoutError(reason)
		}
	}
	if err != nil {
		return nil, err
	}
	conn, _ := node.Conn().(*Connection)
	return &PooledConnection{Connection: conn, node: node}, nil
}

// Stats returns a snapshot of the pool's counters, refreshing the
// Prometheus gauges as a side effect when a collector is attached.
func (p *Pool) Stats() Stats {
	s := p.inner.Stats()
	if p.metrics != nil {
		p.metrics.UpdatePoolStats(s.Total, s.Idle, s.InUse, s.PendingConns, s.PendingRequests)
	}
	return s
}

// Cancel wakes every waiter with an error and begins winding the nodes
// down. Idempotent; does not block.
func (p *Pool) Cancel() { p.inner.Cancel() }

// Close cancels the pool and waits until every node task has finished.
func (p *Pool) Close() { p.inner.Close() }

// PooledConnection is a checked-out pool connection. It embeds the
// underlying *Connection, so every Connection operation is available
// directly. Return it with Release (or ReleaseWithReset) exactly once.
type PooledConnection struct {
	*Connection
	node     *pool.Node
	released bool
}

// Release returns the connection to the pool. Whether a session reset
// runs first is derived from what the connection did while checked out:
// statements, queries, and charset switches leave session state behind,
// a lone ping does not.
func (pc *PooledConnection) Release() {
	pc.ReleaseWithReset(pc.Connection.needsReset())
}

// ReleaseWithReset returns the connection, explicitly choosing whether
// the node resets session state before re-idling.
func (pc *PooledConnection) ReleaseWithReset(needsReset bool) {
	if pc.released {
		return
	}
	pc.released = true
	pc.node.Release(needsReset)
}
