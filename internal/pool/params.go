// Package pool implements the health-managed connection pool: one
// lifecycle state machine per connection slot, bounded concurrency, and
// back-pressure for checkout waiters.
package pool

import (
	"context"
	"time"
)

// Conn is what the pool manages: an established, authenticated
// connection that can be health-checked, session-reset, and closed. The
// root package supplies the concrete implementation; keeping the pool
// behind this interface also lets the pool tests drive the node state
// machine with scripted connections.
type Conn interface {
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

// ConnectFunc dials, handshakes, and authenticates one new connection.
type ConnectFunc func(ctx context.Context) (Conn, error)

// Params is the pool's immutable configuration.
type Params struct {
	// InitialSize is how many nodes are created up front. Each begins
	// connecting immediately.
	InitialSize int

	// MaxSize bounds the total node count. Must be >= InitialSize.
	MaxSize int

	// ConnectTimeout bounds each connect attempt.
	ConnectTimeout time.Duration

	// PingTimeout bounds each idle-health ping.
	PingTimeout time.Duration

	// ResetTimeout bounds the session reset run when a connection is
	// returned with needs-reset.
	ResetTimeout time.Duration

	// RetryInterval is how long a node sleeps after a failed connect
	// before trying again.
	RetryInterval time.Duration

	// PingInterval is how long a node may sit idle before it is
	// health-checked with a ping. Zero disables idle pings.
	PingInterval time.Duration

	// ThreadSafe declares whether the pool will be driven from multiple
	// goroutines. Bookkeeping is always guarded either way (node tasks
	// are goroutines regardless of the caller's threading), so the flag
	// only documents intent and is echoed in Stats.
	ThreadSafe bool
}

const (
	defaultConnectTimeout = 20 * time.Second
	defaultPingTimeout    = 10 * time.Second
	defaultResetTimeout   = 10 * time.Second
	defaultRetryInterval  = 10 * time.Second
	defaultPingInterval   = time.Hour
)

func (p Params) withDefaults() Params {
	if p.InitialSize <= 0 {
		p.InitialSize = 1
	}
	if p.MaxSize <= 0 {
		p.MaxSize = 151
	}
	if p.MaxSize < p.InitialSize {
		p.MaxSize = p.InitialSize
	}
	if p.ConnectTimeout <= 0 {
		p.ConnectTimeout = defaultConnectTimeout
	}
	if p.PingTimeout <= 0 {
		p.PingTimeout = defaultPingTimeout
	}
	if p.ResetTimeout <= 0 {
		p.ResetTimeout = defaultResetTimeout
	}
	if p.RetryInterval <= 0 {
		p.RetryInterval = defaultRetryInterval
	}
	return p
}

// Stats is a point-in-time snapshot of the pool's counters, surfaced
// through the admin API and the Prometheus collector.
type Stats struct {
	Total           int  `json:"total"`
	Idle            int  `json:"idle"`
	InUse           int  `json:"in_use"`
	PendingConns    int  `json:"pending_connections"`
	PendingRequests int  `json:"pending_requests"`
	MaxSize         int  `json:"max_size"`
	ThreadSafe      bool `json:"thread_safe"`
	Cancelled       bool `json:"cancelled"`
}
