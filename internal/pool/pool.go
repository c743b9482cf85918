package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gomysql/gomysql/internal/diagnostics"
)

// Pool owns a set of connection nodes and hands idle ones to callers,
// growing up to Params.MaxSize under demand.
type Pool struct {
	params  Params
	connect ConnectFunc
	logger  *slog.Logger

	mu   sync.Mutex
	cond *sync.Cond

	nodes []*Node
	idle  []*Node

	numPendingConns    int
	numPendingRequests int
	lastConnectErr     error
	cancelled          bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a pool and starts Params.InitialSize node tasks, each of
// which begins connecting immediately. logger may be nil.
func New(params Params, connect ConnectFunc, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		params:  params.withDefaults(),
		connect: connect,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	p.cond = sync.NewCond(&p.mu)

	p.mu.Lock()
	for i := 0; i < p.params.InitialSize; i++ {
		p.addNodeLocked()
	}
	p.mu.Unlock()
	return p
}

// addNodeLocked creates one node in the initial state and starts its
// task. Caller holds p.mu.
func (p *Pool) addNodeLocked() {
	n := &Node{pool: p, state: stateInitial, wake: make(chan struct{}, 1)}
	n.setPendingLocked(true)
	p.nodes = append(p.nodes, n)
	p.wg.Add(1)
	go n.run()
}

// Checkout hands out an idle connection, creating one when allowed. The
// caller's ctx carries the checkout deadline; on expiry, the most recent
// connect failure's diagnostics are surfaced when available, so a pool
// that cannot connect reports why instead of a bare timeout.
func (p *Pool) Checkout(ctx context.Context) (*Node, error) {
	// Wake our cond wait when the caller's context fires, so the
	// deadline is honored even with no pool activity.
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.cancelled {
			return nil, diagnostics.New(diagnostics.KindCancelled, true, "pool is cancelled")
		}

		if len(p.idle) > 0 {
			n := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]
			n.state = stateInUse
			return n, nil
		}

		// Grow only when no node is already mid-transition: when every
		// existing node is failing to connect, piling on more nodes
		// would not produce a connection any sooner. A node whose
		// connection was released but not yet collected by its task
		// counts as mid-transition too: it is about to become idle
		// (after a reset when one was requested).
		returning := false
		for _, n := range p.nodes {
			if n.state == stateInUse && n.collect.Load() != collectNone {
				returning = true
				break
			}
		}
		if len(p.nodes) < p.params.MaxSize && p.numPendingConns == 0 && !returning {
			p.addNodeLocked()
		}

		if ctx.Err() != nil {
			if p.lastConnectErr != nil {
				return nil, fmt.Errorf("pool: no connection became available (last connect attempt failed): %w", p.lastConnectErr)
			}
			return nil, diagnostics.Wrap(diagnostics.KindCancelled, false, ctx.Err(),
				"timed out waiting for an idle connection")
		}

		p.numPendingRequests++
		p.cond.Wait()
		p.numPendingRequests--
	}
}

// Cancel initiates shutdown: all checkout waiters wake with an error and
// every node task winds down. Idempotent.
func (p *Pool) Cancel() {
	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return
	}
	p.cancelled = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.cancel()
}

// Close cancels the pool and blocks until every node task has finished.
func (p *Pool) Close() {
	p.Cancel()
	p.wg.Wait()
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	inUse := 0
	for _, n := range p.nodes {
		if n.state == stateInUse {
			inUse++
		}
	}
	return Stats{
		Total:           len(p.nodes),
		Idle:            len(p.idle),
		InUse:           inUse,
		PendingConns:    p.numPendingConns,
		PendingRequests: p.numPendingRequests,
		MaxSize:         p.params.MaxSize,
		ThreadSafe:      p.params.ThreadSafe,
		Cancelled:       p.cancelled,
	}
}
