package pool

import (
	"context"
	"sync/atomic"
	"time"
)

// nodeState enumerates the per-node lifecycle states.
type nodeState int

const (
	stateInitial nodeState = iota
	stateConnect
	stateSleepConnectFailed
	stateIdle
	stateInUse
	statePing
	stateReset
	stateTerminated
)

func (s nodeState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateConnect:
		return "connect-in-progress"
	case stateSleepConnectFailed:
		return "sleep-connect-failed"
	case stateIdle:
		return "idle"
	case stateInUse:
		return "in-use"
	case statePing:
		return "ping-in-progress"
	case stateReset:
		return "reset-in-progress"
	default:
		return "terminated"
	}
}

// Collectable states a returned connection publishes to its node. The
// value is stored in a lone atomic so a user goroutine can release a
// connection without taking the pool lock.
const (
	collectNone       int32 = 0
	collectNoReset    int32 = 1
	collectNeedsReset int32 = 2
)

// Node is one pool slot: it owns one connection, its health timer, and
// the goroutine driving the state machine.
type Node struct {
	pool *Pool
	conn Conn

	// state and pending are guarded by pool.mu.
	state   nodeState
	pending bool

	collect atomic.Int32
	wake    chan struct{}
}

// Conn returns the node's established connection. Valid only while the
// node is checked out (between Checkout returning it and Release).
func (n *Node) Conn() Conn { return n.conn }

// Release returns a checked-out node to the pool. needsReset requests a
// session reset before the connection re-enters the idle list, used when
// the last user operation may have left session state behind. Safe to call from any goroutine.
func (n *Node) Release(needsReset bool) {
	c := collectNoReset
	if needsReset {
		c = collectNeedsReset
	}
	n.collect.Store(c)
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// run is the node's task: it drives the state machine until the pool is
// cancelled, performing connect/ping/reset I/O outside the pool lock and
// state transitions under it.
func (n *Node) run() {
	p := n.pool
	defer p.wg.Done()

	for {
		p.mu.Lock()
		if p.cancelled {
			n.terminateLocked()
			p.mu.Unlock()
			n.closeConn()
			return
		}
		st := n.state
		p.mu.Unlock()

		switch st {
		case stateInitial, stateConnect:
			n.doConnect()
		case stateSleepConnectFailed:
			n.doSleep()
		case stateIdle, stateInUse:
			n.waitEvent()
		case statePing:
			n.doPing()
		case stateReset:
			n.doReset()
		case stateTerminated:
			n.closeConn()
			return
		}
	}
}

func (n *Node) doConnect() {
	p := n.pool
	ctx, cancel := context.WithTimeout(p.ctx, p.params.ConnectTimeout)
	conn, err := p.connect(ctx)
	cancel()

	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		if err == nil {
			closeQuietly(conn)
		}
		return
	}
	if err != nil {
		p.lastConnectErr = err
		n.state = stateSleepConnectFailed
		p.mu.Unlock()
		p.logger.Warn("connect attempt failed", "err", err, "retry_in", p.params.RetryInterval)
		return
	}
	n.conn = conn
	n.enterIdleLocked()
	p.mu.Unlock()
}

func (n *Node) doSleep() {
	p := n.pool
	t := time.NewTimer(p.params.RetryInterval)
	select {
	case <-t.C:
	case <-p.ctx.Done():
		t.Stop()
	}
	p.mu.Lock()
	if !p.cancelled {
		n.state = stateConnect
	}
	p.mu.Unlock()
}

// waitEvent blocks until the connection is released back (wake), the
// idle-ping timer elapses, or the pool is cancelled. A ping timer
// elapsing while the node is checked out is a no-op; the wait simply
// re-arms.
func (n *Node) waitEvent() {
	p := n.pool
	var timerC <-chan time.Time
	if p.params.PingInterval > 0 {
		t := time.NewTimer(p.params.PingInterval)
		defer t.Stop()
		timerC = t.C
	}

	select {
	case <-p.ctx.Done():
		return

	case <-n.wake:
		p.mu.Lock()
		c := n.collect.Swap(collectNone)
		if n.state == stateInUse && c != collectNone {
			if c == collectNeedsReset {
				n.state = stateReset
				n.setPendingLocked(true)
			} else {
				n.enterIdleLocked()
			}
		}
		p.mu.Unlock()

	case <-timerC:
		p.mu.Lock()
		if n.state == stateIdle {
			n.exitIdleLocked()
			n.state = statePing
			n.setPendingLocked(true)
		}
		p.mu.Unlock()
	}
}

func (n *Node) doPing() {
	p := n.pool
	ctx, cancel := context.WithTimeout(p.ctx, p.params.PingTimeout)
	err := n.conn.Ping(ctx)
	cancel()

	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return
	}
	if err != nil {
		n.state = stateConnect
		p.mu.Unlock()
		p.logger.Warn("idle ping failed, reconnecting", "err", err)
		n.closeConn()
		return
	}
	n.enterIdleLocked()
	p.mu.Unlock()
}

func (n *Node) doReset() {
	p := n.pool
	ctx, cancel := context.WithTimeout(p.ctx, p.params.ResetTimeout)
	err := n.conn.Reset(ctx)
	cancel()

	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return
	}
	if err != nil {
		n.state = stateConnect
		p.mu.Unlock()
		p.logger.Warn("session reset failed, reconnecting", "err", err)
		n.closeConn()
		return
	}
	n.enterIdleLocked()
	p.mu.Unlock()
}

// enterIdleLocked moves the node into the idle state: it leaves any
// pending accounting, joins the idle list, and wakes checkout waiters.
// Caller holds pool.mu.
func (n *Node) enterIdleLocked() {
	n.setPendingLocked(false)
	n.state = stateIdle
	n.pool.idle = append(n.pool.idle, n)
	n.pool.cond.Broadcast()
}

// exitIdleLocked removes the node from the idle list. Caller holds
// pool.mu.
func (n *Node) exitIdleLocked() {
	idle := n.pool.idle
	for i, cand := range idle {
		if cand == n {
			n.pool.idle = append(idle[:i], idle[i+1:]...)
			return
		}
	}
}

// setPendingLocked keeps num_pending_connections consistent with whether
// this node is in a transient state (connect, sleep, ping, reset).
// Caller holds pool.mu.
func (n *Node) setPendingLocked(pending bool) {
	if n.pending == pending {
		return
	}
	n.pending = pending
	if pending {
		n.pool.numPendingConns++
	} else {
		n.pool.numPendingConns--
	}
}

// terminateLocked transitions the node to terminated, unwinding any
// idle-list membership or pending accounting. Caller holds pool.mu.
func (n *Node) terminateLocked() {
	if n.state == stateIdle {
		n.exitIdleLocked()
	}
	n.setPendingLocked(false)
	n.state = stateTerminated
}

func (n *Node) closeConn() {
	if n.conn == nil {
		return
	}
	closeQuietly(n.conn)
	n.conn = nil
}

func closeQuietly(c Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_ = c.Close(ctx)
	cancel()
}
