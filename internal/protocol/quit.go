package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

type quitStep int

const (
	qtAwaitingWrite quitStep = iota
	qtAwaitingTLSShutdown
	qtAwaitingClose
	qtDone
)

// Quit terminates the session: write COM_QUIT (no read
// performed), then a best-effort TLS shutdown, then close the transport.
// useTLS controls whether the TLS shutdown step runs at all.
type Quit struct {
	state  *connstate.State
	useTLS bool
	step   quitStep
}

// NewQuit builds a Quit algorithm. useTLS should be true when the
// connection negotiated TLS during the handshake.
func NewQuit(state *connstate.State, useTLS bool) *Quit {
	return &Quit{state: state, useTLS: useTLS}
}

func (q *Quit) Start() (Action, error) {
	q.state.Writer.ResetSeqNum(0)
	out := q.state.Writer.WriteMessage(nil, wire.PutFixed1(nil, comQuit))
	q.step = qtAwaitingWrite
	return writeAction(out)
}

func (q *Quit) Next(res IOResult) (Action, error) {
	switch q.step {
	case qtAwaitingWrite:
		// The write's own transport error, if any, is ignored here: the
		// server may have already closed its half of the connection by
		// the time COM_QUIT lands, which is not itself a failure to quit.
		_ = res.Err
		if q.useTLS {
			q.step = qtAwaitingTLSShutdown
			return Action{Kind: ActionTLSShutdown}, nil
		}
		q.step = qtAwaitingClose
		return Action{Kind: ActionClose}, nil
	case qtAwaitingTLSShutdown:
		q.step = qtAwaitingClose
		return Action{Kind: ActionClose}, nil
	case qtAwaitingClose:
		q.step = qtDone
		if res.Err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindTransport, false, res.Err, "closing transport"))
		}
		return doneOK()
	default:
		return doneOK()
	}
}
