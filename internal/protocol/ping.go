package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

// Ping writes COM_PING and expects OK/error.
type Ping struct {
	state *connstate.State
}

// NewPing builds a Ping algorithm.
func NewPing(state *connstate.State) *Ping { return &Ping{state: state} }

func (p *Ping) Start() (Action, error) {
	p.state.Reader.ResetSeqNum(0)
	p.state.Writer.ResetSeqNum(0)
	out := p.state.Writer.WriteMessage(nil, wire.PutFixed1(nil, comPing))
	return writeAction(out)
}

func (p *Ping) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "sending ping"))
	}
	r := readSimpleResponse(p.state, "ping")
	if r.Pending {
		return r.Action, nil
	}
	if r.Err != nil {
		return r.Action, r.Err
	}
	return doneOK()
}
