package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

// Reset issues COM_RESET_CONNECTION, refreshing session state (variables, temp
// tables, prepared statements) without reconnecting. On success,
// backslash_escapes is refreshed from the new OK packet's status flags.
type Reset struct {
	state *connstate.State
}

// NewReset builds a Reset algorithm.
func NewReset(state *connstate.State) *Reset { return &Reset{state: state} }

func (r *Reset) Start() (Action, error) {
	r.state.Reader.ResetSeqNum(0)
	r.state.Writer.ResetSeqNum(0)
	out := r.state.Writer.WriteMessage(nil, wire.PutFixed1(nil, comResetConn))
	return writeAction(out)
}

func (r *Reset) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "resetting connection"))
	}
	result := readSimpleResponse(r.state, "reset connection")
	if result.Pending {
		return result.Action, nil
	}
	if result.Err != nil {
		return result.Action, result.Err
	}

	r.state.BackslashEscapes = result.OK.StatusFlags&wire.StatusNoBackslashEscapes == 0
	r.state.ForgetAllStatements()
	return doneOK()
}
