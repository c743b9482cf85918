package protocol

import (
	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

type prepareStep int

const (
	pAwaitingResponse prepareStep = iota
	pDrainingParams
	pDrainingColumns
	pDone
)

// PreparedStatement is the outcome of a successful Prepare algorithm run:
// the server-assigned statement id plus the parameter/column counts it
// reported. Parameter and column definitions themselves are drained but
// discarded; only the counts matter for execution.
type PreparedStatement struct {
	ID           uint32
	ColumnCount  uint16
	ParamCount   uint16
	WarningCount uint16
}

// Prepare creates a server-side prepared statement via COM_STMT_PREPARE.
type Prepare struct {
	state *connstate.State
	sql   string

	step      prepareStep
	remaining int

	Result PreparedStatement
}

// NewPrepare builds a Prepare algorithm that will prepare sql on state's
// connection.
func NewPrepare(state *connstate.State, sql string) *Prepare {
	return &Prepare{state: state, sql: sql}
}

func (p *Prepare) Start() (Action, error) {
	p.state.Reader.ResetSeqNum(0)
	p.state.Writer.ResetSeqNum(0)
	buf := wire.PutFixed1(nil, comStmtPrepare)
	buf = append(buf, p.sql...)
	out := p.state.Writer.WriteMessage(nil, buf)
	p.step = pAwaitingResponse
	return writeAction(out)
}

func (p *Prepare) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "preparing statement"))
	}
	ok, err := p.state.Reader.TryReadMessage()
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading prepare response"))
	}
	if !ok {
		return readAction()
	}
	payload := p.state.Reader.View()

	switch p.step {
	case pAwaitingResponse:
		return p.handleResponse(payload)
	case pDrainingParams, pDrainingColumns:
		return p.drain(payload)
	default:
		return doneOK()
	}
}

func (p *Prepare) handleResponse(payload []byte) (Action, error) {
	if len(payload) == 0 {
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true, "empty prepare response"))
	}
	switch payload[0] {
	case headerErr:
		ep, err := wire.ReadErrPacket(payload[1:], p.state.Capabilities)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing ERR packet"))
		}
		p.step = pDone
		return doneErr(diagnostics.FromServer(ep.Code, ep.SQLState, ep.Message, false))
	case headerOK:
		stmtID, pos, err := wire.ReadFixed4(payload, 1)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing statement id"))
		}
		columnCount, pos, err := wire.ReadFixed2(payload, pos)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing column count"))
		}
		paramCount, pos, err := wire.ReadFixed2(payload, pos)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing parameter count"))
		}
		_, pos, err = wire.ReadFixed1(payload, pos) // filler
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing filler"))
		}
		var warnings uint16
		if pos < len(payload) {
			warnings, _, err = wire.ReadFixed2(payload, pos)
			if err != nil {
				return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing warning count"))
			}
		}
		p.Result = PreparedStatement{ID: stmtID, ColumnCount: columnCount, ParamCount: paramCount, WarningCount: warnings}
		p.state.TrackStatement(stmtID)

		if paramCount > 0 {
			p.remaining = int(paramCount)
			p.step = pDrainingParams
			return readAction()
		}
		if columnCount > 0 {
			p.remaining = int(columnCount)
			p.step = pDrainingColumns
			return readAction()
		}
		p.step = pDone
		return doneOK()
	default:
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true,
			"unexpected byte 0x%02x in prepare response", payload[0]))
	}
}

// drain consumes one parameter or column definition packet, advancing to
// the next section (or finishing) once its count reaches zero. Under
// CLIENT_DEPRECATE_EOF the server omits the terminating EOF packet for
// each section; otherwise one EOF packet follows each section's
// definitions and must be consumed too.
func (p *Prepare) drain(payload []byte) (Action, error) {
	deprecateEOF := p.state.Capabilities.Has(capability.DeprecateEOF)

	if !deprecateEOF && wire.IsEOFPacket(payload, p.state.Capabilities) {
		return p.advanceSection()
	}

	p.remaining--
	if p.remaining > 0 {
		return readAction()
	}
	if deprecateEOF {
		return p.advanceSection()
	}
	return readAction() // await the section's terminating EOF packet
}

func (p *Prepare) advanceSection() (Action, error) {
	if p.step == pDrainingParams && p.Result.ColumnCount > 0 {
		p.remaining = int(p.Result.ColumnCount)
		p.step = pDrainingColumns
		return readAction()
	}
	p.step = pDone
	return doneOK()
}
