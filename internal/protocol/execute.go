package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// Param is one bound execution parameter: its wire type code, whether it
// is unsigned, and its already-encoded binary-protocol value. A nil Value
// encodes as SQL NULL via the parameter null bitmap.
type Param struct {
	WireType byte
	Unsigned bool
	Value    []byte // nil means NULL; otherwise the encoded parameter body
}

// Execute runs a prepared statement: COM_STMT_EXECUTE
// against an already-prepared statement, with binary row decoding.
type Execute struct {
	sinkPump
	stmtID uint32
	params []Param
}

// NewExecute builds an Execute algorithm for the statement identified by
// stmtID (which must belong to state, checked by the caller via
// connstate.State.OwnsStatement), binding params in order.
func NewExecute(state *connstate.State, stmtID uint32, params []Param, sink results.Sink) *Execute {
	return &Execute{
		sinkPump: sinkPump{state: state, sink: sink, format: results.Binary},
		stmtID:   stmtID,
		params:   params,
	}
}

func (e *Execute) Start() (Action, error) {
	e.state.Reader.ResetSeqNum(0)
	e.state.Writer.ResetSeqNum(0)
	out := e.state.Writer.WriteMessage(nil, e.buildCommand())
	return writeAction(out)
}

func (e *Execute) buildCommand() []byte {
	b := wire.NewBuilder()
	b.Byte(comStmtExecute)
	b.Fixed4(e.stmtID)
	b.Byte(0)  // CURSOR_TYPE_NO_CURSOR
	b.Fixed4(1) // iteration-count

	if len(e.params) > 0 {
		bitmapLen := (len(e.params) + 7) / 8
		bitmap := make([]byte, bitmapLen)
		for i, p := range e.params {
			if p.Value == nil {
				bitmap[i/8] |= 1 << uint(i%8)
			}
		}
		b.Raw(bitmap)
		b.Byte(1) // new-params-bind-flag
		for _, p := range e.params {
			unsignedBit := byte(0)
			if p.Unsigned {
				unsignedBit = 0x80
			}
			b.Byte(p.WireType)
			b.Byte(unsignedBit)
		}
		for _, p := range e.params {
			if p.Value != nil {
				b.Raw(p.Value)
			}
		}
	}
	return append([]byte(nil), b.Bytes()...)
}
