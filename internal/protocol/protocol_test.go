package protocol

import (
	"testing"

	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/frame"
	"github.com/gomysql/gomysql/internal/wire"
)

// testCaps is the capability set most tests negotiate: everything
// mandatory, nothing optional.
const testCaps = capability.Mandatory

// algorithm is the Start/Next shape shared by every algorithm in this
// package, mirrored here so the driver below can take any of them.
type algorithm interface {
	Start() (Action, error)
	Next(res IOResult) (Action, error)
}

// drive runs alg to completion without an engine: writes are captured,
// and each read request is satisfied with the next pre-framed inbound
// chunk. It fails the test if the algorithm wants more input than the
// script provides.
func drive(t *testing.T, st *connstate.State, alg algorithm, inbound [][]byte) (written [][]byte, err error) {
	t.Helper()
	action, err := alg.Start()
	idx := 0
	for action.Kind != ActionDone {
		switch action.Kind {
		case ActionWrite:
			written = append(written, append([]byte(nil), action.WriteBuf...))
			action, err = alg.Next(IOResult{N: len(action.WriteBuf)})
		case ActionRead:
			if idx >= len(inbound) {
				t.Fatalf("algorithm requested input beyond the %d scripted chunks", len(inbound))
			}
			raw := inbound[idx]
			idx++
			space := st.Reader.FreeSpace(len(raw))
			copy(space, raw)
			st.Reader.Produced(len(raw))
			action, err = alg.Next(IOResult{N: len(raw)})
		default:
			// connect / tls-handshake / tls-shutdown / close: report
			// success and continue.
			action, err = alg.Next(IOResult{})
		}
	}
	return written, err
}

func newTestState() *connstate.State {
	st := connstate.New(4096)
	st.Capabilities = testCaps
	return st
}

// fr frames a payload with the given sequence number, producing the raw
// bytes a server would put on the wire.
func fr(payload []byte, seq uint8) []byte {
	out, _ := frame.WriteMessage(nil, payload, seq)
	return out
}

// okBody builds an OK (or DeprecateEOF terminator) packet body after the
// header byte: affected, lastInsertID, status, warnings.
func okBody(affected, lastID uint64, status uint16, warnings uint16) []byte {
	b := wire.PutLengthEncodedInt(nil, affected)
	b = wire.PutLengthEncodedInt(b, lastID)
	b = wire.PutFixed2(b, status)
	b = wire.PutFixed2(b, warnings)
	return b
}

func okPacket(status uint16) []byte {
	return append([]byte{0x00}, okBody(0, 0, status, 0)...)
}

func errPacket(code uint16, sqlState, msg string) []byte {
	b := []byte{0xff}
	b = wire.PutFixed2(b, code)
	b = append(b, '#')
	b = append(b, sqlState...)
	b = append(b, msg...)
	return b
}

// columnDef41 builds a ColumnDefinition41 packet body for a single
// column.
func columnDef41(name string, wireType byte, flags uint16, collation uint16) []byte {
	b := wire.PutLengthEncodedString(nil, "def")
	b = wire.PutLengthEncodedString(b, "testdb")   // schema
	b = wire.PutLengthEncodedString(b, "t")        // table
	b = wire.PutLengthEncodedString(b, "t")        // org table
	b = wire.PutLengthEncodedString(b, name)       // name
	b = wire.PutLengthEncodedString(b, name)       // org name
	b = wire.PutLengthEncodedInt(b, 0x0c)          // fixed-length fields
	b = wire.PutFixed2(b, collation)
	b = wire.PutFixed4(b, 11) // column length
	b = wire.PutFixed1(b, wireType)
	b = wire.PutFixed2(b, flags)
	b = wire.PutFixed1(b, 0)    // decimals
	b = wire.PutFixed2(b, 0)    // filler
	return b
}

// textRow builds a text-protocol row from column values.
func textRow(values ...string) []byte {
	var b []byte
	for _, v := range values {
		b = wire.PutLengthEncodedString(b, v)
	}
	return b
}
