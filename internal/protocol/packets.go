package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

// Command byte constants for the requests this client issues.
const (
	comQuit        byte = 0x01
	comInitDB      byte = 0x02
	comQuery       byte = 0x03
	comPing        byte = 0x0e
	comStmtPrepare byte = 0x16
	comStmtExecute byte = 0x17
	comStmtClose   byte = 0x19
	comResetConn   byte = 0x1f
)

// Response packet header byte aliases, for readability at call sites in
// this package.
const (
	headerOK  byte = 0x00
	headerErr byte = 0xff
	headerEOF byte = 0xfe
)

// simpleResponse is the outcome of one readSimpleResponse call. Exactly
// one of (Pending, OK is set, Action/Err is set) holds: Pending means the
// caller should return Action unchanged and try again on the next byte
// delivery; otherwise the exchange has finished, successfully (OK
// populated, Err nil) or not (Err set, carrying the Action the caller
// should return).
type simpleResponse struct {
	Pending bool
	OK      wire.OKPacket
	Action  Action
	Err     error
}

// readSimpleResponse is shared by the algorithms whose server reply is
// always exactly one OK_Packet or ERR_Packet (Ping, Reset): it drives a
// single TryReadMessage/dispatch cycle and reports the decoded OK packet,
// or a diagnostics.Error wrapping a server ERR_Packet.
func readSimpleResponse(state *connstate.State, what string) simpleResponse {
	ok, err := state.Reader.TryReadMessage()
	if err != nil {
		a, derr := doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading %s response", what))
		return simpleResponse{Action: a, Err: derr}
	}
	if !ok {
		a, _ := readAction()
		return simpleResponse{Pending: true, Action: a}
	}
	payload := state.Reader.View()
	if len(payload) == 0 {
		a, derr := doneErr(diagnostics.New(diagnostics.KindProtocolValue, true, "empty %s response", what))
		return simpleResponse{Action: a, Err: derr}
	}
	switch payload[0] {
	case headerOK:
		okp, perr := wire.ReadOKPacket(payload[1:], state.Capabilities)
		if perr != nil {
			a, derr := doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, perr, "parsing OK packet"))
			return simpleResponse{Action: a, Err: derr}
		}
		return simpleResponse{OK: okp}
	case headerErr:
		ep, perr := wire.ReadErrPacket(payload[1:], state.Capabilities)
		if perr != nil {
			a, derr := doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, perr, "parsing ERR packet"))
			return simpleResponse{Action: a, Err: derr}
		}
		a, derr := doneErr(diagnostics.FromServer(ep.Code, ep.SQLState, ep.Message, false))
		return simpleResponse{Action: a, Err: derr}
	default:
		a, derr := doneErr(diagnostics.New(diagnostics.KindProtocolValue, true,
			"unexpected byte 0x%02x in %s response", payload[0], what))
		return simpleResponse{Action: a, Err: derr}
	}
}
