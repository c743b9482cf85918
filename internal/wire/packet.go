package wire

import "github.com/gomysql/gomysql/internal/capability"

// Response packet header bytes, shared by every layer that dispatches on
// the first byte of a message.
const (
	HeaderOK          byte = 0x00
	HeaderErr         byte = 0xff
	HeaderEOF         byte = 0xfe
	HeaderLocalInfile byte = 0xfb
)

// OK_Packet status flag bits this client inspects.
const (
	StatusMoreResultsExists  uint16 = 0x0008
	StatusNoBackslashEscapes uint16 = 0x0200
)

// OKPacket is the parsed body of an OK_Packet (header byte already
// consumed by the caller).
type OKPacket struct {
	AffectedRows uint64
	LastInsertID uint64
	StatusFlags  uint16
	WarningCount uint16
	Info         string
	MoreResults  bool
}

// ReadOKPacket decodes an OK_Packet body.
func ReadOKPacket(payload []byte, caps capability.Set) (OKPacket, error) {
	pos := 0
	affected, _, n, err := ReadLengthEncodedInt(payload, pos)
	if err != nil {
		return OKPacket{}, err
	}
	pos = n
	lastID, _, n, err := ReadLengthEncodedInt(payload, pos)
	if err != nil {
		return OKPacket{}, err
	}
	pos = n

	var out OKPacket
	out.AffectedRows = affected
	out.LastInsertID = lastID

	if caps.Has(capability.Protocol41) {
		status, n, err := ReadFixed2(payload, pos)
		if err != nil {
			return OKPacket{}, err
		}
		pos = n
		out.StatusFlags = status
		warnings, n, err := ReadFixed2(payload, pos)
		if err != nil {
			return OKPacket{}, err
		}
		pos = n
		out.WarningCount = warnings
	} else if caps.Has(capability.Transactions) {
		status, n, err := ReadFixed2(payload, pos)
		if err != nil {
			return OKPacket{}, err
		}
		pos = n
		out.StatusFlags = status
	}

	if pos < len(payload) {
		info, _, _, err := ReadLengthEncodedString(payload, pos)
		if err == nil {
			out.Info = info
		}
	}
	out.MoreResults = out.StatusFlags&StatusMoreResultsExists != 0
	return out, nil
}

// EOFPacket is the parsed body of a classic EOF_Packet (header byte
// already consumed), used only when CLIENT_DEPRECATE_EOF is not
// negotiated.
type EOFPacket struct {
	WarningCount uint16
	StatusFlags  uint16
	MoreResults  bool
}

// ReadEOFPacket decodes a classic EOF_Packet body: warning_count(2) +
// status_flags(2) under Protocol41, nothing otherwise.
func ReadEOFPacket(payload []byte, caps capability.Set) (EOFPacket, error) {
	var out EOFPacket
	if !caps.Has(capability.Protocol41) {
		return out, nil
	}
	warnings, pos, err := ReadFixed2(payload, 0)
	if err != nil {
		return EOFPacket{}, err
	}
	status, _, err := ReadFixed2(payload, pos)
	if err != nil {
		return EOFPacket{}, err
	}
	out.WarningCount = warnings
	out.StatusFlags = status
	out.MoreResults = status&StatusMoreResultsExists != 0
	return out, nil
}

// ErrPacket is the parsed body of an ERR_Packet.
type ErrPacket struct {
	Code     uint16
	SQLState string
	Message  string
}

// ReadErrPacket decodes an ERR_Packet body.
func ReadErrPacket(payload []byte, caps capability.Set) (ErrPacket, error) {
	pos := 0
	code, n, err := ReadFixed2(payload, pos)
	if err != nil {
		return ErrPacket{}, err
	}
	pos = n

	var out ErrPacket
	out.Code = code

	if caps.Has(capability.Protocol41) {
		if pos >= len(payload) || payload[pos] != '#' {
			return ErrPacket{}, valueErr("ReadErrPacket", "malformed ERR_Packet: missing SQLSTATE marker")
		}
		pos++
		if pos+5 > len(payload) {
			return ErrPacket{}, ErrIncompleteMessage
		}
		out.SQLState = string(payload[pos : pos+5])
		pos += 5
	}
	out.Message = string(payload[pos:])
	return out, nil
}

// IsEOFPacket reports whether payload looks like an EOF_Packet under the
// DeprecateEOF-off encoding: header 0xfe and a short body (<9 bytes, the
// classic EOF_Packet's warning-count+status-flags size), as opposed to a
// length-encoded column count that might also start with 0xfe for very
// large values.
func IsEOFPacket(payload []byte, caps capability.Set) bool {
	if len(payload) == 0 || payload[0] != HeaderEOF {
		return false
	}
	if caps.Has(capability.DeprecateEOF) {
		return false
	}
	return len(payload) < 9
}
