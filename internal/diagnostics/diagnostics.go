// Package diagnostics implements the library's two-channel error
// object: a safe, library-generated client message alongside
// the server's raw, untrusted text, so the latter never silently becomes
// part of a formatted error without the caller opting in.
package diagnostics

import "fmt"

// Kind classifies an error without tying it to a specific message.
type Kind int

const (
	// KindTransport: anything the stream reported. Always fatal.
	KindTransport Kind = iota
	// KindFraming: sequence mismatch, extra bytes, incomplete message,
	// invalid length-encoded-integer prefix. Always fatal.
	KindFraming
	// KindProtocolValue: a semantically impossible value (NaN/Inf where
	// forbidden, an out-of-range temporal component, an unknown column
	// type, a bad auth plugin name). Always fatal.
	KindProtocolValue
	// KindServer: the server's own error code/SQLSTATE/message.
	// Recoverable, except when raised during the handshake.
	KindServer
	// KindClientPrecondition: a client-side precondition failure (static
	// sink metadata mismatch, resultset-count mismatch, a malformed SQL
	// format argument, a mandatory capability the server lacks).
	// Recoverable, except when raised during the handshake.
	KindClientPrecondition
	// KindCancelled: cancellation or timeout from the runtime. Always
	// fatal to the operation it interrupted.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFraming:
		return "framing"
	case KindProtocolValue:
		return "protocol_value"
	case KindServer:
		return "server"
	case KindClientPrecondition:
		return "client_precondition"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the library's error type: a safe client-generated message plus
// an optional, untrusted server message. Server() is a raw accessor so a
// caller wanting it in a log line or a formatted error must ask for it
// explicitly, rather than have it fall out of Error() implicitly.
type Error struct {
	Kind          Kind
	ClientMessage string
	ServerMessage string
	ServerCode    uint16
	SQLState      string
	Fatal         bool
	cause         error
}

func (e *Error) Error() string {
	if e.ClientMessage == "" {
		return fmt.Sprintf("gomysql: %s error", e.Kind)
	}
	return "gomysql: " + e.ClientMessage
}

func (e *Error) Unwrap() error { return e.cause }

// Server returns the untrusted server-provided message, separated out so
// that embedding it in a log or a re-thrown error is an explicit choice.
func (e *Error) Server() string { return e.ServerMessage }

// New builds a client-message-only diagnostics error of the given kind.
func New(kind Kind, fatal bool, format string, args ...any) *Error {
	return &Error{Kind: kind, Fatal: fatal, ClientMessage: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind wrapping a lower-level cause (a
// *net.OpError, a context error, etc).
func Wrap(kind Kind, fatal bool, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Fatal: fatal, ClientMessage: fmt.Sprintf(format, args...), cause: cause}
}

// FromServer builds a KindServer diagnostics error carrying the server's
// own error code, SQLSTATE, and message (from an ERR_Packet).
func FromServer(code uint16, sqlState, message string, fatal bool) *Error {
	return &Error{
		Kind:          KindServer,
		ServerCode:    code,
		SQLState:      sqlState,
		ServerMessage: message,
		ClientMessage: "server reported an error",
		Fatal:         fatal,
	}
}

// IsFatal reports whether err (if a *Error) marks the connection unusable.
func IsFatal(err error) bool {
	var de *Error
	if e, ok := err.(*Error); ok {
		de = e
	} else {
		return false
	}
	return de.Fatal
}
