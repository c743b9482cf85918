// Package gomysql is an asynchronous client for the MySQL and MariaDB
// wire protocol: connect and authenticate, run textual SQL and
// server-prepared statements (single, multi-resultset, and pipelined),
// stream rows, and reuse connections through a health-managed pool.
package gomysql

import (
	"errors"

	"github.com/gomysql/gomysql/internal/diagnostics"
)

// Error is the library's diagnostics-bearing error type: a safe,
// library-generated client message plus the server's raw, untrusted
// text, kept in separate channels so the latter never leaks into a
// formatted message without the caller asking for it.
type Error = diagnostics.Error

// ErrorKind classifies an Error without tying it to a message text.
type ErrorKind = diagnostics.Kind

const (
	KindTransport          = diagnostics.KindTransport
	KindFraming            = diagnostics.KindFraming
	KindProtocolValue      = diagnostics.KindProtocolValue
	KindServer             = diagnostics.KindServer
	KindClientPrecondition = diagnostics.KindClientPrecondition
	KindCancelled          = diagnostics.KindCancelled
)

// AsError extracts the library's *Error from anywhere in err's wrap
// chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// IsFatal reports whether err marks its connection unusable: transport,
// framing, protocol-value, and cancellation errors all require a
// reconnect before the connection can be used again.
func IsFatal(err error) bool {
	de, ok := AsError(err)
	return ok && de.Fatal
}

// ErrConnectionUnusable is returned by operations attempted on a
// connection after a fatal error, before it has been reconnected.
var ErrConnectionUnusable = diagnostics.New(diagnostics.KindClientPrecondition, false,
	"connection is unusable after a fatal error; reconnect first")
