// Package connstate holds the per-connection state that protocol
// algorithms and the execution processor read and mutate: negotiated
// capabilities, server flavor, the frame reader/writer pair, the active
// character set, and the set of statement IDs this connection currently
// owns.
package connstate

import (
	"fmt"

	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/frame"
)

// Flavor distinguishes MySQL from MariaDB. It is derived from the server
// version string during the handshake and affects only error-code
// translation.
type Flavor int

const (
	FlavorMySQL Flavor = iota
	FlavorMariaDB
)

func (f Flavor) String() string {
	if f == FlavorMariaDB {
		return "mariadb"
	}
	return "mysql"
}

// DetectFlavor inspects a server version string (as sent in the initial
// handshake greeting) and reports which flavor produced it. MariaDB
// embeds "MariaDB" in the version string; everything else is treated as
// MySQL.
func DetectFlavor(serverVersion string) Flavor {
	for i := 0; i+7 <= len(serverVersion); i++ {
		if serverVersion[i:i+7] == "MariaDB" {
			return FlavorMariaDB
		}
	}
	return FlavorMySQL
}

// Charset describes a concrete character set/collation pairing.
// BytesPerChar is the charset's maximum character width in bytes; the
// SQL formatter walks string literals byte by byte and does not read it.
type Charset struct {
	Name         string
	CollationID  uint16
	BytesPerChar int
}

// MetaMode controls how much column metadata the result sinks retain.
// The server always sends full column definitions; minimal mode drops
// the name strings client-side.
type MetaMode int

const (
	MetaFull MetaMode = iota
	MetaMinimal
)

// State is the mutable per-connection state shared by the protocol
// algorithms (internal/protocol) and the execution processor
// (internal/results). It carries no I/O logic of its own.
type State struct {
	Capabilities capability.Set
	Flavor       Flavor

	Reader *frame.Reader
	Writer *frame.Writer

	BackslashEscapes bool
	Charset          *Charset // nil until the handshake completes
	MetaMode         MetaMode

	statements map[uint32]struct{}
}

// New returns a freshly reset connection state whose frame reader starts
// with the given buffer capacity.
func New(readBufCap int) *State {
	return &State{
		Reader:     frame.NewReader(readBufCap),
		Writer:     frame.NewWriter(),
		statements: make(map[uint32]struct{}),
	}
}

// Reset clears negotiated state as if the connection had just been
// opened, without discarding the frame buffers (used before running the
// handshake on a newly connected stream).
func (s *State) Reset() {
	s.Capabilities = 0
	s.BackslashEscapes = false
	s.Charset = nil
	s.MetaMode = MetaFull
	s.ForgetAllStatements()
	s.Reader.Discard()
	s.Writer.ResetSeqNum(0)
}

// TrackStatement records that this connection now owns a server-assigned
// prepared statement ID, returned by a successful COM_STMT_PREPARE.
func (s *State) TrackStatement(id uint32) {
	s.statements[id] = struct{}{}
}

// ForgetStatement removes a statement ID after COM_STMT_CLOSE.
func (s *State) ForgetStatement(id uint32) {
	delete(s.statements, id)
}

// ForgetAllStatements drops every tracked statement ID, used after
// COM_RESET_CONNECTION invalidates all of this connection's prepared
// statements server-side.
func (s *State) ForgetAllStatements() {
	for id := range s.statements {
		delete(s.statements, id)
	}
}

// OwnsStatement reports whether this connection currently owns the given
// server-assigned statement ID. Used to reject Execute/Close calls
// against a statement prepared on a different connection; statement IDs
// never transfer between sessions.
func (s *State) OwnsStatement(id uint32) bool {
	_, ok := s.statements[id]
	return ok
}

// ErrForeignStatement is returned when a caller attempts to execute or
// close a prepared statement this connection did not prepare.
var ErrForeignStatement = fmt.Errorf("connstate: statement does not belong to this connection")
