// Package results implements the execution processor:
// the sink that consumes column-definition and row packets produced by
// the protocol algorithms and turns them into resultsets.
package results

import (
	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/wire"
)

// RowFormat distinguishes the text protocol (used by Query) from the
// binary protocol (used by Execute), since row encoding differs between
// the two.
type RowFormat int

const (
	Text RowFormat = iota
	Binary
)

// Field is one column's metadata, as read from a column-definition
// packet.
type Field struct {
	Database     string
	Table        string
	OrgTable     string
	Name         string
	OrgName      string
	CollationID  uint16
	ColumnLength uint32
	Type         wire.ColumnType
	WireType     byte
	Flags        uint16
	Decimals     uint8
}

// Unsigned reports whether the column carries the UNSIGNED flag.
func (f Field) Unsigned() bool { return f.Flags&wire.FlagUnsigned != 0 }

// Nullable reports whether the column may hold NULL.
func (f Field) Nullable() bool { return f.Flags&wire.FlagNotNull == 0 }

// Summary is the OK-packet information terminating one resultset or the
// whole exchange.
type Summary struct {
	AffectedRows uint64
	LastInsertID uint64
	WarningCount uint16
	Info         string
	MoreResults  bool
}

// Sink is fed the messages of one query/execute exchange, one at a time,
// in wire order. Feed reports done=true once the sink has
// reached a terminal state for the whole exchange (no further packets
// expected) — the resultset state machine itself lives inside the
// concrete implementations (Dynamic, Static), which share the
// {reading-first-packet -> reading-metadata -> reading-rows -> complete}
// machine plus the more-results loop.
type Sink interface {
	Feed(payload []byte, caps capability.Set, format RowFormat) (done bool, err error)
}
