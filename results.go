package gomysql

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// MetadataMode controls how much column metadata is retained per
// resultset: full mode keeps schema/table/column names, minimal mode
// keeps only type, flags, and collation.
type MetadataMode = connstate.MetaMode

const (
	MetadataFull    = connstate.MetaFull
	MetadataMinimal = connstate.MetaMinimal
)

// Field is one column's metadata as reported by the server.
type Field = results.Field

// Resultset is one statement's metadata, rows, and terminator summary.
type Resultset = results.Resultset

// Summary is the OK-packet information terminating a resultset.
type Summary = results.Summary

// ColumnType is the semantic column type derived from the wire type,
// flags, and charset.
type ColumnType = wire.ColumnType

// Temporal value types surfaced in decoded rows.
type (
	Date     = wire.Date
	DateTime = wire.DateTime
	Duration = wire.Duration
)

// Results accumulates every resultset of a query or execute exchange:
// metadata, rows as dynamically typed values, and per-resultset OK
// data. A CALL running two SELECTs yields three resultsets (two data
// resultsets plus the final OK).
type Results struct {
	sink *results.Dynamic
}

// NewResults returns an empty Results container, ready to be passed to
// Connection.Query / Statement.Execute.
func NewResults() *Results {
	return &Results{sink: results.NewDynamic()}
}

// NumResultsets reports how many resultsets the exchange produced.
func (r *Results) NumResultsets() int { return r.sink.NumResultsets() }

// Resultset returns the i-th resultset.
func (r *Results) Resultset(i int) Resultset { return r.sink.Resultsets[i] }

// first returns the sole/first resultset, the common single-statement
// case the convenience accessors below serve.
func (r *Results) first() Resultset {
	if len(r.sink.Resultsets) == 0 {
		return Resultset{}
	}
	return r.sink.Resultsets[0]
}

// Metadata returns the first resultset's column metadata.
func (r *Results) Metadata() []Field { return r.first().Metadata }

// Rows returns the first resultset's rows. Each value is nil,
// int64/uint64, float64, []byte, string, Date, DateTime, or Duration.
func (r *Results) Rows() [][]any { return r.first().Rows }

// AffectedRows returns the first resultset's affected-row count.
func (r *Results) AffectedRows() uint64 { return r.first().Summary.AffectedRows }

// LastInsertID returns the first resultset's last-insert-id.
func (r *Results) LastInsertID() uint64 { return r.first().Summary.LastInsertID }

// Info returns the first resultset's human-readable info string.
func (r *Results) Info() string { return r.first().Summary.Info }

// Warnings returns the first resultset's warning count.
func (r *Results) Warnings() uint16 { return r.first().Summary.WarningCount }

// StaticResults decodes each resultset into a caller-declared row type,
// verifying column/field compatibility instead of surfacing dynamically
// typed values. Construct with one row-shape struct value per expected
// resultset; fields bind to columns by `db:"name"` tag, falling back to
// the field name.
type StaticResults struct {
	sink *results.Static
}

// NewStaticResults declares the expected resultset row shapes.
func NewStaticResults(rowShapes ...any) *StaticResults {
	return &StaticResults{sink: results.NewStatic(rowShapes...)}
}

// NumResultsets reports how many resultsets the exchange produced.
func (s *StaticResults) NumResultsets() int { return s.sink.NumResultsets() }

// Resultset returns the i-th resultset in raw form, for metadata and
// summary access alongside the typed rows.
func (s *StaticResults) Resultset(i int) Resultset { return s.sink.Resultset(i) }

// Rows decodes resultset i into values of its declared row type. The
// error is a client-precondition diagnostics error on shape or type
// mismatch, or when the server did not return resultset i. Surplus
// resultsets are reported by the query or execute call instead.
func (s *StaticResults) Rows(i int) ([]any, error) { return s.sink.Rows(i) }
