package results

import (
	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

type stage int

const (
	stageFirstPacket stage = iota
	stageMetadata
	stageRows
	stageComplete
)

// Resultset is one SELECT/CALL resultset's accumulated state: its
// metadata and the rows decoded so far, plus the OK/EOF summary that
// terminated it.
type Resultset struct {
	Metadata []Field
	Rows     [][]any
	Summary  Summary
}

// Dynamic is the dynamically-typed resultset sink: it accumulates
// metadata, rows, and OK data for every resultset in the exchange,
// including the "more-results" loop for multi-statement calls.
//
// Row storage is a plain Go slice rather than an offset-into-byte-arena
// scheme: Go's garbage collector already gives
// decoded row values (strings, []byte, structs) stable addresses for
// their lifetime, so the arena's only purpose — letting the sink's
// backing storage grow without invalidating previously handed-out views
// — falls out for free.
type Dynamic struct {
	// MetaMode controls how much of each column definition is retained:
	// minimal mode drops the schema/table/column name strings and keeps
	// only type, flags, and collation.
	MetaMode connstate.MetaMode

	stage       stage
	columnCount int
	current     Resultset

	Resultsets []Resultset
}

// NewDynamic returns an empty Dynamic sink, ready to be fed a query or
// execute response.
func NewDynamic() *Dynamic { return &Dynamic{} }

// NumResultsets returns how many resultsets have been completed so far.
func (d *Dynamic) NumResultsets() int { return len(d.Resultsets) }

// Feed implements Sink.
func (d *Dynamic) Feed(payload []byte, caps capability.Set, format RowFormat) (bool, error) {
	if len(payload) == 0 {
		return false, diagnostics.New(diagnostics.KindFraming, true, "empty result packet")
	}

	switch d.stage {
	case stageFirstPacket:
		return d.feedFirstPacket(payload, caps)
	case stageMetadata:
		return d.feedMetadata(payload, caps)
	case stageRows:
		return d.feedRow(payload, caps, format)
	default:
		return true, nil
	}
}

func (d *Dynamic) feedFirstPacket(payload []byte, caps capability.Set) (bool, error) {
	switch payload[0] {
	case wire.HeaderOK:
		ok, err := wire.ReadOKPacket(payload[1:], caps)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing OK packet")
		}
		return d.finishWithOK(okSummary(ok)), nil
	case wire.HeaderErr:
		ep, err := wire.ReadErrPacket(payload[1:], caps)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing ERR packet")
		}
		d.stage = stageComplete
		return true, diagnostics.FromServer(ep.Code, ep.SQLState, ep.Message, false)
	case wire.HeaderLocalInfile:
		d.stage = stageComplete
		return true, diagnostics.New(diagnostics.KindClientPrecondition, false, "local infile requests are not supported")
	default:
		count, _, _, err := wire.ReadLengthEncodedInt(payload, 0)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing column count")
		}
		d.columnCount = int(count)
		d.current = Resultset{}
		d.stage = stageMetadata
		return false, nil
	}
}

func (d *Dynamic) feedMetadata(payload []byte, caps capability.Set) (bool, error) {
	if wire.IsEOFPacket(payload, caps) {
		d.stage = stageRows
		return false, nil
	}
	f, err := parseColumnDefinition(payload)
	if err != nil {
		return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing column definition")
	}
	if d.MetaMode == connstate.MetaMinimal {
		f.Database, f.Table, f.OrgTable, f.Name, f.OrgName = "", "", "", "", ""
	}
	d.current.Metadata = append(d.current.Metadata, f)
	if caps.Has(capability.DeprecateEOF) && len(d.current.Metadata) == d.columnCount {
		d.stage = stageRows
	}
	return false, nil
}

func (d *Dynamic) feedRow(payload []byte, caps capability.Set, format RowFormat) (bool, error) {
	if payload[0] == wire.HeaderErr {
		ep, err := wire.ReadErrPacket(payload[1:], caps)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing ERR packet")
		}
		d.stage = stageComplete
		return true, diagnostics.FromServer(ep.Code, ep.SQLState, ep.Message, false)
	}
	// Under DeprecateEOF the terminator is an OK packet carrying the
	// 0xFE header (so it cannot be confused with a binary row, whose
	// header is 0x00). The length guard rules out a text row whose
	// first column is a lenenc string with an 8-byte length prefix.
	if caps.Has(capability.DeprecateEOF) && payload[0] == wire.HeaderEOF && len(payload) < 0xffffff {
		ok, err := wire.ReadOKPacket(payload[1:], caps)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing resultset terminator")
		}
		return d.finishWithOK(okSummary(ok)), nil
	}
	if wire.IsEOFPacket(payload, caps) {
		eof, err := wire.ReadEOFPacket(payload[1:], caps)
		if err != nil {
			return false, diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing EOF packet")
		}
		return d.finishWithOK(Summary{WarningCount: eof.WarningCount, MoreResults: eof.MoreResults}), nil
	}

	var row []any
	var err error
	if format == Text {
		row, err = decodeTextRow(payload, d.current.Metadata)
	} else {
		row, err = decodeBinaryRow(payload, d.current.Metadata)
	}
	if err != nil {
		return false, diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "decoding row")
	}
	d.current.Rows = append(d.current.Rows, row)
	return false, nil
}

func okSummary(ok wire.OKPacket) Summary {
	return Summary{
		AffectedRows: ok.AffectedRows,
		LastInsertID: ok.LastInsertID,
		WarningCount: ok.WarningCount,
		Info:         ok.Info,
		MoreResults:  ok.MoreResults,
	}
}

func (d *Dynamic) finishWithOK(s Summary) bool {
	d.current.Summary = s
	d.Resultsets = append(d.Resultsets, d.current)
	d.current = Resultset{}
	if s.MoreResults {
		d.stage = stageFirstPacket
		return false
	}
	d.stage = stageComplete
	return true
}
