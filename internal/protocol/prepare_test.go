package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// prepareOK builds a COM_STMT_PREPARE_OK packet body.
func prepareOK(stmtID uint32, columns, params uint16) []byte {
	b := []byte{0x00}
	b = wire.PutFixed4(b, stmtID)
	b = wire.PutFixed2(b, columns)
	b = wire.PutFixed2(b, params)
	b = wire.PutFixed1(b, 0) // filler
	b = wire.PutFixed2(b, 0) // warnings
	return b
}

func TestPrepareDrainsDefinitions(t *testing.T) {
	st := newTestState()
	p := NewPrepare(st, "SELECT ? + ?")

	inbound := [][]byte{
		fr(prepareOK(5, 1, 2), 1),
		// Two parameter definitions, then one column definition; under
		// DeprecateEOF no terminating EOF packets follow.
		fr(columnDef41("?", wire.WireTypeVarString, 0, 63), 2),
		fr(columnDef41("?", wire.WireTypeVarString, 0, 63), 3),
		fr(columnDef41("? + ?", wire.WireTypeLongLong, 0, 63), 4),
	}
	written, err := drive(t, st, p, inbound)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if written[0][4] != 0x16 {
		t.Fatalf("command byte = 0x%02x, want 0x16", written[0][4])
	}
	if p.Result.ID != 5 || p.Result.ParamCount != 2 || p.Result.ColumnCount != 1 {
		t.Fatalf("unexpected result %+v", p.Result)
	}
	if !st.OwnsStatement(5) {
		t.Fatal("statement id not tracked on the connection")
	}
}

func TestPrepareNoParamsNoColumns(t *testing.T) {
	st := newTestState()
	p := NewPrepare(st, "SET @x = 1")

	_, err := drive(t, st, p, [][]byte{fr(prepareOK(9, 0, 0), 1)})
	if err != nil {
		t.Fatal(err)
	}
	if p.Result.ID != 9 {
		t.Fatalf("id = %d", p.Result.ID)
	}
}

func TestPrepareServerError(t *testing.T) {
	st := newTestState()
	p := NewPrepare(st, "SELECT FROM broken")

	_, err := drive(t, st, p, [][]byte{fr(errPacket(1064, "42000", "syntax error"), 1)})
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindServer || de.Fatal {
		t.Fatalf("expected a recoverable server error, got %v", err)
	}
}

func TestExecuteCommandEncoding(t *testing.T) {
	st := newTestState()
	params := []Param{{
		WireType: wire.WireTypeVarString,
		Value:    wire.PutLengthEncodedString(nil, "it's"),
	}}
	e := NewExecute(st, 1, params, results.NewDynamic())

	cmd := e.buildCommand()
	want := []byte{
		0x17,                   // COM_STMT_EXECUTE
		0x01, 0x00, 0x00, 0x00, // statement id
		0x00,                   // flags
		0x01, 0x00, 0x00, 0x00, // iteration count
		0x00,       // null bitmap
		0x01,       // new-params-bind-flag
		0xfd, 0x00, // (var_string, unsigned=0)
		0x04, 0x69, 0x74, 0x27, 0x73, // "it's"
	}
	if !bytes.Equal(cmd, want) {
		t.Fatalf("command\n got % x\nwant % x", cmd, want)
	}
}

func TestExecuteNullParamSetsBitmap(t *testing.T) {
	st := newTestState()
	params := []Param{
		{WireType: wire.WireTypeNull, Value: nil},
		{WireType: wire.WireTypeLongLong, Unsigned: true, Value: wire.PutFixed8(nil, 7)},
	}
	e := NewExecute(st, 2, params, results.NewDynamic())
	cmd := e.buildCommand()

	// Null bitmap sits after the 10-byte fixed header; parameter 0 is
	// NULL, so bit 0 is set.
	if cmd[10] != 0x01 {
		t.Fatalf("null bitmap = 0x%02x, want 0x01", cmd[10])
	}
	// Unsigned flag on the second parameter's type entry.
	if cmd[14] != wire.WireTypeLongLong || cmd[15] != 0x80 {
		t.Fatalf("param meta = % x", cmd[12:16])
	}
	// Only the non-NULL parameter contributes value bytes.
	if len(cmd) != 16+8 {
		t.Fatalf("command length = %d, want %d", len(cmd), 16+8)
	}
}

func TestExecuteBinaryRowResponse(t *testing.T) {
	st := newTestState()
	sink := results.NewDynamic()
	params := []Param{{WireType: wire.WireTypeVarString, Value: wire.PutLengthEncodedString(nil, "it's")}}
	e := NewExecute(st, 1, params, sink)

	// Binary row: 0x00 header, null bitmap (1 column + 2-bit offset =
	// 1 byte), lenenc value.
	row := []byte{0x00, 0x00}
	row = wire.PutLengthEncodedString(row, "it's")
	term := append([]byte{0xfe}, okBody(0, 0, 0, 0)...)

	inbound := [][]byte{
		fr([]byte{1}, 1),
		fr(columnDef41("?", wire.WireTypeVarString, 0, 63), 2),
		fr(row, 3),
		fr(term, 4),
	}
	if _, err := drive(t, st, e, inbound); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	rows := sink.Resultsets[0].Rows
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	got, ok := rows[0][0].([]byte)
	if !ok || string(got) != "it's" {
		t.Fatalf("row value = %#v", rows[0][0])
	}
}

func TestCloseStatementWritesAndForgets(t *testing.T) {
	st := newTestState()
	st.TrackStatement(3)
	c := NewCloseStatement(st, 3)

	written, err := drive(t, st, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if written[0][4] != 0x19 {
		t.Fatalf("command byte = 0x%02x", written[0][4])
	}
	if st.OwnsStatement(3) {
		t.Fatal("statement id should be forgotten after close")
	}
}
