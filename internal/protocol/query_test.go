package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

func TestQuerySingleRow(t *testing.T) {
	st := newTestState()
	sink := results.NewDynamic()
	q := NewQuery(st, "SELECT 42", sink)

	// Terminator under DeprecateEOF: 0xFE-headed OK with the short body.
	term := append([]byte{0xfe}, okBody(0, 0, 0, 0)...)
	inbound := [][]byte{
		fr([]byte{1}, 1), // column count
		fr(columnDef41("42", wire.WireTypeLongLong, wire.FlagNotNull, 63), 2),
		fr(textRow("42"), 3),
		fr(term, 4),
	}
	written, err := drive(t, st, q, inbound)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(written) != 1 {
		t.Fatalf("expected one command write, got %d", len(written))
	}
	// COM_QUERY with seq reset to 0 and EOF-terminated SQL text.
	cmd := written[0]
	if cmd[3] != 0 {
		t.Fatalf("command frame seq = %d, want 0", cmd[3])
	}
	if cmd[4] != 0x03 || !bytes.Equal(cmd[5:], []byte("SELECT 42")) {
		t.Fatalf("unexpected command payload % x", cmd[4:])
	}

	if sink.NumResultsets() != 1 {
		t.Fatalf("resultsets = %d, want 1", sink.NumResultsets())
	}
	rs := sink.Resultsets[0]
	if len(rs.Metadata) != 1 || rs.Metadata[0].Type != wire.ColumnBigInt {
		t.Fatalf("unexpected metadata %+v", rs.Metadata)
	}
	if len(rs.Rows) != 1 || rs.Rows[0][0] != int64(42) {
		t.Fatalf("unexpected rows %+v", rs.Rows)
	}
	if rs.Summary.AffectedRows != 0 {
		t.Fatalf("affected rows = %d, want 0", rs.Summary.AffectedRows)
	}
}

func TestQueryOKOnly(t *testing.T) {
	st := newTestState()
	sink := results.NewDynamic()
	q := NewQuery(st, "DELETE FROM t", sink)

	ok := []byte{0x00}
	ok = append(ok, okBody(3, 0, 0, 0)...)
	_, err := drive(t, st, q, [][]byte{fr(ok, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if sink.NumResultsets() != 1 {
		t.Fatalf("resultsets = %d, want 1", sink.NumResultsets())
	}
	if sink.Resultsets[0].Summary.AffectedRows != 3 {
		t.Fatalf("affected = %d, want 3", sink.Resultsets[0].Summary.AffectedRows)
	}
}

func TestQueryServerError(t *testing.T) {
	st := newTestState()
	q := NewQuery(st, "SELECT * FROM missing", results.NewDynamic())

	_, err := drive(t, st, q, [][]byte{fr(errPacket(1146, "42S02", "Table 'missing' doesn't exist"), 1)})
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindServer {
		t.Fatalf("expected a server error, got %v", err)
	}
	if de.Fatal {
		t.Fatal("a plain SQL error must stay recoverable")
	}
	if de.ServerCode != 1146 {
		t.Fatalf("code = %d", de.ServerCode)
	}
}

func TestQueryLocalInfileUnsupported(t *testing.T) {
	st := newTestState()
	q := NewQuery(st, "LOAD DATA LOCAL INFILE 'x' INTO TABLE t", results.NewDynamic())

	infile := append([]byte{0xfb}, "x"...)
	_, err := drive(t, st, q, [][]byte{fr(infile, 1)})
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindClientPrecondition {
		t.Fatalf("expected local-infile to be reported unsupported, got %v", err)
	}
}

func TestSetCharacterSetUpdatesState(t *testing.T) {
	st := newTestState()
	cs := connstate.Charset{Name: "utf8mb4", CollationID: 45, BytesPerChar: 4}
	alg := NewSetCharacterSet(st, cs)

	ok := []byte{0x00}
	ok = append(ok, okBody(0, 0, 0, 0)...)
	written, err := drive(t, st, alg, [][]byte{fr(ok, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(written[0], []byte("SET NAMES 'utf8mb4'")) {
		t.Fatalf("unexpected SQL: %q", written[0][5:])
	}
	if st.Charset == nil || st.Charset.Name != "utf8mb4" {
		t.Fatalf("charset not updated: %+v", st.Charset)
	}
}

func TestFetchRowsStopsAtPacketBudget(t *testing.T) {
	st := newTestState()
	sink := results.NewDynamic()

	// Establish the resultset: column count + metadata via Query, rows
	// left unread by ending the script after the metadata.
	q := NewQuery(st, "SELECT v FROM seq", sink)
	action, _ := q.Start()
	if action.Kind != ActionWrite {
		t.Fatal("expected the command write first")
	}
	feedChunks(t, st, q, [][]byte{
		fr([]byte{1}, 1),
		fr(columnDef41("v", wire.WireTypeLongLong, 0, 63), 2),
	})

	f := NewFetchRows(st, sink, results.Text, 2)
	_, err := drive(t, st, f, [][]byte{
		fr(textRow("1"), 3),
		fr(textRow("2"), 4),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !f.Exhausted() {
		t.Fatal("fetch should report exhaustion at the packet budget")
	}

	term := append([]byte{0xfe}, okBody(0, 0, 0, 0)...)
	f2 := NewFetchRows(st, sink, results.Text, 10)
	if _, err := drive(t, st, f2, [][]byte{fr(textRow("3"), 5), fr(term, 6)}); err != nil {
		t.Fatal(err)
	}
	if f2.Exhausted() {
		t.Fatal("fetch ended by the terminator must not report exhaustion")
	}
	if got := len(sink.Resultsets[0].Rows); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
}

// feedChunks pushes scripted inbound chunks through an algorithm that is
// already mid-exchange, without requiring it to finish.
func feedChunks(t *testing.T, st *connstate.State, alg algorithm, chunks [][]byte) {
	t.Helper()
	for _, raw := range chunks {
		space := st.Reader.FreeSpace(len(raw))
		copy(space, raw)
		st.Reader.Produced(len(raw))
		if _, err := alg.Next(IOResult{N: len(raw)}); err != nil {
			t.Fatalf("feeding chunk: %v", err)
		}
	}
}
