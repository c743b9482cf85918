package gomysql

import (
	"bytes"
	"testing"

	"github.com/gomysql/gomysql/internal/protocol"
	"github.com/gomysql/gomysql/internal/wire"
)

func TestBindParamWireTypes(t *testing.T) {
	cases := []struct {
		name     string
		arg      any
		wantType byte
		unsigned bool
		want     []byte
	}{
		{"nil", nil, wire.WireTypeNull, false, nil},
		{"string", "it's", wire.WireTypeVarString, false, []byte{0x04, 0x69, 0x74, 0x27, 0x73}},
		{"int", int(-1), wire.WireTypeLongLong, false, wire.PutFixed8(nil, 0xffffffffffffffff)},
		{"uint64", uint64(7), wire.WireTypeLongLong, true, wire.PutFixed8(nil, 7)},
		{"bool true", true, wire.WireTypeTiny, false, []byte{1}},
		{"float64", 1.5, wire.WireTypeDouble, false, wire.PutFloat64(nil, 1.5)},
		{"bytes", []byte{0xab}, wire.WireTypeBlob, false, []byte{0x01, 0xab}},
		{"date", Date{Year: 2024, Month: 6, Day: 1}, wire.WireTypeDate, false,
			wire.PutBinaryDate(nil, Date{Year: 2024, Month: 6, Day: 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := bindParam(tc.arg)
			if err != nil {
				t.Fatal(err)
			}
			if p.WireType != tc.wantType || p.Unsigned != tc.unsigned {
				t.Fatalf("meta = (0x%02x, %v)", p.WireType, p.Unsigned)
			}
			if !bytes.Equal(p.Value, tc.want) {
				t.Fatalf("value\n got % x\nwant % x", p.Value, tc.want)
			}
		})
	}
}

func TestBindParamRejectsNaN(t *testing.T) {
	nan := 0.0
	if _, err := bindParam(nan / nan); err == nil {
		t.Fatal("expected NaN to be rejected")
	}
}

func TestBindParamRejectsUnknownType(t *testing.T) {
	if _, err := bindParam(struct{ X int }{1}); err == nil {
		t.Fatal("expected an unsupported-type error")
	}
}

func TestBindParamsCountMismatch(t *testing.T) {
	info := protocol.PreparedStatement{ID: 1, ParamCount: 2}
	if _, err := bindParams(info, []any{1}); err == nil {
		t.Fatal("expected a parameter-count error")
	}
}

func TestStatementForeignConnectionRejected(t *testing.T) {
	owner := NewConnection(ConnectParams{Host: "a", Username: "u"})
	owner.connected = true
	owner.st.TrackStatement(3)
	stmt := &Statement{conn: owner, info: protocol.PreparedStatement{ID: 3}}

	other := NewConnection(ConnectParams{Host: "b", Username: "u"})
	if err := stmt.guard(other); err == nil {
		t.Fatal("a statement must not be usable through another connection")
	}
	if err := stmt.guard(owner); err != nil {
		t.Fatalf("owner use should pass the guard: %v", err)
	}
}

func TestStatementClosedRejected(t *testing.T) {
	owner := NewConnection(ConnectParams{Host: "a", Username: "u"})
	owner.st.TrackStatement(3)
	stmt := &Statement{conn: owner, info: protocol.PreparedStatement{ID: 3}, closed: true}
	if err := stmt.guard(owner); err == nil {
		t.Fatal("a closed statement must be rejected")
	}
}
