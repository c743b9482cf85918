package gomysql

import (
	"context"
	"math"

	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/protocol"
	"github.com/gomysql/gomysql/internal/wire"
)

// Statement is a server-side prepared statement, bound to the
// connection that prepared it. Statements do not transfer between
// connections: the server-assigned ID is only meaningful on the
// session that created it.
type Statement struct {
	conn   *Connection
	info   protocol.PreparedStatement
	closed bool
}

// ID returns the server-assigned statement id.
func (s *Statement) ID() uint32 { return s.info.ID }

// NumParams returns how many ? placeholders the statement declares.
func (s *Statement) NumParams() int { return int(s.info.ParamCount) }

// guard validates that the statement may be used through conn.
func (s *Statement) guard(conn *Connection) error {
	if s.closed {
		return diagnostics.New(diagnostics.KindClientPrecondition, false, "statement is closed")
	}
	if s.conn != conn || !conn.st.OwnsStatement(s.info.ID) {
		return diagnostics.Wrap(diagnostics.KindClientPrecondition, false, connstate.ErrForeignStatement,
			"statement does not belong to this connection")
	}
	return nil
}

// Execute runs the statement with the given arguments, collecting every
// resultset through the binary protocol.
func (s *Statement) Execute(ctx context.Context, args ...any) (*Results, error) {
	if err := s.guard(s.conn); err != nil {
		return nil, err
	}
	params, err := bindParams(s.info, args)
	if err != nil {
		return nil, err
	}
	r := NewResults()
	r.sink.MetaMode = s.conn.st.MetaMode
	err = s.conn.run(ctx, "execute", protocol.NewExecute(s.conn.st, s.info.ID, params, r.sink))
	s.conn.dirty = true
	return r, err
}

// ExecuteStatic runs the statement, decoding resultsets through a typed
// StaticResults sink.
func (s *Statement) ExecuteStatic(ctx context.Context, static *StaticResults, args ...any) error {
	if err := s.guard(s.conn); err != nil {
		return err
	}
	params, err := bindParams(s.info, args)
	if err != nil {
		return err
	}
	static.sink.SetMetaMode(s.conn.st.MetaMode)
	err = s.conn.run(ctx, "execute", protocol.NewExecute(s.conn.st, s.info.ID, params, static.sink))
	s.conn.dirty = true
	return err
}

// Close deallocates the statement server-side. COM_STMT_CLOSE has no
// response, so only the write can fail.
func (s *Statement) Close(ctx context.Context) error {
	if err := s.guard(s.conn); err != nil {
		return err
	}
	s.closed = true
	delete(s.conn.stmts, s.info.ID)
	return s.conn.run(ctx, "close_statement", protocol.NewCloseStatement(s.conn.st, s.info.ID))
}

// bindParams converts Go argument values into wire-typed execution
// parameters, checking the count against the statement's declared
// placeholder count.
func bindParams(info protocol.PreparedStatement, args []any) ([]protocol.Param, error) {
	if len(args) != int(info.ParamCount) {
		return nil, diagnostics.New(diagnostics.KindClientPrecondition, false,
			"statement declares %d parameters, got %d arguments", info.ParamCount, len(args))
	}
	params := make([]protocol.Param, len(args))
	for i, arg := range args {
		p, err := bindParam(arg)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.KindClientPrecondition, false, err,
				"binding parameter %d", i)
		}
		params[i] = p
	}
	return params, nil
}

func bindParam(arg any) (protocol.Param, error) {
	switch v := arg.(type) {
	case nil:
		return protocol.Param{WireType: wire.WireTypeNull, Value: nil}, nil
	case bool:
		b := byte(0)
		if v {
			b = 1
		}
		return protocol.Param{WireType: wire.WireTypeTiny, Value: []byte{b}}, nil
	case int:
		return int64Param(int64(v)), nil
	case int8:
		return int64Param(int64(v)), nil
	case int16:
		return int64Param(int64(v)), nil
	case int32:
		return int64Param(int64(v)), nil
	case int64:
		return int64Param(v), nil
	case uint:
		return uint64Param(uint64(v)), nil
	case uint8:
		return uint64Param(uint64(v)), nil
	case uint16:
		return uint64Param(uint64(v)), nil
	case uint32:
		return uint64Param(uint64(v)), nil
	case uint64:
		return uint64Param(v), nil
	case float32:
		return protocol.Param{WireType: wire.WireTypeFloat, Value: wire.PutFloat32(nil, v)}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return protocol.Param{}, diagnostics.New(diagnostics.KindClientPrecondition, false,
				"NaN/Inf cannot be sent as a MySQL double")
		}
		return protocol.Param{WireType: wire.WireTypeDouble, Value: wire.PutFloat64(nil, v)}, nil
	case string:
		return protocol.Param{WireType: wire.WireTypeVarString, Value: wire.PutLengthEncodedString(nil, v)}, nil
	case []byte:
		return protocol.Param{WireType: wire.WireTypeBlob, Value: wire.PutLengthEncodedString(nil, string(v))}, nil
	case Date:
		return protocol.Param{WireType: wire.WireTypeDate, Value: wire.PutBinaryDate(nil, v)}, nil
	case DateTime:
		return protocol.Param{WireType: wire.WireTypeDateTime, Value: wire.PutBinaryDateTime(nil, v)}, nil
	case Duration:
		return protocol.Param{WireType: wire.WireTypeTime, Value: wire.PutBinaryTime(nil, v)}, nil
	default:
		return protocol.Param{}, diagnostics.New(diagnostics.KindClientPrecondition, false,
			"unsupported parameter type %T", arg)
	}
}

func int64Param(v int64) protocol.Param {
	return protocol.Param{WireType: wire.WireTypeLongLong, Value: wire.PutFixed8(nil, uint64(v))}
}

func uint64Param(v uint64) protocol.Param {
	return protocol.Param{WireType: wire.WireTypeLongLong, Unsigned: true, Value: wire.PutFixed8(nil, v)}
}
