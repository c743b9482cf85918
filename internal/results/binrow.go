package results

import "github.com/gomysql/gomysql/internal/wire"

// binaryNullBitmapOffset is the bit offset binary rows apply before the
// first column; stmt_execute parameter bitmaps use offset 0, binary rows
// use 2.
const binaryNullBitmapOffset = 2

// decodeBinaryRow decodes one Binary Resultset Row: a null bitmap (with
// the binary-row 2-bit offset) followed by one fixed/length-prefixed
// value per non-null field, typed by the field's wire type.
func decodeBinaryRow(payload []byte, fields []Field) ([]any, error) {
	if len(payload) == 0 || payload[0] != 0x00 {
		return nil, &wire.ProtocolValueError{Where: "decodeBinaryRow", Msg: "missing binary row packet header"}
	}
	bitmapLen := (len(fields) + binaryNullBitmapOffset + 7) / 8
	if 1+bitmapLen > len(payload) {
		return nil, wire.ErrIncompleteMessage
	}
	bitmap := payload[1 : 1+bitmapLen]
	pos := 1 + bitmapLen

	values := make([]any, len(fields))
	for i, f := range fields {
		bitIdx := i + binaryNullBitmapOffset
		if bitmap[bitIdx/8]&(1<<uint(bitIdx%8)) != 0 {
			values[i] = nil
			continue
		}
		v, newPos, err := decodeBinaryValue(f, payload, pos)
		if err != nil {
			return nil, err
		}
		pos = newPos
		values[i] = v
	}
	if pos != len(payload) {
		return nil, &wire.ProtocolValueError{Where: "decodeBinaryRow", Msg: "trailing bytes after row"}
	}
	return values, nil
}

func decodeBinaryValue(f Field, buf []byte, pos int) (any, int, error) {
	switch f.WireType {
	case wire.WireTypeTiny:
		v, n, err := wire.ReadFixed1(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		if f.Unsigned() {
			return uint64(v), n, nil
		}
		return int64(int8(v)), n, nil
	case wire.WireTypeShort, wire.WireTypeYear:
		v, n, err := wire.ReadFixed2(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		if f.Unsigned() || f.WireType == wire.WireTypeYear {
			return uint64(v), n, nil
		}
		return int64(int16(v)), n, nil
	case wire.WireTypeInt24, wire.WireTypeLong:
		v, n, err := wire.ReadFixed4(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		if f.Unsigned() {
			return uint64(v), n, nil
		}
		return int64(int32(v)), n, nil
	case wire.WireTypeLongLong:
		v, n, err := wire.ReadFixed8(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		if f.Unsigned() {
			return v, n, nil
		}
		return int64(v), n, nil
	case wire.WireTypeFloat:
		v, n, err := wire.ReadFloat32(buf, pos)
		return float64(v), n, err
	case wire.WireTypeDouble:
		return wire.ReadFloat64(buf, pos)
	case wire.WireTypeDate:
		d, n, err := wire.ReadBinaryDate(buf, pos)
		return d, n, err
	case wire.WireTypeDateTime, wire.WireTypeTimestamp:
		dt, n, err := wire.ReadBinaryDateTime(buf, pos)
		return dt, n, err
	case wire.WireTypeTime:
		d, n, err := wire.ReadBinaryTime(buf, pos)
		return d, n, err
	default:
		// Decimal, strings, blobs, bit, enum/set/json/geometry: all
		// length-encoded on the wire.
		b, _, n, err := wire.ReadLengthEncodedBytes(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		return append([]byte(nil), b...), n, nil
	}
}
