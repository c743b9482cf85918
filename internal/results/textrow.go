package results

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gomysql/gomysql/internal/wire"
)

// decodeTextRow decodes one Text Resultset row: each field is a
// length-encoded string, or the null marker, in field order. Values are converted per-type using the disambiguators fixed by
// the column metadata.
func decodeTextRow(payload []byte, fields []Field) ([]any, error) {
	values := make([]any, len(fields))
	pos := 0
	for i, f := range fields {
		raw, isNull, newPos, err := wire.ReadLengthEncodedBytes(payload, pos)
		if err != nil {
			return nil, err
		}
		pos = newPos
		if isNull {
			values[i] = nil
			continue
		}
		v, err := parseTextValue(f, raw)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	if pos != len(payload) {
		return nil, &wire.ProtocolValueError{Where: "decodeTextRow", Msg: "trailing bytes after row"}
	}
	return values, nil
}

func parseTextValue(f Field, raw []byte) (any, error) {
	switch {
	case f.Type.IsNumeric():
		return parseTextNumeric(f, raw)
	case f.Type.IsTemporal():
		return parseTextTemporal(f.Type, raw)
	default:
		// Strings, blobs, enum/set/json/geometry/bit: surfaced as raw bytes;
		// the caller decides whether to treat it as text or binary data.
		return append([]byte(nil), raw...), nil
	}
}

func parseTextNumeric(f Field, raw []byte) (any, error) {
	s := string(raw)
	switch f.Type {
	case wire.ColumnFloat, wire.ColumnDouble:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &wire.ProtocolValueError{Where: "parseTextNumeric", Msg: "invalid float literal " + s}
		}
		if isNaNOrInf(v) {
			return nil, &wire.ProtocolValueError{Where: "parseTextNumeric", Msg: "NaN/Inf is not a legal MySQL float value"}
		}
		return v, nil
	case wire.ColumnDecimal:
		// Decimal is surfaced as its textual form: arbitrary precision, no
		// float/int truncation applied by this layer.
		return s, nil
	default:
		if f.Unsigned() {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, &wire.ProtocolValueError{Where: "parseTextNumeric", Msg: "invalid unsigned integer literal " + s}
			}
			return v, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &wire.ProtocolValueError{Where: "parseTextNumeric", Msg: "invalid integer literal " + s}
		}
		return v, nil
	}
}

func isNaNOrInf(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

func parseTextTemporal(t wire.ColumnType, raw []byte) (any, error) {
	s := string(raw)
	switch t {
	case wire.ColumnDate:
		return parseTextDate(s)
	case wire.ColumnDateTime, wire.ColumnTimestamp:
		return parseTextDateTime(s)
	case wire.ColumnTime:
		return parseTextDuration(s)
	default:
		return s, nil
	}
}

func parseTextDate(s string) (wire.Date, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%04d-%02d-%02d", &y, &m, &d); err != nil {
		return wire.Date{}, &wire.ProtocolValueError{Where: "parseTextDate", Msg: "malformed date " + s}
	}
	// Zero and invalid calendar dates ("0000-00-00", "2024-02-30") are
	// representable; Valid() is a query the caller makes, not a parse
	// check, matching the binary-protocol decoder.
	return wire.Date{Year: uint16(y), Month: uint8(m), Day: uint8(d)}, nil
}

func parseTextDateTime(s string) (wire.DateTime, error) {
	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		datePart, timePart = s[:idx], s[idx+1:]
	}
	date, err := parseTextDate(datePart)
	if err != nil {
		return wire.DateTime{}, err
	}
	dt := wire.DateTime{Date: date}
	if timePart == "" {
		return dt, nil
	}
	var h, mi, sec, micro int
	secPart := timePart
	if idx := strings.IndexByte(timePart, '.'); idx >= 0 {
		secPart = timePart[:idx]
		frac := timePart[idx+1:]
		for len(frac) < 6 {
			frac += "0"
		}
		micro, _ = strconv.Atoi(frac[:6])
	}
	if _, err := fmt.Sscanf(secPart, "%02d:%02d:%02d", &h, &mi, &sec); err != nil {
		return wire.DateTime{}, &wire.ProtocolValueError{Where: "parseTextDateTime", Msg: "malformed time-of-day " + s}
	}
	// Only the time-of-day components are bounded during parsing; the
	// date portion may be zero or an invalid calendar date and is
	// reported through Valid() instead.
	if h > 23 || mi > 59 || sec > 59 {
		return wire.DateTime{}, &wire.ProtocolValueError{Where: "parseTextDateTime", Msg: "out-of-range time-of-day " + s}
	}
	dt.Hour, dt.Minute, dt.Second, dt.Microsecond = uint8(h), uint8(mi), uint8(sec), uint32(micro)
	return dt, nil
}

func parseTextDuration(s string) (wire.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var h, mi, sec, micro int
	secPart := s
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		secPart = s[:idx]
		frac := s[idx+1:]
		for len(frac) < 6 {
			frac += "0"
		}
		micro, _ = strconv.Atoi(frac[:6])
	}
	if _, err := fmt.Sscanf(secPart, "%d:%02d:%02d", &h, &mi, &sec); err != nil {
		return wire.Duration{}, &wire.ProtocolValueError{Where: "parseTextDuration", Msg: "malformed time value " + s}
	}
	d := wire.Duration{
		Negative: neg,
		Days:     uint32(h / 24),
		Hours:    uint8(h % 24),
		Minutes:  uint8(mi),
		Seconds:  uint8(sec),
		Microsecond: uint32(micro),
	}
	if !d.Valid() {
		return wire.Duration{}, &wire.ProtocolValueError{Where: "parseTextDuration", Msg: "out-of-range time value " + s}
	}
	return d, nil
}
