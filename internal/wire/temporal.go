package wire

import "fmt"

// Date represents MYSQL_TYPE_DATE (and the date portion of DATETIME /
// TIMESTAMP). Zero-valued components are representable but make the value
// non-valid.
type Date struct {
	Year  uint16 // 0-9999
	Month uint8  // 0-12 (0 = unset)
	Day   uint8  // 0-31 (0 = unset)
}

var daysInMonth = [...]uint8{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeap(y uint16) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// Valid reports whether d is a real calendar date: all components non-zero,
// year <= 9999, month in 1-12, day within that month's length.
func (d Date) Valid() bool {
	if d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return false
	}
	if d.Year > 9999 || d.Month > 12 {
		return false
	}
	maxDay := daysInMonth[d.Month]
	if d.Month == 2 && isLeap(d.Year) {
		maxDay = 29
	}
	return d.Day <= maxDay
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateTime represents MYSQL_TYPE_DATETIME / MYSQL_TYPE_TIMESTAMP.
type DateTime struct {
	Date
	Hour        uint8 // 0-23
	Minute      uint8 // 0-59
	Second      uint8 // 0-59
	Microsecond uint32 // 0-999999
}

// Valid reports whether the date portion is valid and the time-of-day
// components are within their bounded ranges.
func (dt DateTime) Valid() bool {
	if !dt.Date.Valid() {
		return false
	}
	return dt.Hour <= 23 && dt.Minute <= 59 && dt.Second <= 59 && dt.Microsecond <= 999999
}

func (dt DateTime) String() string {
	return fmt.Sprintf("%s %02d:%02d:%02d.%06d", dt.Date, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
}

// Duration represents MYSQL_TYPE_TIME: a signed duration with a day count.
type Duration struct {
	Negative    bool
	Days        uint32 // <= 34 when freshly parsed off the wire
	Hours       uint8  // 0-23
	Minutes     uint8  // 0-59
	Seconds     uint8  // 0-59
	Microsecond uint32 // 0-999999
}

// Valid reports whether the wire-level bounds hold.
func (t Duration) Valid() bool {
	return t.Days <= 34 && t.Hours <= 23 && t.Minutes <= 59 && t.Seconds <= 59 && t.Microsecond <= 999999
}

// Microseconds returns the total duration in microseconds (negative if t.Negative).
func (t Duration) Microseconds() int64 {
	total := int64(t.Days)*24*3600 + int64(t.Hours)*3600 + int64(t.Minutes)*60 + int64(t.Seconds)
	total = total*1_000_000 + int64(t.Microsecond)
	if t.Negative {
		total = -total
	}
	return total
}

// putDateBody appends the 4-byte date wire format used inside DATETIME/TIMESTAMP
// and the standalone DATE length-prefixed field.
func putDateBody(buf []byte, d Date) []byte {
	buf = PutFixed2(buf, d.Year)
	buf = append(buf, d.Month, d.Day)
	return buf
}

// readDateBody reads the 4-byte date body (no length prefix) at pos.
func readDateBody(buf []byte, pos int) (Date, int, error) {
	if pos+4 > len(buf) {
		return Date{}, pos, ErrIncompleteMessage
	}
	year, pos, err := ReadFixed2(buf, pos)
	if err != nil {
		return Date{}, pos, err
	}
	month := buf[pos]
	day := buf[pos+1]
	return Date{Year: year, Month: month, Day: day}, pos + 2, nil
}

// PutBinaryDate appends a length-prefixed binary-protocol DATE value:
// length byte (4) + date body, or a single zero-length byte when
// all components are zero.
func PutBinaryDate(buf []byte, d Date) []byte {
	if d.Year == 0 && d.Month == 0 && d.Day == 0 {
		return append(buf, 0)
	}
	buf = append(buf, 4)
	return putDateBody(buf, d)
}

// ReadBinaryDate reads a length-prefixed binary-protocol DATE value.
func ReadBinaryDate(buf []byte, pos int) (Date, int, error) {
	n, pos, err := ReadFixed1(buf, pos)
	if err != nil {
		return Date{}, pos, err
	}
	if n == 0 {
		return Date{}, pos, nil
	}
	if n != 4 {
		return Date{}, pos, valueErr("ReadBinaryDate", "unexpected date length prefix")
	}
	return readDateBody(buf, pos)
}

// PutBinaryDateTime appends a length-prefixed binary-protocol DATETIME/
// TIMESTAMP value. The length prefix selects which fields are present:
// 0 (all-zero), 4 (date only), 7 (+ time), 11 (+ microseconds).
func PutBinaryDateTime(buf []byte, dt DateTime) []byte {
	hasTime := dt.Hour != 0 || dt.Minute != 0 || dt.Second != 0
	hasMicros := dt.Microsecond != 0
	if dt.Year == 0 && dt.Month == 0 && dt.Day == 0 && !hasTime && !hasMicros {
		return append(buf, 0)
	}
	switch {
	case hasMicros:
		buf = append(buf, 11)
		buf = putDateBody(buf, dt.Date)
		buf = append(buf, dt.Hour, dt.Minute, dt.Second)
		buf = PutFixed4(buf, dt.Microsecond)
	case hasTime:
		buf = append(buf, 7)
		buf = putDateBody(buf, dt.Date)
		buf = append(buf, dt.Hour, dt.Minute, dt.Second)
	default:
		buf = append(buf, 4)
		buf = putDateBody(buf, dt.Date)
	}
	return buf
}

// ReadBinaryDateTime reads a length-prefixed binary-protocol DATETIME value.
func ReadBinaryDateTime(buf []byte, pos int) (DateTime, int, error) {
	n, pos, err := ReadFixed1(buf, pos)
	if err != nil {
		return DateTime{}, pos, err
	}
	var dt DateTime
	switch n {
	case 0:
		return dt, pos, nil
	case 4, 7, 11:
		dt.Date, pos, err = readDateBody(buf, pos)
		if err != nil {
			return dt, pos, err
		}
		if n == 4 {
			return dt, pos, nil
		}
		if pos+3 > len(buf) {
			return dt, pos, ErrIncompleteMessage
		}
		dt.Hour, dt.Minute, dt.Second = buf[pos], buf[pos+1], buf[pos+2]
		pos += 3
		if n == 7 {
			return dt, pos, nil
		}
		dt.Microsecond, pos, err = ReadFixed4(buf, pos)
		return dt, pos, err
	default:
		return dt, pos, valueErr("ReadBinaryDateTime", "unexpected datetime length prefix")
	}
}

// PutBinaryTime appends a length-prefixed binary-protocol TIME value. The
// length prefix selects the present fields: 0 (zero duration), 8 (no
// microseconds), 12 (+ microseconds).
func PutBinaryTime(buf []byte, t Duration) []byte {
	if t.Days == 0 && t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0 && t.Microsecond == 0 {
		return append(buf, 0)
	}
	neg := uint8(0)
	if t.Negative {
		neg = 1
	}
	if t.Microsecond != 0 {
		buf = append(buf, 12, neg)
		buf = PutFixed4(buf, t.Days)
		buf = append(buf, t.Hours, t.Minutes, t.Seconds)
		buf = PutFixed4(buf, t.Microsecond)
	} else {
		buf = append(buf, 8, neg)
		buf = PutFixed4(buf, t.Days)
		buf = append(buf, t.Hours, t.Minutes, t.Seconds)
	}
	return buf
}

// ReadBinaryTime reads a length-prefixed binary-protocol TIME value.
func ReadBinaryTime(buf []byte, pos int) (Duration, int, error) {
	n, pos, err := ReadFixed1(buf, pos)
	if err != nil {
		return Duration{}, pos, err
	}
	var t Duration
	if n == 0 {
		return t, pos, nil
	}
	if n != 8 && n != 12 {
		return t, pos, valueErr("ReadBinaryTime", "unexpected time length prefix")
	}
	if pos+1 > len(buf) {
		return t, pos, ErrIncompleteMessage
	}
	t.Negative = buf[pos] != 0
	pos++
	t.Days, pos, err = ReadFixed4(buf, pos)
	if err != nil {
		return t, pos, err
	}
	if pos+3 > len(buf) {
		return t, pos, ErrIncompleteMessage
	}
	t.Hours, t.Minutes, t.Seconds = buf[pos], buf[pos+1], buf[pos+2]
	pos += 3
	if n == 8 {
		return t, pos, nil
	}
	t.Microsecond, pos, err = ReadFixed4(buf, pos)
	return t, pos, err
}
