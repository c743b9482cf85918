package wire

// PutFixedString appends exactly n bytes of s (truncated or zero-padded to n).
func PutFixedString(buf []byte, s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return append(buf, b...)
}

// ReadFixedString reads exactly n bytes at pos as a string.
func ReadFixedString(buf []byte, pos, n int) (string, int, error) {
	if pos+n > len(buf) {
		return "", pos, ErrIncompleteMessage
	}
	return string(buf[pos : pos+n]), pos + n, nil
}

// PutNullTerminatedString appends s followed by a single 0x00 byte.
// s must not itself contain a NUL byte (checked by callers that accept
// caller-supplied identifiers; not re-validated here).
func PutNullTerminatedString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// ReadNullTerminatedString reads bytes up to (and consuming) the next 0x00.
func ReadNullTerminatedString(buf []byte, pos int) (string, int, error) {
	end := pos
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	if end >= len(buf) {
		return "", pos, ErrIncompleteMessage
	}
	return string(buf[pos:end]), end + 1, nil
}

// PutLengthEncodedString appends a length-encoded-integer byte count
// followed by the raw bytes of s.
func PutLengthEncodedString(buf []byte, s string) []byte {
	buf = PutLengthEncodedInt(buf, uint64(len(s)))
	return append(buf, s...)
}

// ReadLengthEncodedString reads a length-encoded string (length prefix +
// raw bytes) at pos. A null-marker prefix yields isNull=true.
func ReadLengthEncodedString(buf []byte, pos int) (s string, isNull bool, newPos int, err error) {
	n, isNull, pos, err := ReadLengthEncodedInt(buf, pos)
	if err != nil || isNull {
		return "", isNull, pos, err
	}
	if pos+int(n) > len(buf) {
		return "", false, pos, ErrIncompleteMessage
	}
	return string(buf[pos : pos+int(n)]), false, pos + int(n), nil
}

// ReadEOFTerminatedString reads all remaining bytes in buf as a string.
// Used for COM_QUERY payloads and similar EOF-terminated fields.
func ReadEOFTerminatedString(buf []byte, pos int) (string, int) {
	return string(buf[pos:]), len(buf)
}

// ReadLengthEncodedBytes is like ReadLengthEncodedString but returns the raw
// byte slice (a view into buf) rather than copying into a string. Used for
// binary blobs where the caller wants to avoid a conversion-driven copy.
func ReadLengthEncodedBytes(buf []byte, pos int) (b []byte, isNull bool, newPos int, err error) {
	n, isNull, pos, err := ReadLengthEncodedInt(buf, pos)
	if err != nil || isNull {
		return nil, isNull, pos, err
	}
	if pos+int(n) > len(buf) {
		return nil, false, pos, ErrIncompleteMessage
	}
	return buf[pos : pos+int(n)], false, pos + int(n), nil
}
