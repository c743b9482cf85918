package wire

// Builder accumulates a serialized command payload. Small commands (ping,
// quit, reset, close-statement, the common case of execute with few
// parameters) fit entirely inside the embedded backing array, avoiding a
// heap allocation.
type Builder struct {
	backing [64]byte
	buf     []byte
}

// NewBuilder returns a Builder ready for use.
func NewBuilder() *Builder {
	b := &Builder{}
	b.buf = b.backing[:0]
	return b
}

// Bytes returns the accumulated payload.
func (b *Builder) Bytes() []byte { return b.buf }

// Reset empties the builder for reuse, keeping the backing array.
func (b *Builder) Reset() { b.buf = b.buf[:0] }

// Byte appends a single byte.
func (b *Builder) Byte(v byte) *Builder { b.buf = append(b.buf, v); return b }

// Raw appends raw bytes.
func (b *Builder) Raw(p []byte) *Builder { b.buf = append(b.buf, p...); return b }

// Fixed1 appends a 1-byte integer.
func (b *Builder) Fixed1(v uint8) *Builder { b.buf = PutFixed1(b.buf, v); return b }

// Fixed2 appends a 2-byte little-endian integer.
func (b *Builder) Fixed2(v uint16) *Builder { b.buf = PutFixed2(b.buf, v); return b }

// Fixed3 appends a 3-byte little-endian integer.
func (b *Builder) Fixed3(v uint32) *Builder { b.buf = PutFixed3(b.buf, v); return b }

// Fixed4 appends a 4-byte little-endian integer.
func (b *Builder) Fixed4(v uint32) *Builder { b.buf = PutFixed4(b.buf, v); return b }

// Fixed8 appends an 8-byte little-endian integer.
func (b *Builder) Fixed8(v uint64) *Builder { b.buf = PutFixed8(b.buf, v); return b }

// LengthEncodedInt appends a length-encoded integer.
func (b *Builder) LengthEncodedInt(v uint64) *Builder {
	b.buf = PutLengthEncodedInt(b.buf, v)
	return b
}

// NullTerminatedString appends s followed by a NUL byte.
func (b *Builder) NullTerminatedString(s string) *Builder {
	b.buf = PutNullTerminatedString(b.buf, s)
	return b
}

// LengthEncodedString appends a length-encoded string.
func (b *Builder) LengthEncodedString(s string) *Builder {
	b.buf = PutLengthEncodedString(b.buf, s)
	return b
}

// EOFString appends s verbatim with no length prefix or terminator, used
// for COM_QUERY's SQL text.
func (b *Builder) EOFString(s string) *Builder {
	b.buf = append(b.buf, s...)
	return b
}

// Zeros appends n zero bytes.
func (b *Builder) Zeros(n int) *Builder {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, 0)
	}
	return b
}
