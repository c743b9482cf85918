package frame

// WriteMessage splits payload into one or more frames, appending the result
// (headers + payload chunks) to dst, and returns the extended buffer along
// with the next expected sequence number for this direction
// ((seq + frames) mod 256).
//
// A payload whose length is an exact non-zero multiple of MaxFrameSize gets
// a trailing zero-length frame, and reassembly always stops at the first
// frame shorter than MaxFrameSize.
func WriteMessage(dst []byte, payload []byte, seq uint8) (out []byte, nextSeq uint8) {
	remaining := payload
	for {
		chunk := remaining
		if len(chunk) > MaxFrameSize {
			chunk = chunk[:MaxFrameSize]
		}
		var hdr [HeaderSize]byte
		EncodeHeader(hdr[:], len(chunk), seq)
		dst = append(dst, hdr[:]...)
		dst = append(dst, chunk...)
		seq++
		remaining = remaining[len(chunk):]
		if len(chunk) < MaxFrameSize {
			break
		}
		if len(remaining) == 0 {
			// Exact multiple: emit the trailing zero-length frame and stop.
			var zhdr [HeaderSize]byte
			EncodeHeader(zhdr[:], 0, seq)
			dst = append(dst, zhdr[:]...)
			seq++
			break
		}
	}
	return dst, seq
}

// Writer is the stateful counterpart to Reader: it tracks the next
// sequence number to use for outbound messages on a connection direction,
// the way Reader tracks the next expected sequence number for inbound
// ones.
type Writer struct {
	seq uint8
}

// NewWriter returns a Writer starting at sequence number 0.
func NewWriter() *Writer { return &Writer{} }

// SeqNum returns the next sequence number this writer will use.
func (w *Writer) SeqNum() uint8 { return w.seq }

// ResetSeqNum resets the sequence counter, as done at the start of each
// new top-level exchange.
func (w *Writer) ResetSeqNum(n uint8) { w.seq = n }

// WriteMessage appends payload to dst as one or more frames using this
// writer's current sequence number, advancing it for next time.
func (w *Writer) WriteMessage(dst []byte, payload []byte) []byte {
	out, next := WriteMessage(dst, payload, w.seq)
	w.seq = next
	return out
}
