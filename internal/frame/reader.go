package frame

// Reader reassembles inbound frames into complete messages, tracking two
// backing slices: pending
// (bytes read from the socket but not yet consumed into a message) and
// message (the bytes of the most recently completed message, doubling as
// the "reserved" region — it remains valid until the next message is
// produced, since a fresh message build
// starts from a cleared slice rather than overwriting the previous one's
// backing array in place).
//
// The reader performs no I/O itself: callers obtain a writable slice via
// FreeSpace, fill it externally (a socket read performed by the engine
// runner), and report how many bytes were produced via Produced. This
// keeps the frame layer sans-I/O, consistent with the algorithm layer
// above it.
type Reader struct {
	pending []byte
	message []byte

	seq       uint8 // next expected sequence number for this direction
	inMessage bool  // true while mid-reassembly of a multi-frame message
	firstSeq  uint8 // sequence number of the first frame of the in-progress message
}

// NewReader returns a Reader with an initial backing buffer of the given
// capacity (grown on demand).
func NewReader(initialCap int) *Reader {
	if initialCap < HeaderSize {
		initialCap = 4096
	}
	return &Reader{pending: make([]byte, 0, initialCap)}
}

// SeqNum returns the next expected sequence number for this direction.
func (r *Reader) SeqNum() uint8 { return r.seq }

// ResetSeqNum resets the sequence number, as done at the start of each new
// top-level exchange.
func (r *Reader) ResetSeqNum(n uint8) { r.seq = n }

// FirstSeqNum returns the sequence number the most recently reassembled
// message's first frame carried.
func (r *Reader) FirstSeqNum() uint8 { return r.firstSeq }

// Discard drops all buffered bytes and any half-reassembled message,
// keeping the backing storage. Used when the underlying transport is
// replaced, so bytes from the old connection cannot leak into the new
// exchange.
func (r *Reader) Discard() {
	r.pending = r.pending[:0]
	r.message = r.message[:0]
	r.inMessage = false
	r.seq = 0
}

// View returns the most recently completed message's payload, with frame
// headers stripped. Valid until the next call to TryReadMessage produces a
// new message.
func (r *Reader) View() []byte { return r.message }

// FreeSpace returns a writable slice with at least n bytes of capacity,
// growing (and compacting) the backing buffer if necessary. The caller
// performs an external read into the returned slice, then calls Produced
// with however many bytes were actually written.
func (r *Reader) FreeSpace(n int) []byte {
	if cap(r.pending)-len(r.pending) < n {
		grown := make([]byte, len(r.pending), maxInt(cap(r.pending)*2, len(r.pending)+n))
		copy(grown, r.pending)
		r.pending = grown
	}
	return r.pending[len(r.pending):cap(r.pending)]
}

// Produced records that n bytes were written into the slice returned by the
// most recent FreeSpace call.
func (r *Reader) Produced(n int) {
	r.pending = r.pending[:len(r.pending)+n]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// HasCompleteMessage reports, without consuming anything, whether the
// pending region already holds at least one complete message (or a
// framing error TryReadMessage would surface). Runners use it to avoid
// blocking on the transport when a previous read delivered several
// messages at once.
func (r *Reader) HasCompleteMessage() bool {
	pos := 0
	for {
		if len(r.pending)-pos < HeaderSize {
			return false
		}
		hdr, err := DecodeHeader(r.pending[pos:])
		if err != nil || hdr.PayloadLen > MaxFrameSize {
			return true
		}
		if len(r.pending)-pos < HeaderSize+hdr.PayloadLen {
			return false
		}
		if hdr.PayloadLen < MaxFrameSize {
			return true
		}
		pos += HeaderSize + hdr.PayloadLen
	}
}

// TryReadMessage attempts to reassemble one complete message from the
// pending region without performing any I/O. ok is false when more input is
// needed (call FreeSpace/Produced and retry); err is non-nil only for a
// fatal framing error (sequence mismatch, impossible header length),
// which is non-recoverable at connection scope.
func (r *Reader) TryReadMessage() (ok bool, err error) {
	pos := 0
	for {
		if len(r.pending)-pos < HeaderSize {
			r.pending = r.pending[pos:]
			return false, nil
		}
		hdr, herr := DecodeHeader(r.pending[pos:])
		if herr != nil {
			return false, herr
		}
		if hdr.PayloadLen > MaxFrameSize {
			return false, &Error{Msg: "impossible frame payload length"}
		}
		if len(r.pending)-pos < HeaderSize+hdr.PayloadLen {
			r.pending = r.pending[pos:]
			return false, nil
		}
		if !r.inMessage {
			r.firstSeq = hdr.SeqNum
			r.inMessage = true
			r.message = r.message[:0]
		} else if hdr.SeqNum != r.seq {
			return false, &Error{Msg: "sequence number mismatch"}
		}
		r.seq = hdr.SeqNum + 1

		payloadStart := pos + HeaderSize
		payload := r.pending[payloadStart : payloadStart+hdr.PayloadLen]
		r.message = append(r.message, payload...)
		pos = payloadStart + hdr.PayloadLen

		if hdr.PayloadLen < MaxFrameSize {
			r.inMessage = false
			r.pending = r.pending[pos:]
			return true, nil
		}
		// Exactly MaxFrameSize: a continuation frame must follow (possibly
		// zero-length). Loop to look for it in the remaining pending bytes.
	}
}
