package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/frame"
	"github.com/gomysql/gomysql/internal/protocol"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// scriptStream is an in-memory Stream: reads drain a pre-loaded server
// response buffer, writes accumulate.
type scriptStream struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool

	// readChunk bounds how many bytes a single ReadSome may return, to
	// exercise partial-read reassembly. 0 means unbounded.
	readChunk int
}

func (s *scriptStream) Connect(context.Context) error { return nil }

func (s *scriptStream) ReadSome(_ context.Context, buf []byte) (int, error) {
	if s.in.Len() == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	limit := len(buf)
	if s.readChunk > 0 && s.readChunk < limit {
		limit = s.readChunk
	}
	return s.in.Read(buf[:limit])
}

func (s *scriptStream) WriteSome(_ context.Context, buf []byte) (int, error) {
	return s.out.Write(buf)
}

func (s *scriptStream) TLSHandshake(context.Context) error { return nil }
func (s *scriptStream) TLSShutdown(context.Context) error  { return nil }
func (s *scriptStream) Close() error                       { s.closed = true; return nil }

func newState() *connstate.State {
	st := connstate.New(4096)
	st.Capabilities = capability.Mandatory
	return st
}

func okResponse(seq uint8) []byte {
	body := []byte{0x00}
	body = wire.PutLengthEncodedInt(body, 0)
	body = wire.PutLengthEncodedInt(body, 0)
	body = wire.PutFixed2(body, 0)
	body = wire.PutFixed2(body, 0)
	out, _ := frame.WriteMessage(nil, body, seq)
	return out
}

func TestRunPing(t *testing.T) {
	st := newState()
	stream := &scriptStream{}
	stream.in.Write(okResponse(1))

	if err := Run(context.Background(), st, stream, protocol.NewPing(st)); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	want, _ := frame.WriteMessage(nil, []byte{0x0e}, 0)
	if !bytes.Equal(stream.out.Bytes(), want) {
		t.Fatalf("wrote % x, want % x", stream.out.Bytes(), want)
	}
}

func TestRunReassemblesPartialReads(t *testing.T) {
	st := newState()
	stream := &scriptStream{readChunk: 3}
	stream.in.Write(okResponse(1))

	if err := Run(context.Background(), st, stream, protocol.NewPing(st)); err != nil {
		t.Fatalf("ping over 3-byte reads failed: %v", err)
	}
}

func TestRunDoesNotBlockOnBufferedMessages(t *testing.T) {
	// Both pipeline stage responses arrive in a single read; the second
	// stage must be served from the reassembly buffer, because the
	// script stream errors on any read past its content.
	st := newState()
	b := protocol.NewPipelineBuilder(st)
	b.Ping()
	b.Ping()
	buf, stages := b.Build()

	stream := &scriptStream{}
	stream.in.Write(okResponse(1))
	stream.in.Write(okResponse(1))

	p := protocol.NewPipeline(st, buf, stages)
	if err := Run(context.Background(), st, stream, p); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if p.Errors[0] != nil || p.Errors[1] != nil {
		t.Fatalf("stage errors: %v", p.Errors)
	}
}

func TestRunTransportErrorIsFatal(t *testing.T) {
	st := newState()
	stream := &scriptStream{} // empty: first read fails

	err := Run(context.Background(), st, stream, protocol.NewPing(st))
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindTransport || !de.Fatal {
		t.Fatalf("expected a fatal transport error, got %v", err)
	}
}

func TestRunCancellation(t *testing.T) {
	st := newState()
	stream := &scriptStream{}
	stream.in.Write(okResponse(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, st, stream, protocol.NewPing(st))
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindCancelled || !de.Fatal {
		t.Fatalf("expected fatal cancellation, got %v", err)
	}
}

func TestRunQuitClosesStream(t *testing.T) {
	st := newState()
	stream := &scriptStream{}

	if err := Run(context.Background(), st, stream, protocol.NewQuit(st, false)); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	if !stream.closed {
		t.Fatal("quit must close the transport")
	}
	if stream.out.Len() == 0 || stream.out.Bytes()[4] != 0x01 {
		t.Fatal("COM_QUIT was not written")
	}
}

func TestRunDrivesQueryEndToEnd(t *testing.T) {
	st := newState()
	sink := results.NewDynamic()

	colDef := wire.PutLengthEncodedString(nil, "def")
	for i := 0; i < 5; i++ {
		colDef = wire.PutLengthEncodedString(colDef, "c")
	}
	colDef = wire.PutLengthEncodedInt(colDef, 0x0c)
	colDef = wire.PutFixed2(colDef, 63)
	colDef = wire.PutFixed4(colDef, 20)
	colDef = wire.PutFixed1(colDef, wire.WireTypeLongLong)
	colDef = wire.PutFixed2(colDef, 0)
	colDef = wire.PutFixed1(colDef, 0)
	colDef = wire.PutFixed2(colDef, 0)

	term := []byte{0xfe}
	term = wire.PutLengthEncodedInt(term, 0)
	term = wire.PutLengthEncodedInt(term, 0)
	term = wire.PutFixed2(term, 0)
	term = wire.PutFixed2(term, 0)

	stream := &scriptStream{}
	for i, payload := range [][]byte{
		{1},
		colDef,
		wire.PutLengthEncodedString(nil, "42"),
		term,
	} {
		framed, _ := frame.WriteMessage(nil, payload, uint8(i+1))
		stream.in.Write(framed)
	}

	if err := Run(context.Background(), st, stream, protocol.NewQuery(st, "SELECT 42", sink)); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if sink.NumResultsets() != 1 || sink.Resultsets[0].Rows[0][0] != int64(42) {
		t.Fatalf("unexpected results: %+v", sink.Resultsets)
	}
}
