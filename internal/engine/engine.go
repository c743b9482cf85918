// Package engine drives a sans-I/O protocol algorithm against a byte
// stream: it alternates between asking the algorithm what
// to do next and performing that I/O, so the algorithm itself never
// touches a socket.
package engine

import (
	"context"

	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/protocol"
)

// Stream is the abstract transport the engine drives: a connected
// byte stream with optional TLS layering. Implementations live in
// internal/stream; the engine does not mandate a specific transport.
//
// All methods honor ctx cancellation and deadlines. Cancellation of an
// in-flight read or write leaves the stream in an undefined protocol
// position, which is why the runner reports it as fatal.
type Stream interface {
	Connect(ctx context.Context) error
	ReadSome(ctx context.Context, buf []byte) (int, error)
	WriteSome(ctx context.Context, buf []byte) (int, error)
	TLSHandshake(ctx context.Context) error
	TLSShutdown(ctx context.Context) error
	Close() error
}

// Algorithm is what the runner drives: Start yields the first action,
// Next consumes each I/O outcome and yields the following one. Every
// algorithm in internal/protocol satisfies this.
type Algorithm interface {
	Start() (protocol.Action, error)
	Next(res protocol.IOResult) (protocol.Action, error)
}

// Run drives alg to completion against stream, reading inbound bytes
// into st's frame reader. It returns the algorithm's final error, or a
// KindCancelled diagnostics error if ctx was cancelled mid-operation
// (always fatal: the connection's wire position is undefined).
//
// A Done action produced with no prior I/O still passes through one
// ctx check, so completion is never reported entirely from the caller's
// own stack without at least one suspension-equivalent point.
func Run(ctx context.Context, st *connstate.State, stream Stream, alg Algorithm) error {
	action, err := alg.Start()
	for {
		if cerr := ctx.Err(); cerr != nil {
			return diagnostics.Wrap(diagnostics.KindCancelled, true, cerr, "operation cancelled")
		}
		if action.Kind == protocol.ActionDone {
			return err
		}

		var res protocol.IOResult
		switch action.Kind {
		case protocol.ActionConnect:
			res.Err = stream.Connect(ctx)

		case protocol.ActionRead:
			// A previous read may have delivered several messages at
			// once; only touch the transport when the reassembly buffer
			// has no complete message left.
			if st.Reader.HasCompleteMessage() {
				res = protocol.IOResult{}
				break
			}
			buf := st.Reader.FreeSpace(4096)
			n, rerr := stream.ReadSome(ctx, buf)
			st.Reader.Produced(n)
			res = protocol.IOResult{N: n, Err: rerr}

		case protocol.ActionWrite:
			res = writeAll(ctx, stream, action.WriteBuf)

		case protocol.ActionTLSHandshake:
			res.Err = stream.TLSHandshake(ctx)

		case protocol.ActionTLSShutdown:
			res.Err = stream.TLSShutdown(ctx)

		case protocol.ActionClose:
			res.Err = stream.Close()
		}

		if res.Err != nil && ctx.Err() != nil {
			// An I/O error caused by our own cancellation surfaces as
			// cancellation, not as a transport failure.
			return diagnostics.Wrap(diagnostics.KindCancelled, true, res.Err, "operation cancelled")
		}
		action, err = alg.Next(res)
	}
}

// writeAll performs as many WriteSome calls as it takes to transmit buf,
// mirroring the short-write loop every stream-level writer needs.
func writeAll(ctx context.Context, stream Stream, buf []byte) protocol.IOResult {
	total := 0
	for total < len(buf) {
		n, err := stream.WriteSome(ctx, buf[total:])
		total += n
		if err != nil {
			return protocol.IOResult{N: total, Err: err}
		}
	}
	return protocol.IOResult{N: total}
}
