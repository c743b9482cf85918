package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/results"
)

// FetchRows continues an established resultset exchange: given an
// already-established resultset (metadata already read by Query or
// Execute), read up to MaxPackets packets or until the current
// resultset's terminator arrives, whichever comes first.
type FetchRows struct {
	state      *connstate.State
	sink       results.Sink
	format     results.RowFormat
	maxPackets int

	read int
	done bool
}

// NewFetchRows builds a FetchRows algorithm continuing to feed sink
// (already mid-resultset) up to maxPackets more packets.
func NewFetchRows(state *connstate.State, sink results.Sink, format results.RowFormat, maxPackets int) *FetchRows {
	return &FetchRows{state: state, sink: sink, format: format, maxPackets: maxPackets}
}

// Exhausted reports whether MaxPackets was reached without the
// resultset terminating: the caller should issue another FetchRows to
// continue.
func (f *FetchRows) Exhausted() bool { return f.read >= f.maxPackets && !f.done }

func (f *FetchRows) Start() (Action, error) {
	if f.maxPackets <= 0 {
		return doneOK()
	}
	return readAction()
}

func (f *FetchRows) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "fetching rows"))
	}
	if f.done || f.read >= f.maxPackets {
		return doneOK()
	}

	ok, err := f.state.Reader.TryReadMessage()
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading row packet"))
	}
	if !ok {
		return readAction()
	}

	f.read++
	done, err := f.sink.Feed(f.state.Reader.View(), f.state.Capabilities, f.format)
	if err != nil {
		return doneErr(err)
	}
	f.done = done
	if done || f.read >= f.maxPackets {
		return doneOK()
	}
	return readAction()
}
