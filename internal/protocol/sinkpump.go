package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/results"
)

// sinkPump drives the read/feed loop shared by every algorithm whose
// response is a resultset exchange fed to a results.Sink (Query,
// Execute, and the Pipeline stages built from either): read one
// message, hand it to the sink, and keep reading until the sink reports
// it has reached a terminal state.
type sinkPump struct {
	state  *connstate.State
	sink   results.Sink
	format results.RowFormat
}

func (p *sinkPump) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "reading resultset response"))
	}
	ok, err := p.state.Reader.TryReadMessage()
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading resultset response"))
	}
	if !ok {
		return readAction()
	}
	done, err := p.sink.Feed(p.state.Reader.View(), p.state.Capabilities, p.format)
	if err != nil {
		return doneErr(err)
	}
	if done {
		return doneOK()
	}
	return readAction()
}
