package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/results"
)

// Pipeline runs a batched exchange: a single write
// of a pre-built multi-request buffer (from PipelineBuilder), followed
// by running each stage's response sub-algorithm in order.
//
// Error policy: the first error encountered becomes FirstError. A fatal
// error (transport, framing, protocol-value) stops consuming the wire
// entirely — every remaining stage is recorded with that same error
// without issuing any further reads. A non-fatal error (a server-side
// ERR_Packet) is recorded only against the stage that produced it, and
// the pipeline keeps reading subsequent stages' responses.
type Pipeline struct {
	state  *connstate.State
	buf    []byte
	stages []PipelineStage

	wroteBuf bool
	wireOK   bool  // cleared once a fatal error stops the wire
	fatalErr error // the fatal error that cleared wireOK
	idx      int
	current  Algorithm

	// Errors holds one entry per stage, nil where that stage succeeded.
	Errors []error
	// FirstError is the first non-nil entry of Errors, or nil.
	FirstError error
}

// NewPipeline builds a Pipeline that writes buf once and then runs each
// of stages' response algorithms in order.
func NewPipeline(state *connstate.State, buf []byte, stages []PipelineStage) *Pipeline {
	return &Pipeline{
		state:  state,
		buf:    buf,
		stages: stages,
		wireOK: true,
		Errors: make([]error, len(stages)),
	}
}

func (p *Pipeline) Start() (Action, error) {
	return writeAction(p.buf)
}

func (p *Pipeline) Next(res IOResult) (Action, error) {
	if !p.wroteBuf {
		p.wroteBuf = true
		if res.Err != nil {
			return p.breakWire(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "writing pipeline request"))
		}
		return p.advance(IOResult{})
	}
	return p.advance(res)
}

// advance drives the active stage's sub-algorithm with res, handling its
// completion (recording the stage's error, updating connection state,
// and moving to the next stage) before returning the action the caller
// should perform next.
func (p *Pipeline) advance(res IOResult) (Action, error) {
	if p.current == nil {
		return p.beginStage()
	}
	action, err := p.current.Next(res)
	if action.Kind != ActionDone {
		return action, err
	}
	p.finishStage(err)
	return p.beginStage()
}

// breakWire records err against every stage without performing any
// further I/O, per the Pipeline fatal-error policy, and finishes.
func (p *Pipeline) breakWire(err error) (Action, error) {
	p.wireOK = false
	for i := range p.Errors {
		p.recordError(i, err)
	}
	return doneOK()
}

// beginStage sets up the next stage's response sub-algorithm (or, for
// stages that expect no reply, resolves it immediately) and returns the
// first action to perform for it.
func (p *Pipeline) beginStage() (Action, error) {
	for p.idx < len(p.stages) {
		st := p.stages[p.idx]

		if !p.wireOK {
			p.recordError(p.idx, p.fatalErr)
			p.idx++
			continue
		}

		switch st.Kind {
		case StageCloseStatement:
			p.recordError(p.idx, nil)
			p.idx++
			continue
		case StagePrepare:
			p.current = &Prepare{state: p.state}
		case StageReset:
			p.current = &Reset{state: p.state}
		case StagePing:
			p.current = &Ping{state: p.state}
		case StageExecute:
			p.current = &sinkPump{state: p.state, sink: st.Sink, format: st.Format}
		case StageSetCharset:
			p.current = &sinkPump{state: p.state, sink: st.Sink, format: results.Text}
		}
		return readAction()
	}
	return doneOK()
}

// finishStage records the just-completed stage's outcome, applies any
// connection-state side effect its success implies, and classifies err
// as fatal (breaking the wire for all remaining stages) or not.
func (p *Pipeline) finishStage(err error) {
	st := p.stages[p.idx]
	p.recordError(p.idx, err)

	if err == nil {
		switch st.Kind {
		case StageSetCharset:
			c := st.Charset
			p.state.Charset = &c
		case StagePrepare:
			if pr, ok := p.current.(*Prepare); ok && st.Prepare != nil {
				*st.Prepare = pr.Result
			}
		}
	} else if diagnostics.IsFatal(err) {
		p.wireOK = false
		p.fatalErr = err
	}

	p.current = nil
	p.idx++
}

func (p *Pipeline) recordError(idx int, err error) {
	p.Errors[idx] = err
	if err != nil && p.FirstError == nil {
		p.FirstError = err
	}
}
