package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// StageKind tags one pipeline stage's command kind.
type StageKind int

const (
	StageExecute StageKind = iota
	StagePrepare
	StageCloseStatement
	StageReset
	StagePing
	StageSetCharset
)

// PipelineStage describes one request already serialized into the
// pipeline's combined buffer, plus whatever state its response handling
// needs.
type PipelineStage struct {
	Kind    StageKind
	Sink    results.Sink      // Execute only
	Format  results.RowFormat // Execute only
	Charset connstate.Charset // StageSetCharset only

	// Prepare fills in Result once its response has been fully read.
	Prepare *PreparedStatement
}

// PipelineBuilder accumulates a multi-request buffer whose command
// sequence numbers are bumped stage over stage, the way a single
// request's frames are.
type PipelineBuilder struct {
	state  *connstate.State
	buf    []byte
	stages []PipelineStage
}

// NewPipelineBuilder returns a builder that will serialize stages against
// state's sequence-number counters, starting from 0.
func NewPipelineBuilder(state *connstate.State) *PipelineBuilder {
	state.Writer.ResetSeqNum(0)
	return &PipelineBuilder{state: state}
}

// Query adds a COM_QUERY stage.
func (b *PipelineBuilder) Query(sql string, sink results.Sink) *PipelineBuilder {
	buf := wire.PutFixed1(nil, comQuery)
	buf = append(buf, sql...)
	b.write(buf)
	b.stages = append(b.stages, PipelineStage{Kind: StageExecute, Sink: sink, Format: results.Text})
	return b
}

// Execute adds a COM_STMT_EXECUTE stage.
func (b *PipelineBuilder) Execute(stmtID uint32, params []Param, sink results.Sink) *PipelineBuilder {
	e := &Execute{sinkPump: sinkPump{state: b.state}, stmtID: stmtID, params: params}
	b.write(e.buildCommand())
	b.stages = append(b.stages, PipelineStage{Kind: StageExecute, Sink: sink, Format: results.Binary})
	return b
}

// Prepare adds a COM_STMT_PREPARE stage.
func (b *PipelineBuilder) Prepare(sql string) *PipelineBuilder {
	buf := wire.PutFixed1(nil, comStmtPrepare)
	buf = append(buf, sql...)
	b.write(buf)
	b.stages = append(b.stages, PipelineStage{Kind: StagePrepare, Prepare: &PreparedStatement{}})
	return b
}

// CloseStatement adds a COM_STMT_CLOSE stage. No response packet follows
// on the wire, so its PipelineStage carries no response-handling state.
func (b *PipelineBuilder) CloseStatement(stmtID uint32) *PipelineBuilder {
	buf := wire.PutFixed1(nil, comStmtClose)
	buf = wire.PutFixed4(buf, stmtID)
	b.write(buf)
	b.stages = append(b.stages, PipelineStage{Kind: StageCloseStatement})
	return b
}

// Reset adds a COM_RESET_CONNECTION stage.
func (b *PipelineBuilder) Reset() *PipelineBuilder {
	b.write(wire.PutFixed1(nil, comResetConn))
	b.stages = append(b.stages, PipelineStage{Kind: StageReset})
	return b
}

// Ping adds a COM_PING stage.
func (b *PipelineBuilder) Ping() *PipelineBuilder {
	b.write(wire.PutFixed1(nil, comPing))
	b.stages = append(b.stages, PipelineStage{Kind: StagePing})
	return b
}

// SetCharset adds a `SET NAMES <charset>` stage, issued as COM_QUERY.
func (b *PipelineBuilder) SetCharset(charset connstate.Charset) *PipelineBuilder {
	sql := "SET NAMES " + quoteStringLiteral(charset.Name)
	buf := wire.PutFixed1(nil, comQuery)
	buf = append(buf, sql...)
	b.write(buf)
	b.stages = append(b.stages, PipelineStage{Kind: StageSetCharset, Charset: charset, Sink: results.NewDynamic()})
	return b
}

func (b *PipelineBuilder) write(payload []byte) {
	b.buf = b.state.Writer.WriteMessage(b.buf, payload)
}

// Build returns the combined write buffer and the ordered stage
// descriptors, ready to hand to NewPipeline.
func (b *PipelineBuilder) Build() ([]byte, []PipelineStage) {
	return b.buf, b.stages
}
