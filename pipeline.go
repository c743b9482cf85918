package gomysql

import (
	"context"

	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/protocol"
)

// Pipeline batches several requests into one write. The server answers
// each in order; a server-side error in one stage does not stop the
// later stages, while a fatal (connection-level) error fails every
// remaining stage without touching the wire again.
//
// Build stages fluently, then call Run once:
//
//	pl := conn.NewPipeline()
//	r1 := pl.Query("SET time_zone = '+00:00'")
//	prep := pl.Prepare("SELECT ?")
//	pl.Ping()
//	err := pl.Run(ctx)
//
// A Pipeline is single-use; create a new one for each batch.
type Pipeline struct {
	conn    *Connection
	builder *protocol.PipelineBuilder
	results []*Results
	stmts   []*PipelinePrepare
	ran     bool

	errs     []error
	firstErr error
	buildErr error
}

// NewPipeline starts building a request pipeline on this connection. No
// other operation may run on the connection until the pipeline's Run
// completes.
func (c *Connection) NewPipeline() *Pipeline {
	return &Pipeline{conn: c, builder: protocol.NewPipelineBuilder(c.st)}
}

// PipelinePrepare is the pending handle a Prepare stage fills in when
// the pipeline runs.
type PipelinePrepare struct {
	conn *Connection
	ps   *protocol.PreparedStatement
	idx  int
	p    *Pipeline
}

// Statement materializes the prepared statement, or returns the stage's
// error.
func (pp *PipelinePrepare) Statement() (*Statement, error) {
	if !pp.p.ran {
		return nil, diagnostics.New(diagnostics.KindClientPrecondition, false, "pipeline has not run")
	}
	if err := pp.p.errs[pp.idx]; err != nil {
		return nil, err
	}
	s := &Statement{conn: pp.conn, info: *pp.ps}
	pp.conn.stmts[pp.ps.ID] = s
	return s, nil
}

// Query adds a text-protocol query stage. The returned Results is
// populated once Run completes.
func (p *Pipeline) Query(sql string) *Results {
	r := NewResults()
	p.builder.Query(sql, r.sink)
	p.results = append(p.results, r)
	return r
}

// Execute adds an execute stage for an already-prepared statement. The
// returned Results is populated once Run completes.
func (p *Pipeline) Execute(stmt *Statement, args ...any) *Results {
	r := NewResults()
	if err := stmt.guard(p.conn); err != nil {
		p.recordBuildErr(err)
		return r
	}
	params, err := bindParams(stmt.info, args)
	if err != nil {
		p.recordBuildErr(err)
		return r
	}
	p.builder.Execute(stmt.info.ID, params, r.sink)
	p.results = append(p.results, r)
	return r
}

// Prepare adds a prepare stage; read the statement off the returned
// handle after Run.
func (p *Pipeline) Prepare(sql string) *PipelinePrepare {
	p.builder.Prepare(sql)
	_, stages := p.builder.Build()
	pp := &PipelinePrepare{conn: p.conn, ps: stages[len(stages)-1].Prepare, idx: len(stages) - 1, p: p}
	p.stmts = append(p.stmts, pp)
	return pp
}

// CloseStatement adds a close-statement stage. The server sends no
// response for it.
func (p *Pipeline) CloseStatement(stmt *Statement) *Pipeline {
	if err := stmt.guard(p.conn); err != nil {
		p.recordBuildErr(err)
		return p
	}
	stmt.closed = true
	delete(p.conn.stmts, stmt.info.ID)
	p.conn.st.ForgetStatement(stmt.info.ID)
	p.builder.CloseStatement(stmt.info.ID)
	return p
}

// Reset adds a session-reset stage.
func (p *Pipeline) Reset() *Pipeline {
	p.builder.Reset()
	return p
}

// Ping adds a ping stage.
func (p *Pipeline) Ping() *Pipeline {
	p.builder.Ping()
	return p
}

// SetCharacterSet adds a SET NAMES stage; the connection's current
// charset switches when the stage succeeds.
func (p *Pipeline) SetCharacterSet(cs Charset) *Pipeline {
	p.builder.SetCharset(cs)
	return p
}

func (p *Pipeline) recordBuildErr(err error) {
	if p.buildErr == nil {
		p.buildErr = err
	}
}

// Run writes every stage in a single buffer and reads each stage's
// response in order. The returned error is the first stage error (or
// build error); per-stage outcomes remain available via Errors.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.ran {
		return diagnostics.New(diagnostics.KindClientPrecondition, false, "pipeline already ran")
	}
	if p.buildErr != nil {
		return p.buildErr
	}
	buf, stages := p.builder.Build()
	if len(stages) == 0 {
		p.ran = true
		return nil
	}
	alg := protocol.NewPipeline(p.conn.st, buf, stages)
	runErr := p.conn.run(ctx, "pipeline", alg)
	p.conn.dirty = true
	p.ran = true
	p.errs = alg.Errors
	p.firstErr = alg.FirstError
	// A fatal stage error (transport, framing, protocol value) broke
	// the wire even though the pipeline algorithm itself completed.
	if diagnostics.IsFatal(p.firstErr) {
		p.conn.broken = true
	}
	if runErr != nil {
		return runErr
	}
	return p.firstErr
}

// Errors returns one entry per stage, nil where that stage succeeded.
// Valid after Run.
func (p *Pipeline) Errors() []error { return p.errs }
