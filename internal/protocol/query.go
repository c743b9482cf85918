package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/results"
	"github.com/gomysql/gomysql/internal/wire"
)

// Query runs a text-protocol statement: writes COM_QUERY with
// the sequence number reset to 0, then feeds the response into a results
// sink through to completion.
type Query struct {
	sinkPump
	sql string
}

// NewQuery builds a Query algorithm that will execute sql and feed the
// response into sink.
func NewQuery(state *connstate.State, sql string, sink results.Sink) *Query {
	return &Query{sinkPump: sinkPump{state: state, sink: sink, format: results.Text}, sql: sql}
}

func (q *Query) Start() (Action, error) {
	q.state.Reader.ResetSeqNum(0)
	q.state.Writer.ResetSeqNum(0)
	buf := wire.PutFixed1(nil, comQuery)
	buf = append(buf, q.sql...)
	out := q.state.Writer.WriteMessage(nil, buf)
	return writeAction(out)
}
