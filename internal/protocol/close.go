package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/wire"
)

// CloseStatement deallocates a server-side prepared statement: write
// COM_STMT_CLOSE and stop, since the server never replies.
type CloseStatement struct {
	state  *connstate.State
	stmtID uint32
}

// NewCloseStatement builds a CloseStatement algorithm for stmtID. The
// caller is responsible for checking state.OwnsStatement(stmtID) first.
func NewCloseStatement(state *connstate.State, stmtID uint32) *CloseStatement {
	return &CloseStatement{state: state, stmtID: stmtID}
}

func (c *CloseStatement) Start() (Action, error) {
	c.state.Writer.ResetSeqNum(0)
	buf := wire.PutFixed1(nil, comStmtClose)
	buf = wire.PutFixed4(buf, c.stmtID)
	out := c.state.Writer.WriteMessage(nil, buf)
	c.state.ForgetStatement(c.stmtID)
	return writeAction(out)
}

func (c *CloseStatement) Next(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(res.Err)
	}
	return doneOK()
}
