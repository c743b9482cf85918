package protocol

import (
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/results"
)

// SetCharacterSet switches the session character set, emitted as
// `SET NAMES <name>` via the Query algorithm and updating the
// connection's current charset on success.
type SetCharacterSet struct {
	*Query
	state   *connstate.State
	charset connstate.Charset
}

// NewSetCharacterSet builds a SetCharacterSet algorithm that switches the
// connection to charset.
func NewSetCharacterSet(state *connstate.State, charset connstate.Charset) *SetCharacterSet {
	sql := "SET NAMES " + quoteStringLiteral(charset.Name)
	return &SetCharacterSet{
		Query:   NewQuery(state, sql, results.NewDynamic()),
		state:   state,
		charset: charset,
	}
}

func (s *SetCharacterSet) Next(res IOResult) (Action, error) {
	action, err := s.Query.Next(res)
	if action.Kind == ActionDone && err == nil {
		c := s.charset
		s.state.Charset = &c
	}
	return action, err
}

// quoteStringLiteral single-quotes s for use in SET NAMES, doubling any
// embedded quote. Character set names never legitimately contain one,
// but a hostile/misconfigured name should not be able to inject SQL.
func quoteStringLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
