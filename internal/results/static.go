package results

import (
	"reflect"
	"strings"

	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
)

// Static is the statically-typed resultset sink, parametrized by one Go
// struct type per expected resultset in order.
//
// Go has no variadic compile-time tuple of distinct types without code
// generation, so the sink accepts destination-row-type instances (one
// per expected resultset) at construction and verifies count and shape
// at runtime instead.
type Static struct {
	dynamic  *Dynamic
	rowTypes []reflect.Type
}

// NewStatic returns a Static sink expecting one resultset per element of
// rowTypes, each a struct value (not pointer) whose exported fields carry
// a `db:"column_name"` tag (falling back to the field name, matched
// case-insensitively, when untagged).
func NewStatic(rowTypes ...any) *Static {
	types := make([]reflect.Type, len(rowTypes))
	for i, rt := range rowTypes {
		types[i] = reflect.TypeOf(rt)
	}
	return &Static{dynamic: NewDynamic(), rowTypes: types}
}

// SetMetaMode forwards the metadata retention mode to the underlying
// dynamic sink. Minimal mode strips column names, which also disables
// name-based field binding; position maps then bind nothing.
func (s *Static) SetMetaMode(m connstate.MetaMode) { s.dynamic.MetaMode = m }

// Feed implements Sink by delegating to an embedded Dynamic sink; typed
// decoding happens on demand in Rows, once the exchange has completed.
// The server producing more resultsets than were declared is reported
// when the exchange completes (after the wire is fully drained, so the
// connection stays usable) rather than silently dropping the extras.
func (s *Static) Feed(payload []byte, caps capability.Set, format RowFormat) (bool, error) {
	done, err := s.dynamic.Feed(payload, caps, format)
	if err != nil {
		return done, err
	}
	if done && s.dynamic.NumResultsets() > len(s.rowTypes) {
		return true, diagnostics.New(diagnostics.KindClientPrecondition, false,
			"server returned %d resultsets, %d were declared",
			s.dynamic.NumResultsets(), len(s.rowTypes))
	}
	return done, nil
}

// NumResultsets returns how many resultsets were returned.
func (s *Static) NumResultsets() int { return s.dynamic.NumResultsets() }

// Resultset returns the raw (untyped) resultset at index i, for callers
// that want metadata/summary access alongside typed rows.
func (s *Static) Resultset(i int) Resultset { return s.dynamic.Resultsets[i] }

// Rows decodes resultset i into a freshly allocated slice of the row
// type registered for that index, returning a KindClientPrecondition
// diagnostics.Error if i is out of range for rowTypes or the server did
// not return resultset i. Surplus resultsets are reported by Feed.
func (s *Static) Rows(i int) ([]any, error) {
	if i >= len(s.rowTypes) {
		return nil, diagnostics.New(diagnostics.KindClientPrecondition, false,
			"static sink was not configured for resultset %d", i)
	}
	if i >= len(s.dynamic.Resultsets) {
		return nil, diagnostics.New(diagnostics.KindClientPrecondition, false,
			"resultset %d was never returned by the server", i)
	}
	rt := s.rowTypes[i]
	rs := s.dynamic.Resultsets[i]
	positions, err := positionMap(rt, rs.Metadata)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(rs.Rows))
	for rowIdx, row := range rs.Rows {
		dest := reflect.New(rt).Elem()
		for fieldIdx, colIdx := range positions {
			if colIdx < 0 {
				continue
			}
			v := row[colIdx]
			if v == nil {
				continue
			}
			if err := assignField(dest.Field(fieldIdx), v); err != nil {
				return nil, diagnostics.Wrap(diagnostics.KindClientPrecondition, false, err,
					"resultset %d row %d field %s", i, rowIdx, rt.Field(fieldIdx).Name)
			}
		}
		out[rowIdx] = dest.Interface()
	}
	return out, nil
}

// positionMap builds, for each exported field of rt, the index of the
// server column it binds to (or -1 if unmatched).
func positionMap(rt reflect.Type, fields []Field) ([]int, error) {
	positions := make([]int, rt.NumField())
	for i := range positions {
		sf := rt.Field(i)
		if sf.PkgPath != "" { // unexported
			positions[i] = -1
			continue
		}
		name := sf.Tag.Get("db")
		if name == "" {
			name = sf.Name
		}
		positions[i] = -1
		for colIdx, f := range fields {
			if strings.EqualFold(f.Name, name) {
				positions[i] = colIdx
				break
			}
		}
	}
	return positions, nil
}

func assignField(dest reflect.Value, v any) error {
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dest.Type()) {
		dest.Set(src)
		return nil
	}
	if src.Type().ConvertibleTo(dest.Type()) {
		dest.Set(src.Convert(dest.Type()))
		return nil
	}
	if dest.Kind() == reflect.String {
		if b, ok := v.([]byte); ok {
			dest.SetString(string(b))
			return nil
		}
	}
	return &diagnostics.Error{
		Kind:          diagnostics.KindClientPrecondition,
		ClientMessage: "incompatible column/field type",
	}
}
