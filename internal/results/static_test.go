package results

import (
	"errors"
	"testing"

	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

type userRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func TestStaticDecodesTaggedFields(t *testing.T) {
	s := NewStatic(userRow{})

	feedAll(t, s, Text,
		[]byte{2},
		colDef("id", wire.WireTypeLongLong, wire.FlagNotNull, 63),
		colDef("name", wire.WireTypeVarString, 0, 45),
		textRowPayload("7", "ada"),
		terminator(0, 0),
	)

	rows, err := s.Rows(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	got := rows[0].(userRow)
	if got.ID != 7 || got.Name != "ada" {
		t.Fatalf("row = %+v", got)
	}
}

func TestStaticColumnOrderIndependent(t *testing.T) {
	s := NewStatic(userRow{})

	// Server returns the columns in the opposite order; the position
	// map still binds them by name.
	feedAll(t, s, Text,
		[]byte{2},
		colDef("name", wire.WireTypeVarString, 0, 45),
		colDef("id", wire.WireTypeLongLong, 0, 63),
		textRowPayload("ada", "7"),
		terminator(0, 0),
	)

	rows, err := s.Rows(0)
	if err != nil {
		t.Fatal(err)
	}
	got := rows[0].(userRow)
	if got.ID != 7 || got.Name != "ada" {
		t.Fatalf("row = %+v", got)
	}
}

func TestStaticResultsetCountMismatch(t *testing.T) {
	s := NewStatic(userRow{})
	feedAll(t, s, Text, okPayload(0, 0, 0, 0))

	_, err := s.Rows(1)
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindClientPrecondition {
		t.Fatalf("expected a client-precondition error, got %v", err)
	}
}

func TestStaticExtraResultsetsReported(t *testing.T) {
	// One row shape declared, but the server sends two resultsets; the
	// mismatch must surface when the exchange completes, not vanish.
	s := NewStatic(userRow{})

	feedAll(t, s, Text,
		[]byte{2},
		colDef("id", wire.WireTypeLongLong, 0, 63),
		colDef("name", wire.WireTypeVarString, 0, 45),
		textRowPayload("7", "ada"),
		terminator(wire.StatusMoreResultsExists, 0),
	)
	done, err := s.Feed(okPayload(0, 0, 0, 0), testCaps, Text)
	if !done {
		t.Fatal("exchange should be complete")
	}
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindClientPrecondition {
		t.Fatalf("expected a resultset-count precondition error, got %v", err)
	}

	// The declared resultset's rows were fully drained and stay usable.
	rows, rowsErr := s.Rows(0)
	if rowsErr != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, err = %v", rows, rowsErr)
	}
}

func TestStaticNeverReturnedResultset(t *testing.T) {
	s := NewStatic(userRow{}, userRow{})
	feedAll(t, s, Text, okPayload(0, 0, 0, 0))

	if _, err := s.Rows(1); err == nil {
		t.Fatal("expected an error for a resultset the server never sent")
	}
}

func TestStaticTypeMismatch(t *testing.T) {
	type badRow struct {
		ID []int `db:"id"` // incompatible with any column value
	}
	s := NewStatic(badRow{})
	feedAll(t, s, Text,
		[]byte{1},
		colDef("id", wire.WireTypeLongLong, 0, 63),
		textRowPayload("7"),
		terminator(0, 0),
	)
	_, err := s.Rows(0)
	var de *diagnostics.Error
	if !errors.As(err, &de) || de.Kind != diagnostics.KindClientPrecondition {
		t.Fatalf("expected a type-mismatch precondition error, got %v", err)
	}
}
