package pgerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapUndefinedTable(t *testing.T) {
	err := fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01", Message: `relation "orcid_putcode_cache" does not exist`})

	wrapped := Wrap("orcid_putcode_cache", err)
	if !strings.Contains(wrapped.Error(), "run migrations") {
		t.Fatalf("expected migration hint, got %v", wrapped)
	}
	if !IsUndefinedTable(wrapped) {
		t.Fatalf("expected wrapped error to keep its code")
	}
}

func TestWrapPassThrough(t *testing.T) {
	err := errors.New("boom")
	if Wrap("t", err) != err {
		t.Fatalf("expected error passed through")
	}
	if Wrap("t", nil) != nil {
		t.Fatalf("expected nil for nil")
	}
	if IsQueryCanceled(err) {
		t.Fatalf("plain error has no code")
	}
	if !IsQueryCanceled(&pgconn.PgError{Code: "57014"}) {
		t.Fatalf("expected query canceled")
	}
}
