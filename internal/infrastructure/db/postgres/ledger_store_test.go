package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// ---------------------------------------------------------------------------
// classify
// ---------------------------------------------------------------------------

func TestClassify_PassesDomainErrorsThrough(t *testing.T) {
	if err := classify(domain.ErrSessionNotFound); err != domain.ErrSessionNotFound {
		t.Fatalf("expected domain error unchanged, got %v", err)
	}
	if classify(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}

func TestClassify_RetryableCodesAreStateConflicts(t *testing.T) {
	for _, code := range []string{codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation} {
		err := classify(fmt.Errorf("exec: %w", &pgconn.PgError{Code: code}))
		if !errors.Is(err, domain.ErrStateConflict) {
			t.Errorf("code %s: expected state conflict, got %v", code, err)
		}
	}
}

func TestClassify_OtherPgErrorsUnchanged(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01"}
	err := classify(pgErr)
	if errors.Is(err, domain.ErrStateConflict) || errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func TestNoRows_MapsToNotFound(t *testing.T) {
	if err := noRows(pgx.ErrNoRows, domain.ErrContentNotFound); err != domain.ErrContentNotFound {
		t.Fatalf("expected content not found, got %v", err)
	}
	other := errors.New("boom")
	if err := noRows(other, domain.ErrContentNotFound); err != other {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestNumeric(t *testing.T) {
	d, err := numeric("12.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StringFixed(2) != "12.50" {
		t.Fatalf("expected 12.50, got %s", d.StringFixed(2))
	}
	if _, err := numeric("abc"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestForUpdate_OnlyInWriteTransactions(t *testing.T) {
	q := "SELECT 1"
	if got := (&tx{lock: true}).forUpdate(q); got != q+" FOR UPDATE" {
		t.Fatalf("unexpected query %q", got)
	}
	if got := (&tx{}).forUpdate(q); got != q {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestMigrations_OrderedAndIdempotent(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, m := range migrations {
		if m.version <= prev {
			t.Fatalf("migration %s out of order", m.name)
		}
		prev = m.version
		if seen[m.name] {
			t.Fatalf("duplicate migration %s", m.name)
		}
		seen[m.name] = true
		for _, stmt := range strings.Split(m.up, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if !strings.Contains(stmt, "IF NOT EXISTS") {
				t.Errorf("migration %s: statement is not idempotent: %s", m.name, stmt)
			}
		}
	}
}
