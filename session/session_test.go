package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/transitdb/transit/store"
)

func TestRunReturnsOkEnvelope(t *testing.T) {
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(db, 8)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	env := s.Run(context.Background(), `add role name; add posit [{(+a,name)},"Alice",@NOW]; search [{(*,name)},+n,+t] return n;`)
	if env.Status != "ok" {
		t.Fatalf("expected ok status, got %q (%s)", env.Status, env.Error)
	}
	if len(env.ResultSets) != 1 {
		t.Fatalf("expected 1 result set, got %d", len(env.ResultSets))
	}
	if env.ResultSets[0].RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", env.ResultSets[0].RowCount)
	}
	if env.ID == "" {
		t.Fatal("expected a non-empty query id")
	}
}

func TestRunReturnsErrorEnvelopeOnParseFailure(t *testing.T) {
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(db, 0)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	env := s.Run(context.Background(), `add posit [{(`)
	if env.Status != "error" {
		t.Fatalf("expected error status for malformed script, got %q", env.Status)
	}
	if env.Error == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestRunCachesParsedScripts(t *testing.T) {
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(db, 8)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	script := `add role tag;`
	s.Run(context.Background(), script)
	if _, ok := s.cache.Get(script); !ok {
		t.Fatal("expected the script to be cached after one run")
	}
	// A second, identical run must not re-declare the role (add role is
	// idempotent regardless of caching, but this also exercises the cache
	// hit path without panicking).
	env := s.Run(context.Background(), script)
	if env.Status != "ok" {
		t.Fatalf("expected ok status on cached re-run, got %q (%s)", env.Status, env.Error)
	}
}

func TestSubmitCancelStopsBeforeNextStatement(t *testing.T) {
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(db, 0)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	h := s.Submit(context.Background(), `add role name; add role tag; add role note;`)
	h.Cancel()
	env := h.Wait()
	if env.Status != "ok" && env.Status != "cancelled" {
		t.Fatalf("expected ok or cancelled status, got %q (%s)", env.Status, env.Error)
	}
}

func TestCancelQueryByID(t *testing.T) {
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(db, 0)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	h := s.Submit(context.Background(), `add role name;`)
	s.CancelQuery(h.ID)
	h.Wait()

	if s.CancelQuery(h.ID) {
		t.Fatal("expected CancelQuery to report false for a finished query")
	}
	if s.CancelQuery("no-such-id") {
		t.Fatal("expected CancelQuery to report false for an unknown id")
	}
}

func TestOpenRestoresAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.db")

	s1, err := Open(path, 8)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	env := s1.Run(context.Background(), `add role name; add posit [{(+a,name)},"Alice",@NOW];`)
	if env.Status != "ok" {
		t.Fatalf("expected ok status, got %q (%s)", env.Status, env.Error)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path, 8)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	env2 := s2.Run(context.Background(), `search [{(*,name)},+n,+t] return n;`)
	if env2.Status != "ok" {
		t.Fatalf("expected ok status after reopen, got %q (%s)", env2.Status, env2.Error)
	}
	if env2.ResultSets[0].RowCount != 1 {
		t.Fatalf("expected the restored posit to be found, got %d rows", env2.ResultSets[0].RowCount)
	}
}
