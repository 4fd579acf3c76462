package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/store"
)

// TestGenesisHashIs64Zeros pins the chain's genesis prev_hash to the
// byte-exact format an external verifier computes the chain from.
func TestGenesisHashIs64Zeros(t *testing.T) {
	if len(genesisHash) != 64 {
		t.Fatalf("expected genesisHash to be 64 characters, got %d", len(genesisHash))
	}
	for _, c := range genesisHash {
		if c != '0' {
			t.Fatalf("expected genesisHash to be all zeros, got %q", genesisHash)
		}
	}
}

func TestPersistPositIsIdempotent(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	db := store.New(s)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := db.CreateRole("name", false); err != nil {
		t.Fatalf("create role: %v", err)
	}

	env := store.NewEnv()
	specs := []store.AppearanceSpec{{RoleName: "name", Insert: true, Var: "a"}}
	posits, err := db.AddPosit(specs, datatype.String("Alice"), datatype.Now(), env)
	if err != nil {
		t.Fatalf("add posit: %v", err)
	}
	if len(posits) != 1 {
		t.Fatalf("expected 1 kept posit, got %d", len(posits))
	}

	if got := s.Count(); got != 1 {
		t.Fatalf("expected 1 chain link after one posit, got %d", got)
	}
	if s.CurrentSuperhash() == genesisHash {
		t.Fatal("expected head hash to advance past genesis")
	}

	// Re-persisting the same canonical posit is a no-op: PersistPosit is
	// only ever called by CreatePosit when a posit is newly kept, but the
	// chain-append path itself must tolerate being asked to persist
	// something already in the Posit table (e.g. a retried write).
	if err := s.PersistPosit(posits[0]); err != nil {
		t.Fatalf("re-persisting an existing posit: %v", err)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("expected chain length unchanged after re-persisting a duplicate, got %d", got)
	}
}

func TestRestoreRehydratesDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db1 := store.New(s1)
	if err := db1.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := db1.CreateRole("name", false); err != nil {
		t.Fatalf("create role: %v", err)
	}
	env := store.NewEnv()
	specs := []store.AppearanceSpec{{RoleName: "name", Insert: true, Var: "a"}}
	if _, err := db1.AddPosit(specs, datatype.String("Alice"), datatype.NewDate(2020, 1, 1), env); err != nil {
		t.Fatalf("add posit: %v", err)
	}
	headAfterWrite := s1.CurrentSuperhash()
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	db2 := store.New(s2)
	if err := s2.Restore(db2); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := db2.SeedReservedRoles(); err != nil {
		t.Fatalf("seed after restore: %v", err)
	}

	if db2.PositKeeper.Len() != 1 {
		t.Fatalf("expected 1 restored posit, got %d", db2.PositKeeper.Len())
	}
	if _, ok := db2.RoleKeeper.Get("name"); !ok {
		t.Fatal("expected restored role \"name\" to be present")
	}
	if s2.CurrentSuperhash() != headAfterWrite {
		t.Fatalf("expected ledger head to survive reopen: got %s want %s", s2.CurrentSuperhash(), headAfterWrite)
	}

	// A freshly generated identity after restore must not collide with any
	// restored one.
	fresh := db2.ThingGenerator.Generate()
	if fresh == 0 {
		t.Fatal("generated identity collided with genesis sentinel")
	}
}

// TestVerifyAndBackfillIntegrity covers a deleted PositHash table: wiping
// it and reopening rebuilds exactly as many chain links as there are
// posits.
func TestVerifyAndBackfillIntegrity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db1 := store.New(s1)
	if err := db1.SeedReservedRoles(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := db1.CreateRole("counter", false); err != nil {
		t.Fatalf("create role: %v", err)
	}
	const n = 5
	for i := 0; i < n; i++ {
		env := store.NewEnv()
		specs := []store.AppearanceSpec{{RoleName: "counter", Insert: true, Var: "x"}}
		if _, err := db1.AddPosit(specs, datatype.I64(int64(i)), datatype.Now(), env); err != nil {
			t.Fatalf("add posit %d: %v", i, err)
		}
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Simulate a chain wiped out from under an otherwise-intact Posit table
	// by opening a second, raw *sql.DB-less connection through Store and
	// deleting every PositHash row directly.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, err := s2.db.Exec(`DELETE FROM PositHash`); err != nil {
		t.Fatalf("wiping hash chain: %v", err)
	}
	if _, err := s2.db.Exec(`DELETE FROM LedgerHead`); err != nil {
		t.Fatalf("wiping ledger head: %v", err)
	}
	s2.headHash, s2.count = genesisHash, 0

	report, err := s2.VerifyAndBackfillIntegrity()
	if err != nil {
		t.Fatalf("verify and backfill: %v", err)
	}
	if report.HasMismatch {
		t.Fatalf("expected no mismatches on a clean backfill, got %+v", report)
	}
	if report.BackfilledCount != n {
		t.Fatalf("expected %d backfilled links, got %d", n, report.BackfilledCount)
	}
	if s2.Count() != n {
		t.Fatalf("expected ledger count %d, got %d", n, s2.Count())
	}

	var rowCount int64
	if err := s2.db.QueryRow(`SELECT COUNT(*) FROM PositHash`).Scan(&rowCount); err != nil {
		t.Fatalf("counting hash rows: %v", err)
	}
	if rowCount != n {
		t.Fatalf("expected %d PositHash rows after backfill, got %d", n, rowCount)
	}
}

func TestOpenInMemoryDoesNotTouchDisk(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	before, err := os.ReadDir(wd)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	s, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	after, err := os.ReadDir(wd)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected InMemory mode to create no files in %s", wd)
	}
}
