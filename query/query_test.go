package query

import (
	"testing"

	"github.com/transitdb/transit"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/store"
)

func newTestDB(t *testing.T) *store.Database {
	t.Helper()
	db := store.New(nil)
	if err := db.SeedReservedRoles(); err != nil {
		t.Fatalf("seeding reserved roles: %v", err)
	}
	return db
}

func runScript(t *testing.T, db *store.Database, src string) []*Result {
	t.Helper()
	script, err := transit.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	results, err := ExecuteScript(db, script)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	return results
}

// TestPerSearchLimits covers two independent searches in one script,
// each enforcing its own limit.
func TestPerSearchLimits(t *testing.T) {
	db := newTestDB(t)
	results := runScript(t, db, `
add role name; add role h;
add posit [{(+h1,h)},1,@NOW]; add posit [{(+h2,h)},2,@NOW]; add posit [{(+h3,h)},3,@NOW];
add posit [{(+a,name)},"Alice",@NOW]; add posit [{(+b,name)},"Bob",@NOW]; add posit [{(+c,name)},"Carol",@NOW];
search +p [{(h,name)},+n,+t] return p,h,n,t limit 2;
search [{(*,name)},+n2,+t2] return n2,t2 limit 1;
`)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RowCount != 2 || !results[0].Limited {
		t.Fatalf("expected first search row_count=2 limited=true, got %+v", results[0])
	}
	if results[1].RowCount != 1 || !results[1].Limited {
		t.Fatalf("expected second search row_count=1 limited=true, got %+v", results[1])
	}
}

// TestTimeOrderingFiltersByLiteral covers a literal time comparison
// that keeps only the earlier event.
func TestTimeOrderingFiltersByLiteral(t *testing.T) {
	db := newTestDB(t)
	results := runScript(t, db, `
add role event;
add posit [{(+e1,event)},"x",'2010-01-01'];
add posit [{(+e2,event)},"y",'2020-01-01'];
search [{(*,event)},+v,+t] where t < '2015-01-01' return v,t;
`)
	r := results[0]
	if r.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", r.RowCount, r.Rows)
	}
	if r.Rows[0][0] != "x" || r.Rows[0][1] != "2010-01-01" {
		t.Fatalf("unexpected row: %v", r.Rows[0])
	}
}

// TestTimeOrderingSelfJoin covers a self-join across two clauses with an
// ordering predicate between their time slots.
func TestTimeOrderingSelfJoin(t *testing.T) {
	db := newTestDB(t)
	results := runScript(t, db, `
add role event;
add posit [{(+e1,event)},"x",'2010-01-01'];
add posit [{(+e2,event)},"y",'2020-01-01'];
search [{(*,event)},+v1,+t1],[{(*,event)},+v2,+t2] where t1 < t2;
`)
	r := results[0]
	if r.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", r.RowCount, r.Rows)
	}
}

// TestCertaintyLiteralStrictness covers a '%' literal matching the
// Certainty slot while a bare decimal does not.
func TestCertaintyLiteralStrictness(t *testing.T) {
	db := newTestDB(t)
	runScript(t, db, `
add role fact;
add posit [{(+f,fact)},75%,@NOW];
`)
	script, err := transit.Parse(`search [{(*,fact)},+c,+t] where c = 75%;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	results, err := ExecuteScript(db, script)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if results[0].RowCount != 1 {
		t.Fatalf("expected certainty literal to match, got %+v", results[0])
	}

	script2, err := transit.Parse(`search [{(*,fact)},+c,+t] where c = 0.75;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	results2, err := ExecuteScript(db, script2)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if results2[0].RowCount != 0 {
		t.Fatalf("expected bare decimal not to match a Certainty slot, got %+v", results2[0])
	}
}

// TestStringOrderingIsTypeMismatch covers ordering a String-valued slot
// against a literal being rejected.
func TestStringOrderingIsTypeMismatch(t *testing.T) {
	db := newTestDB(t)
	runScript(t, db, `
add role label;
add posit [{(+x,label)},"hi",@NOW];
`)
	script, err := transit.Parse(`search [{(*,label)},+l,+t] where l < 5;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = ExecuteScript(db, script)
	if err == nil {
		t.Fatal("expected an ordering-comparison error")
	}
	if errors.KindOf(err) != errors.Execution {
		t.Fatalf("expected Execution kind, got %v", errors.KindOf(err))
	}
}

// TestAddPositSharesEnvAcrossStatementLiterals covers a single `add posit`
// statement whose later comma-separated literals recall identities
// introduced by an earlier one: idw/idh are bound once and recalled by
// each of the seven later literals in the same statement, so a snapshot search "as of now" and a
// plain historical search over the recalled identities' names must each
// see the same two people, not disconnected fresh ones.
func TestAddPositSharesEnvAcrossStatementLiterals(t *testing.T) {
	db := newTestDB(t)
	results := runScript(t, db, `
add role wife; add role husband; add role name;
add posit [{(+idw,wife),(+idh,husband)},"married",'2004-06-19'],
          [{(idw,wife),(idh,husband)},"divorced",'2020-12-04'],
          [{(idw,wife),(idh,husband)},"married",'2024-03-17'],
          [{(idh,name)},"Archie Bald",'1972-08-20'],
          [{(idh,name)},"Archie Trix",'2004-09-21'],
          [{(idh,name)},"Archie Bald",'2021-01-19'],
          [{(idw,name)},"Bella Trix",'1972-12-13'],
          [{(idw,name)},"Bella Bald",'2024-05-29'];
search [{(+w,wife),(+h,husband)},"married",+mt] as of @NOW, [{(w|h,name)},+n2,+t2] return n2,t2,mt;
search [{(*,name)},+n3,+t3] return n3,t3;
`)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RowCount != 5 {
		t.Fatalf("expected married-snapshot names row_count=5, got %+v", results[0])
	}
	if results[1].RowCount != 5 {
		t.Fatalf("expected historical names row_count=5, got %+v", results[1])
	}
}

// TestAddRoleDuplicateIsIdempotent exercises add role's dedup path end to
// end through the DSL, not just store.CreateRole directly.
func TestAddRoleDuplicateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	runScript(t, db, "add role dup; add role dup;")
	if n := db.RoleKeeper.Len(); n != 5 { // 4 reserved + 1 "dup"
		t.Fatalf("expected 5 kept roles, got %d", n)
	}
}
