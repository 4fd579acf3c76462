package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/identity"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db := New(nil)
	require.NoError(t, db.SeedReservedRoles())
	return db
}

func TestCreateRoleDedupesAndReleasesIdentity(t *testing.T) {
	db := newTestDB(t)
	before := db.ThingGenerator.Len()

	r1, firstTime, err := db.CreateRole("wife", false)
	require.NoError(t, err)
	require.False(t, firstTime)

	r2, previouslyKept, err := db.CreateRole("WIFE", false)
	require.NoError(t, err)
	require.True(t, previouslyKept)
	require.Same(t, r1, r2)

	// the speculative identity generated for the duplicate "WIFE" attempt
	// must have been released, leaving exactly one new retained identity
	// (wife's own role thing) beyond the reserved-role seeding baseline.
	require.Equal(t, before+1, db.ThingGenerator.Len())
}

func TestAddPositSingleInsertion(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.CreateRole("name", false)
	require.NoError(t, err)

	env := NewEnv()
	now := datatype.NewDate(2024, 1, 1)
	posits, err := db.AddPosit(
		[]AppearanceSpec{{RoleName: "name", Insert: true, Var: "a"}},
		datatype.String("Alice"), now, env)
	require.NoError(t, err)
	require.Len(t, posits, 1)
	require.Len(t, env.Candidates("a"), 1)
}

func TestAddPositCartesianOverRecall(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.CreateRole("h", false)
	require.NoError(t, err)

	env := NewEnv()
	env.Bind("x", []identity.Thing{10, 11, 12})

	now := datatype.NewDate(2024, 1, 1)
	posits, err := db.AddPosit(
		[]AppearanceSpec{{RoleName: "h", Var: "x"}},
		datatype.I64(1), now, env)
	require.NoError(t, err)
	require.Len(t, posits, 3)
}

func TestAddPositEmptyCandidateListYieldsNoIteration(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.CreateRole("h", false)
	require.NoError(t, err)

	env := NewEnv()
	env.Bind("x", nil)

	now := datatype.NewDate(2024, 1, 1)
	posits, err := db.AddPosit(
		[]AppearanceSpec{{RoleName: "h", Var: "x"}},
		datatype.I64(1), now, env)
	require.NoError(t, err)
	require.Empty(t, posits)
}

func TestAddPositDuplicateCollapsesAndReleasesPositIdentity(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.CreateRole("h", false)
	require.NoError(t, err)

	env := NewEnv()
	now := datatype.NewDate(2024, 1, 1)
	first, err := db.AddPosit([]AppearanceSpec{{RoleName: "h", Literal: 99, HasLit: true}}, datatype.I64(1), now, env)
	require.NoError(t, err)
	require.Len(t, first, 1)

	before := db.ThingGenerator.Len()
	second, err := db.AddPosit([]AppearanceSpec{{RoleName: "h", Literal: 99, HasLit: true}}, datatype.I64(1), now, env)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Same(t, first[0], second[0])
	require.Equal(t, before, db.ThingGenerator.Len(), "duplicate posit's speculative identity must be released")
}
