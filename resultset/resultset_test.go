package resultset

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/require"

	"github.com/transitdb/transit/identity"
)

func TestEmptyCanonical(t *testing.T) {
	r := New()
	require.Equal(t, Empty, r.Mode())
	require.Equal(t, uint64(0), r.Len())
}

func TestInsertOneUpgradesMode(t *testing.T) {
	r := New()
	r = r.InsertOne(1)
	require.Equal(t, Singleton, r.Mode())
	r = r.InsertOne(2)
	require.Equal(t, Bitmap, r.Mode())
	require.Equal(t, uint64(2), r.Len())
}

func TestIntersectionCanonicalizesToSingleton(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2, 3})
	b := FromSlice([]identity.Thing{3, 4, 5})
	got := a.Intersect(b)
	require.Equal(t, Singleton, got.Mode())
	require.True(t, got.Contains(3))
}

func TestIntersectionCanonicalizesToEmpty(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2})
	b := FromSlice([]identity.Thing{3, 4})
	got := a.Intersect(b)
	require.Equal(t, Empty, got.Mode())
}

func TestIntersectUnionCommutative(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2, 3})
	b := FromSlice([]identity.Thing{2, 3, 4})
	require.ElementsMatch(t, a.Intersect(b).ToSlice(), b.Intersect(a).ToSlice())
	require.ElementsMatch(t, a.Union(b).ToSlice(), b.Union(a).ToSlice())
}

func TestUnionAssociative(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2})
	b := FromSlice([]identity.Thing{3, 4})
	c := FromSlice([]identity.Thing{5, 6})
	left := a.Union(b).Union(c)
	right := a.Union(b.Union(c))
	require.ElementsMatch(t, left.ToSlice(), right.ToSlice())
}

func TestSelfDiffIsEmpty(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2, 3})
	require.Equal(t, Empty, a.Diff(a).Mode())
}

func TestSelfSymDiffIsEmpty(t *testing.T) {
	a := FromSlice([]identity.Thing{1, 2, 3})
	require.Equal(t, Empty, a.SymDiff(a).Mode())
}

func TestInsertManyUpgrades(t *testing.T) {
	a := FromOne(1)
	b := roaring64.New()
	b.Add(2)
	b.Add(3)
	got := a.InsertMany(b)
	require.Equal(t, Bitmap, got.Mode())
	require.ElementsMatch(t, []identity.Thing{1, 2, 3}, got.ToSlice())
}

func TestSingletonEqualityShortCircuitsIntersect(t *testing.T) {
	a := FromOne(7)
	b := FromOne(7)
	got := a.Intersect(b)
	require.Equal(t, Singleton, got.Mode())
	require.True(t, got.Contains(7))
}
