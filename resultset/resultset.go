// Package resultset implements a tri-state posit-identity set algebra: a
// set is always in exactly one of Empty, Singleton, or Bitmap mode, and
// canonicalizes back down after every operation so that hot-path joins
// stay allocation-free until a set genuinely needs more than one element.
package resultset

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/transitdb/transit/identity"
)

// Mode is the tri-state tag of a ResultSet.
type Mode int

const (
	Empty Mode = iota
	Singleton
	Bitmap
)

// ResultSet is a tri-state set of posit identities. It can hold any
// identity.Thing set; the query evaluator uses it for posit candidate sets,
// while variable bindings are kept in plain maps.
type ResultSet struct {
	mode   Mode
	single identity.Thing
	bitmap *roaring64.Bitmap
}

// New returns the canonical Empty set.
func New() *ResultSet { return &ResultSet{mode: Empty} }

// FromOne returns a Singleton set.
func FromOne(t identity.Thing) *ResultSet {
	return &ResultSet{mode: Singleton, single: t}
}

// FromSlice builds a canonicalized ResultSet from an arbitrary slice.
func FromSlice(ts []identity.Thing) *ResultSet {
	r := New()
	for _, t := range ts {
		r = r.InsertOne(t)
	}
	return r
}

// FromBitmap wraps an already-built bitmap, canonicalizing immediately.
func FromBitmap(b *roaring64.Bitmap) *ResultSet {
	r := &ResultSet{mode: Bitmap, bitmap: b}
	return r.canonicalize()
}

func (r *ResultSet) Mode() Mode { return r.mode }

// Len returns the cardinality of the set.
func (r *ResultSet) Len() uint64 {
	switch r.mode {
	case Empty:
		return 0
	case Singleton:
		return 1
	default:
		return r.bitmap.GetCardinality()
	}
}

// Contains reports whether t is a member.
func (r *ResultSet) Contains(t identity.Thing) bool {
	switch r.mode {
	case Empty:
		return false
	case Singleton:
		return r.single == t
	default:
		return r.bitmap.Contains(t)
	}
}

// ToSlice materializes the set's members in ascending order.
func (r *ResultSet) ToSlice() []identity.Thing {
	switch r.mode {
	case Empty:
		return nil
	case Singleton:
		return []identity.Thing{r.single}
	default:
		return r.bitmap.ToArray()
	}
}

func (r *ResultSet) toBitmap() *roaring64.Bitmap {
	b := roaring64.New()
	switch r.mode {
	case Singleton:
		b.Add(r.single)
	case Bitmap:
		b.Or(r.bitmap)
	}
	return b
}

// canonicalize collapses a bitmap of size 0 to Empty and of size 1 to
// Singleton.
func (r *ResultSet) canonicalize() *ResultSet {
	if r.mode != Bitmap {
		return r
	}
	switch card := r.bitmap.GetCardinality(); card {
	case 0:
		return New()
	case 1:
		it := r.bitmap.Iterator()
		return FromOne(it.Next())
	default:
		return r
	}
}

// InsertOne returns a new ResultSet with t added, upgrading mode as needed.
func (r *ResultSet) InsertOne(t identity.Thing) *ResultSet {
	switch r.mode {
	case Empty:
		return FromOne(t)
	case Singleton:
		if r.single == t {
			return r
		}
		b := roaring64.New()
		b.Add(r.single)
		b.Add(t)
		return &ResultSet{mode: Bitmap, bitmap: b}
	default:
		b := r.bitmap.Clone()
		b.Add(t)
		return &ResultSet{mode: Bitmap, bitmap: b}
	}
}

// InsertMany merges a bitmap into r, upgrading mode as needed.
func (r *ResultSet) InsertMany(b *roaring64.Bitmap) *ResultSet {
	merged := r.toBitmap()
	merged.Or(b)
	return FromBitmap(merged)
}

// Intersect computes r ∩ other.
func (r *ResultSet) Intersect(other *ResultSet) *ResultSet {
	if r.mode == Empty || other.mode == Empty {
		return New()
	}
	if r.mode == Singleton {
		if other.Contains(r.single) {
			return FromOne(r.single)
		}
		return New()
	}
	if other.mode == Singleton {
		return other.Intersect(r)
	}
	b := r.bitmap.Clone()
	b.And(other.bitmap)
	return FromBitmap(b)
}

// Union computes r ∪ other.
func (r *ResultSet) Union(other *ResultSet) *ResultSet {
	if r.mode == Empty {
		return other
	}
	if other.mode == Empty {
		return r
	}
	b := r.toBitmap()
	b.Or(other.toBitmap())
	return FromBitmap(b)
}

// Diff computes r ∖ other.
func (r *ResultSet) Diff(other *ResultSet) *ResultSet {
	if r.mode == Empty || other.mode == Empty {
		return r
	}
	b := r.toBitmap()
	b.AndNot(other.toBitmap())
	return FromBitmap(b)
}

// SymDiff computes r △ other.
func (r *ResultSet) SymDiff(other *ResultSet) *ResultSet {
	if r.mode == Empty {
		return other
	}
	if other.mode == Empty {
		return r
	}
	b := r.toBitmap()
	b.Xor(other.toBitmap())
	return FromBitmap(b)
}
