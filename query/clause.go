package query

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
	"github.com/transitdb/transit/resultset"
	"github.com/transitdb/transit/store"
)

// candidatesForClause narrows one clause's candidates by role-bitmap
// intersection, literal value/time narrowing, and "as of" snapshotting.
// Identity constraints and binding expansion are applied per prior binding
// in evaluateClause, since they depend on variables already bound by
// earlier clauses.
func candidatesForClause(db *store.Database, c *ast.SearchClause) (*resultset.ResultSet, error) {
	if len(c.Appearances) == 0 {
		return nil, errors.New(errors.Execution, "search clause must have at least one appearance")
	}

	var base *resultset.ResultSet
	for _, a := range c.Appearances {
		role, ok := db.RoleKeeper.Get(a.RoleName)
		if !ok {
			return nil, errors.Newf(errors.Execution, "unknown role %q", a.RoleName)
		}
		rs := resultset.FromBitmap(db.Index.RolePosits.Lookup(role.Thing()).Clone())
		if base == nil {
			base = rs
		} else {
			base = base.Intersect(rs)
		}
	}

	if !c.Value.IsVar && !c.Value.IsWild {
		lit, err := resolveValue(c.Value)
		if err != nil {
			return nil, err
		}
		base = filterCandidates(base, func(p identity.Thing) bool {
			posit, ok := db.PositKeeper.GetByThing(p)
			return ok && posit.Value().Equal(lit)
		})
	}

	if !c.Time.IsVar && !c.Time.IsWild {
		lit, err := resolveTime(c.Time)
		if err != nil {
			return nil, err
		}
		base = filterCandidates(base, func(p identity.Thing) bool {
			t, ok := db.Index.PositTime.Get(p)
			return ok && t.Equal(lit)
		})
	}

	if c.AsOf != nil {
		asof, err := resolveTime(c.AsOf)
		if err != nil {
			return nil, err
		}
		base = applyAsOf(db, base, asof)
	}

	return base, nil
}

func filterCandidates(rs *resultset.ResultSet, keep func(identity.Thing) bool) *resultset.ResultSet {
	out := roaring64.New()
	for _, p := range rs.ToSlice() {
		if keep(p) {
			out.Add(p)
		}
	}
	return resultset.FromBitmap(out)
}

// applyAsOf groups candidates by AppearanceSet and keeps, per group, the
// posit with the greatest time not exceeding asof (ties resolved to the
// highest posit thing).
func applyAsOf(db *store.Database, rs *resultset.ResultSet, asof datatype.Time) *resultset.ResultSet {
	groups := make(map[*construct.AppearanceSet][]identity.Thing)
	for _, p := range rs.ToSlice() {
		aset, ok := db.Index.PositAppearanceSet.Get(p)
		if !ok {
			continue
		}
		groups[aset] = append(groups[aset], p)
	}
	out := roaring64.New()
	for _, members := range groups {
		var best identity.Thing
		var bestTime datatype.Time
		found := false
		for _, p := range members {
			t, ok := db.Index.PositTime.Get(p)
			if !ok || t.Compare(asof) > 0 {
				continue
			}
			if !found {
				best, bestTime, found = p, t, true
				continue
			}
			cmp := t.Compare(bestTime)
			if cmp > 0 || (cmp == 0 && p > best) {
				best, bestTime = p, t
			}
		}
		if found {
			out.Add(best)
		}
	}
	return resultset.FromBitmap(out)
}

// evaluateClause applies identity constraints and binding expansion for one
// clause against the prior bindings (or a single empty binding, for the
// first clause), joining by construction since every output binding is a
// clone of the prior one it extended.
func evaluateClause(db *store.Database, c *ast.SearchClause, prior []*Binding) ([]*Binding, error) {
	base, err := candidatesForClause(db, c)
	if err != nil {
		return nil, err
	}

	sources := prior
	if sources == nil {
		sources = []*Binding{newBinding()}
	}

	var out []*Binding
	for _, sb := range sources {
		for _, candidate := range base.ToSlice() {
			branches, ok, err := expandCandidate(db, c, sb, candidate)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			out = append(out, branches...)
		}
	}
	return out, nil
}

// expandCandidate applies one posit candidate's appearance set against sb,
// producing the (possibly several, for union recalls) resulting bindings.
func expandCandidate(db *store.Database, c *ast.SearchClause, sb *Binding, candidate identity.Thing) ([]*Binding, bool, error) {
	aset, ok := db.Index.PositAppearanceSet.Get(candidate)
	if !ok {
		return nil, false, nil
	}

	branches := []*Binding{sb.clone()}
	for _, a := range c.Appearances {
		role, ok := db.RoleKeeper.Get(a.RoleName)
		if !ok {
			return nil, false, errors.Newf(errors.Execution, "unknown role %q", a.RoleName)
		}
		app, found := aset.ByRole(role.Thing())
		if !found {
			return nil, false, nil
		}
		thing := app.Thing()

		switch a.Kind {
		case ast.Wildcard:
			// no constraint, no binding
		case ast.LiteralThing:
			if thing != a.Literal {
				return nil, false, nil
			}
		case ast.Insert, ast.Recall:
			var kept []*Binding
			for _, br := range branches {
				if existing, had := br.Identities[a.Var]; had {
					if existing == thing {
						kept = append(kept, br)
					}
					continue
				}
				br.Identities[a.Var] = thing
				kept = append(kept, br)
			}
			branches = kept
		case ast.UnionRecall:
			branches = expandUnionRecall(branches, a, thing)
		}
		if len(branches) == 0 {
			return nil, false, nil
		}
	}

	if c.Value.IsVar {
		for _, br := range branches {
			br.Slots[c.Value.Var] = Slot{PositThing: candidate, Kind: SlotValue}
		}
	}
	if c.Time.IsVar {
		for _, br := range branches {
			br.Slots[c.Time.Var] = Slot{PositThing: candidate, Kind: SlotTime}
		}
	}
	if c.HasPositVar {
		for _, br := range branches {
			br.PositVars[c.PositVar] = candidate
		}
	}
	return branches, true, nil
}

// expandUnionRecall models "(a|b, role)" as a clause-local disjunction that
// branches binding expansion into one branch per member. A member already
// bound to a conflicting thing drops its branch; an unbound member gets a
// fresh branch where it is bound to thing.
func expandUnionRecall(branches []*Binding, a *ast.AppearanceSpec, thing identity.Thing) []*Binding {
	var out []*Binding
	for _, br := range branches {
		for _, m := range a.Union {
			if existing, had := br.Identities[m]; had {
				if existing == thing {
					out = append(out, br)
				}
				continue
			}
			nb := br.clone()
			nb.Identities[m] = thing
			out = append(out, nb)
		}
	}
	return out
}
