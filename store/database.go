// Package store wires the identity generator, the construct keepers, and
// the secondary indexes into a single aggregate, and implements the
// mutation path: add role, add posit. Database is a single Go struct
// whose methods acquire a fixed lock order across its resources:
// thing_generator -> role_keeper -> appearance_keeper ->
// appearance_set_keeper -> posit_keeper -> indexes -> persistor.
package store

import (
	"sort"

	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
	"github.com/transitdb/transit/index"
)

// Persistor is the durable-write side of a mutation. Defined here, at the
// consumer, per Go convention; implemented by package persist.
type Persistor interface {
	PersistThing(t identity.Thing) error
	PersistRole(r *construct.Role) error
	PersistPosit(p *construct.Posit) error
}

// noopPersistor is used when a Database is built without a durable target.
type noopPersistor struct{}

func (noopPersistor) PersistThing(identity.Thing) error   { return nil }
func (noopPersistor) PersistRole(*construct.Role) error   { return nil }
func (noopPersistor) PersistPosit(*construct.Posit) error { return nil }

// Database is the in-memory store aggregate: identity generator, the four
// canonical keepers, the secondary indexes, and a persistor.
type Database struct {
	ThingGenerator      *identity.Generator
	RoleKeeper          *construct.RoleKeeper
	AppearanceKeeper    *construct.AppearanceKeeper
	AppearanceSetKeeper *construct.AppearanceSetKeeper
	PositKeeper         *construct.PositKeeper
	Index               *index.Set
	Persistor           Persistor
}

// reservedRoleNames are seeded after restore.
var reservedRoleNames = []struct {
	name     string
	reserved bool
}{
	{"posit", false},
	{"ascertains", true},
	{"thing", false},
	{"classification", true},
}

// New constructs an empty Database. Callers that rehydrate from a durable
// store must restore identities, roles, and posits (persist.Restore) before
// calling SeedReservedRoles, so that ThingGenerator.Retain calls happen
// before any fresh identity is generated for a reserved role that turns out
// to already exist.
func New(persistor Persistor) *Database {
	if persistor == nil {
		persistor = noopPersistor{}
	}
	return &Database{
		ThingGenerator:      identity.NewGenerator(),
		RoleKeeper:          construct.NewRoleKeeper(),
		AppearanceKeeper:    construct.NewAppearanceKeeper(),
		AppearanceSetKeeper: construct.NewAppearanceSetKeeper(),
		PositKeeper:         construct.NewPositKeeper(),
		Index:               index.New(),
		Persistor:           persistor,
	}
}

// SeedReservedRoles creates the four roles the system relies on internally
// (posit, ascertains, thing, classification), skipping any that restore
// already brought back.
func (db *Database) SeedReservedRoles() error {
	for _, r := range reservedRoleNames {
		if _, _, err := db.CreateRole(r.name, r.reserved); err != nil {
			return errors.Wrap(errors.Invariant, err, "seeding reserved role "+r.name)
		}
	}
	return nil
}

// CreateThing allocates and persists a fresh identity.
func (db *Database) CreateThing() (identity.Thing, error) {
	t := db.ThingGenerator.Generate()
	if err := db.Persistor.PersistThing(t); err != nil {
		return 0, errors.Wrap(errors.Persistence, err, "persisting thing")
	}
	return t, nil
}

// KeepRole canonicalizes role into the RoleKeeper without allocating an
// identity or touching the persistor; used during restore.
func (db *Database) KeepRole(role *construct.Role) (kept *construct.Role, previouslyKept bool) {
	return db.RoleKeeper.Keep(role)
}

// CreateRole allocates an identity, keeps a new Role under it, and persists
// the role row if it was newly kept; otherwise releases the speculative
// identity.
func (db *Database) CreateRole(name string, reserved bool) (kept *construct.Role, previouslyKept bool, err error) {
	roleThing := db.ThingGenerator.Generate()
	kept, previouslyKept = db.KeepRole(construct.NewRole(roleThing, name, reserved))
	if previouslyKept {
		db.ThingGenerator.Release(roleThing)
		return kept, true, nil
	}
	if err := db.Persistor.PersistThing(kept.Thing()); err != nil {
		return kept, false, errors.Wrap(errors.Persistence, err, "persisting role thing")
	}
	if err := db.Persistor.PersistRole(kept); err != nil {
		return kept, false, errors.Wrap(errors.Persistence, err, "persisting role")
	}
	return kept, false, nil
}

// KeepAppearance canonicalizes a (thing, role) pair and updates the
// appearance-facing indexes if it is newly kept.
func (db *Database) KeepAppearance(a *construct.Appearance) (kept *construct.Appearance, previouslyKept bool) {
	kept, previouslyKept = db.AppearanceKeeper.Keep(a)
	if !previouslyKept {
		db.Index.IndexAppearance(kept)
	}
	return kept, previouslyKept
}

// KeepAppearanceSet canonicalizes an AppearanceSet and updates its index if
// newly kept.
func (db *Database) KeepAppearanceSet(s *construct.AppearanceSet) (kept *construct.AppearanceSet, previouslyKept bool) {
	kept, previouslyKept = db.AppearanceSetKeeper.Keep(s)
	if !previouslyKept {
		db.Index.IndexAppearanceSet(kept)
	}
	return kept, previouslyKept
}

// KeepPosit canonicalizes a Posit and updates every posit-facing index if
// newly kept; used during restore, where persistence is already done.
func (db *Database) KeepPosit(p *construct.Posit) (kept *construct.Posit, previouslyKept bool) {
	kept, previouslyKept = db.PositKeeper.Keep(p)
	if !previouslyKept {
		db.Index.IndexPosit(kept)
	}
	return kept, previouslyKept
}

// CreatePosit allocates a posit identity, keeps the Posit, persists it if
// newly kept, or releases the speculative identity on a duplicate.
func (db *Database) CreatePosit(aset *construct.AppearanceSet, value datatype.Value, t datatype.Time) (*construct.Posit, error) {
	positThing := db.ThingGenerator.Generate()
	kept, previouslyKept := db.KeepPosit(construct.NewPosit(positThing, aset, value, t))
	if previouslyKept {
		db.ThingGenerator.Release(positThing)
		return kept, nil
	}
	if err := db.Persistor.PersistThing(kept.Thing()); err != nil {
		return kept, errors.Wrap(errors.Persistence, err, "persisting posit thing")
	}
	if err := db.Persistor.PersistPosit(kept); err != nil {
		return kept, errors.Wrap(errors.Persistence, err, "persisting posit")
	}
	return kept, nil
}

// AppearanceSpec describes one member of a posit's appearance set as given
// by the DSL: either a fresh-binding variable (+x), a recall
// of a variable already bound to one or more candidate things, or a literal
// thing identity.
type AppearanceSpec struct {
	RoleName string
	Insert   bool   // true for "+var": allocate a fresh identity, bound once per statement
	Var      string // variable name, set for both Insert and recall
	Literal  identity.Thing
	HasLit   bool
}

// Env tracks variable -> candidate-thing bindings across a mutation
// statement, so that recalled variables can carry more than one candidate.
type Env struct {
	bindings map[string][]identity.Thing
}

// NewEnv returns an empty variable environment.
func NewEnv() *Env { return &Env{bindings: make(map[string][]identity.Thing)} }

// Bind records candidates for var, replacing any prior binding.
func (e *Env) Bind(v string, candidates []identity.Thing) { e.bindings[v] = candidates }

// Candidates returns the bound candidates for var, or nil if unbound.
func (e *Env) Candidates(v string) []identity.Thing { return e.bindings[v] }

// AddPosit resolves one posit's appearance-set specs against env, allocates
// fresh identities for first-occurrence insertion variables, expands the
// Cartesian product over recalled variables' candidate lists (ordered by
// ascending cardinality for early pruning), and creates one Posit per
// resulting tuple. It returns every distinct kept Posit (after
// intra-statement dedup via CreatePosit's release-on-duplicate path). Callers
// that need a variable bound by one posit literal to be recallable by a
// later one in the same statement must pass the same env to every call.
func (db *Database) AddPosit(specs []AppearanceSpec, value datatype.Value, t datatype.Time, env *Env) ([]*construct.Posit, error) {
	if len(specs) == 0 {
		return nil, errors.New(errors.Execution, "posit must have at least one appearance")
	}

	// Resolve roles up front; role creation is not implied by posit
	// insertion — unknown roles are an execution error.
	roles := make([]*construct.Role, len(specs))
	for i, s := range specs {
		role, ok := db.RoleKeeper.Get(s.RoleName)
		if !ok {
			return nil, errors.Newf(errors.Execution, "unknown role %q", s.RoleName)
		}
		roles[i] = role
	}

	// Resolve each spec to a candidate list of Things, allocating fresh
	// identities for insertion variables (once per distinct var name within
	// this call) and consulting env for recalls.
	insertedThisCall := make(map[string]identity.Thing)
	candidateLists := make([][]identity.Thing, len(specs))
	for i, s := range specs {
		switch {
		case s.HasLit:
			candidateLists[i] = []identity.Thing{s.Literal}
		case s.Insert:
			if th, ok := insertedThisCall[s.Var]; ok {
				candidateLists[i] = []identity.Thing{th}
				continue
			}
			th := db.ThingGenerator.Generate()
			if err := db.Persistor.PersistThing(th); err != nil {
				return nil, errors.Wrap(errors.Persistence, err, "persisting introduced thing")
			}
			insertedThisCall[s.Var] = th
			if env != nil {
				env.Bind(s.Var, []identity.Thing{th})
			}
			candidateLists[i] = []identity.Thing{th}
		default: // recall
			cands, bound := env.bindings[s.Var]
			if !bound {
				return nil, errors.Newf(errors.Execution, "unknown variable %q", s.Var)
			}
			if len(cands) == 0 {
				return nil, nil // empty candidate list yields zero bindings without iteration
			}
			candidateLists[i] = cands
		}
	}

	order := ascendingCardinalityOrder(candidateLists)
	var kept []*construct.Posit
	err := db.cartesianProduct(order, candidateLists, func(assignment []identity.Thing) error {
		appearances := make([]*construct.Appearance, len(specs))
		for i, th := range assignment {
			a, _ := db.KeepAppearance(construct.NewAppearance(th, roles[i]))
			appearances[i] = a
		}
		aset, ok := construct.NewAppearanceSet(appearances)
		if !ok {
			return errors.New(errors.Execution, "appearance set has duplicate roles")
		}
		keptSet, _ := db.KeepAppearanceSet(aset)
		p, err := db.CreatePosit(keptSet, value, t)
		if err != nil {
			return err
		}
		kept = append(kept, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}

// ascendingCardinalityOrder returns the index permutation of lists sorted
// by ascending candidate-list length, so the Cartesian walk prunes empty
// branches as early as possible.
func ascendingCardinalityOrder(lists [][]identity.Thing) []int {
	order := make([]int, len(lists))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(lists[order[a]]) < len(lists[order[b]])
	})
	return order
}

// cartesianProduct walks the Cartesian product of lists in the given
// visitation order, invoking visit with a full-length assignment (indexed
// by the original position, not the visitation order) for every tuple.
func (db *Database) cartesianProduct(order []int, lists [][]identity.Thing, visit func([]identity.Thing) error) error {
	assignment := make([]identity.Thing, len(lists))
	var walk func(depth int) error
	walk = func(depth int) error {
		if depth == len(order) {
			tuple := make([]identity.Thing, len(assignment))
			copy(tuple, assignment)
			return visit(tuple)
		}
		pos := order[depth]
		for _, th := range lists[pos] {
			assignment[pos] = th
			if err := walk(depth + 1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(0)
}
