// Package index implements the secondary lookups the evaluator needs:
// multimaps from one construct to another, expressed per concrete
// key/value pair instead of a single generic type, since Go has no
// ergonomic equivalent of a typemap-driven generic HashMap<K, HashSet<V>>.
package index

import (
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/identity"
)

// ThingAppearances maps a Thing to every Appearance it plays a role in.
type ThingAppearances struct {
	mu  sync.RWMutex
	idx map[identity.Thing][]*construct.Appearance
}

func NewThingAppearances() *ThingAppearances {
	return &ThingAppearances{idx: make(map[identity.Thing][]*construct.Appearance)}
}

func (i *ThingAppearances) Insert(thing identity.Thing, a *construct.Appearance) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.idx[thing] = append(i.idx[thing], a)
}

func (i *ThingAppearances) Lookup(thing identity.Thing) []*construct.Appearance {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.idx[thing]
}

// RoleAppearances maps a reserved Role to every Appearance using it. Only
// reserved roles are indexed here: ordinary roles are found
// through AppearanceSets instead, keeping this index small.
type RoleAppearances struct {
	mu  sync.RWMutex
	idx map[identity.Thing][]*construct.Appearance
}

func NewRoleAppearances() *RoleAppearances {
	return &RoleAppearances{idx: make(map[identity.Thing][]*construct.Appearance)}
}

func (i *RoleAppearances) Insert(a *construct.Appearance) {
	if !a.Role().Reserved() {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.idx[a.Role().Thing()] = append(i.idx[a.Role().Thing()], a)
}

func (i *RoleAppearances) Lookup(roleThing identity.Thing) []*construct.Appearance {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.idx[roleThing]
}

// AppearanceAppearanceSets maps an Appearance to every AppearanceSet that
// contains it. The query evaluator does not read it; search clauses check
// recalled variables against each candidate's own AppearanceSet.
type AppearanceAppearanceSets struct {
	mu  sync.RWMutex
	idx map[*construct.Appearance][]*construct.AppearanceSet
}

func NewAppearanceAppearanceSets() *AppearanceAppearanceSets {
	return &AppearanceAppearanceSets{idx: make(map[*construct.Appearance][]*construct.AppearanceSet)}
}

func (i *AppearanceAppearanceSets) Insert(a *construct.Appearance, s *construct.AppearanceSet) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.idx[a] = append(i.idx[a], s)
}

func (i *AppearanceAppearanceSets) Lookup(a *construct.Appearance) []*construct.AppearanceSet {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.idx[a]
}

// AppearanceSetPosits maps an AppearanceSet to the bitmap of posit Things
// asserted over it. Search clauses draw their candidates from RolePosits,
// not from this index.
type AppearanceSetPosits struct {
	mu  sync.RWMutex
	idx map[*construct.AppearanceSet]*roaring64.Bitmap
}

func NewAppearanceSetPosits() *AppearanceSetPosits {
	return &AppearanceSetPosits{idx: make(map[*construct.AppearanceSet]*roaring64.Bitmap)}
}

func (i *AppearanceSetPosits) Insert(s *construct.AppearanceSet, positThing identity.Thing) {
	i.mu.Lock()
	defer i.mu.Unlock()
	b, ok := i.idx[s]
	if !ok {
		b = roaring64.New()
		i.idx[s] = b
	}
	b.Add(positThing)
}

func (i *AppearanceSetPosits) Lookup(s *construct.AppearanceSet) *roaring64.Bitmap {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if b, ok := i.idx[s]; ok {
		return b
	}
	return roaring64.New()
}

// RolePosits maps a Role to the bitmap of posit Things asserted over any
// AppearanceSet that includes it — the role-bitmap intersection candidate
// set the evaluator narrows on a per-clause basis.
type RolePosits struct {
	mu  sync.RWMutex
	idx map[identity.Thing]*roaring64.Bitmap
}

func NewRolePosits() *RolePosits {
	return &RolePosits{idx: make(map[identity.Thing]*roaring64.Bitmap)}
}

func (i *RolePosits) Insert(roleThing identity.Thing, positThing identity.Thing) {
	i.mu.Lock()
	defer i.mu.Unlock()
	b, ok := i.idx[roleThing]
	if !ok {
		b = roaring64.New()
		i.idx[roleThing] = b
	}
	b.Add(positThing)
}

func (i *RolePosits) Lookup(roleThing identity.Thing) *roaring64.Bitmap {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if b, ok := i.idx[roleThing]; ok {
		return b
	}
	return roaring64.New()
}

// PositAppearanceSet and PositTime are scalar (not multimap) indexes: each
// posit thing has exactly one AppearanceSet and one Time, so a plain map
// suffices.
type PositAppearanceSet struct {
	mu  sync.RWMutex
	idx map[identity.Thing]*construct.AppearanceSet
}

func NewPositAppearanceSet() *PositAppearanceSet {
	return &PositAppearanceSet{idx: make(map[identity.Thing]*construct.AppearanceSet)}
}

func (i *PositAppearanceSet) Set(positThing identity.Thing, s *construct.AppearanceSet) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.idx[positThing] = s
}

func (i *PositAppearanceSet) Get(positThing identity.Thing) (*construct.AppearanceSet, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.idx[positThing]
	return s, ok
}

type PositTime struct {
	mu  sync.RWMutex
	idx map[identity.Thing]datatype.Time
}

func NewPositTime() *PositTime {
	return &PositTime{idx: make(map[identity.Thing]datatype.Time)}
}

func (i *PositTime) Set(positThing identity.Thing, t datatype.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.idx[positThing] = t
}

func (i *PositTime) Get(positThing identity.Thing) (datatype.Time, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.idx[positThing]
	return t, ok
}

// RoleNamesValueType maps a sorted, uppercased role-name tuple to the set
// of value-type Kinds ever asserted for that AppearanceSet shape. It is
// filled on every posit insertion; the query evaluator does not read it,
// since `return` projection takes the value straight from each posit.
type RoleNamesValueType struct {
	mu  sync.RWMutex
	idx map[string]map[datatype.Kind]struct{}
}

func NewRoleNamesValueType() *RoleNamesValueType {
	return &RoleNamesValueType{idx: make(map[string]map[datatype.Kind]struct{})}
}

func roleNamesKey(roles []string) string {
	return strings.Join(roles, "|")
}

func (i *RoleNamesValueType) Insert(roles []string, kind datatype.Kind) {
	key := roleNamesKey(roles)
	i.mu.Lock()
	defer i.mu.Unlock()
	set, ok := i.idx[key]
	if !ok {
		set = make(map[datatype.Kind]struct{})
		i.idx[key] = set
	}
	set[kind] = struct{}{}
}

// Kinds returns every Kind ever observed for this role-name shape, in the
// deterministic datatype.ProbeOrder so callers can pick a stable default
// when more than one Kind is registered.
func (i *RoleNamesValueType) Kinds(roles []string) []datatype.Kind {
	i.mu.RLock()
	defer i.mu.RUnlock()
	set, ok := i.idx[roleNamesKey(roles)]
	if !ok {
		return nil
	}
	out := make([]datatype.Kind, 0, len(set))
	for _, k := range datatype.ProbeOrder {
		if _, present := set[k]; present {
			out = append(out, k)
		}
	}
	return out
}

// Set bundles every secondary index maintained alongside the keepers,
// updated atomically as part of posit insertion.
type Set struct {
	ThingAppearances         *ThingAppearances
	RoleAppearances          *RoleAppearances
	AppearanceAppearanceSets *AppearanceAppearanceSets
	AppearanceSetPosits      *AppearanceSetPosits
	RolePosits               *RolePosits
	PositAppearanceSet       *PositAppearanceSet
	PositTime                *PositTime
	RoleNamesValueType       *RoleNamesValueType
}

// New constructs an empty Set of all eight secondary indexes.
func New() *Set {
	return &Set{
		ThingAppearances:         NewThingAppearances(),
		RoleAppearances:          NewRoleAppearances(),
		AppearanceAppearanceSets: NewAppearanceAppearanceSets(),
		AppearanceSetPosits:      NewAppearanceSetPosits(),
		RolePosits:               NewRolePosits(),
		PositAppearanceSet:       NewPositAppearanceSet(),
		PositTime:                NewPositTime(),
		RoleNamesValueType:       NewRoleNamesValueType(),
	}
}

// IndexAppearance records a freshly-kept Appearance into the appearance-
// facing indexes. Call once per distinct (thing, role) pair, not per use.
func (s *Set) IndexAppearance(a *construct.Appearance) {
	s.ThingAppearances.Insert(a.Thing(), a)
	s.RoleAppearances.Insert(a)
}

// IndexAppearanceSet records a freshly-kept AppearanceSet against each of
// its member appearances.
func (s *Set) IndexAppearanceSet(set *construct.AppearanceSet) {
	for _, a := range set.Appearances() {
		s.AppearanceAppearanceSets.Insert(a, set)
	}
}

// IndexPosit records a freshly-kept Posit across every posit-facing index.
func (s *Set) IndexPosit(p *construct.Posit) {
	positThing := p.Thing()
	set := p.AppearanceSet()
	s.AppearanceSetPosits.Insert(set, positThing)
	s.PositAppearanceSet.Set(positThing, set)
	s.PositTime.Set(positThing, p.Time())
	s.RoleNamesValueType.Insert(set.Roles(), p.Value().Kind())
	for _, a := range set.Appearances() {
		s.RolePosits.Insert(a.Role().Thing(), positThing)
	}
}
