package construct

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/transitdb/transit/identity"
)

// AppearanceSet is a sorted, duplicate-free vector of Appearance with the
// invariant that no two appearances share the same role. Members are
// ordered by role name (case-insensitive) so that Roles() is the sorted
// join key used by the value-type index and so that the
// persisted serialization is deterministic.
type AppearanceSet struct {
	members []*Appearance
}

// NewAppearanceSet sorts the input by role name and rejects it (returning
// ok=false) if two members share a role.
func NewAppearanceSet(appearances []*Appearance) (set *AppearanceSet, ok bool) {
	members := make([]*Appearance, len(appearances))
	copy(members, appearances)
	sort.Slice(members, func(i, j int) bool {
		return strings.ToUpper(members[i].role.Name()) < strings.ToUpper(members[j].role.Name())
	})
	seen := make(map[identity.Thing]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.role.Thing()]; dup {
			return nil, false
		}
		seen[m.role.Thing()] = struct{}{}
	}
	return &AppearanceSet{members: members}, true
}

// Appearances returns the ordered members.
func (s *AppearanceSet) Appearances() []*Appearance { return s.members }

// Roles returns the role-name list in sorted order, the join key used by
// the role-names -> value-type index.
func (s *AppearanceSet) Roles() []string {
	out := make([]string, len(s.members))
	for i, m := range s.members {
		out[i] = strings.ToUpper(m.role.Name())
	}
	return out
}

// ByRole returns the appearance at the given role, if present.
func (s *AppearanceSet) ByRole(roleThing identity.Thing) (*Appearance, bool) {
	for _, m := range s.members {
		if m.role.Thing() == roleThing {
			return m, true
		}
	}
	return nil, false
}

func (s *AppearanceSet) key() string {
	var b strings.Builder
	for i, m := range s.members {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(appearanceKey(m.thing, m.role))
	}
	return b.String()
}

// Serialize renders the pipe-delimited "thing_id,role_id|..." text format
// required by the byte-exact AppearanceSet serialization.
func (s *AppearanceSet) Serialize() string {
	parts := make([]string, len(s.members))
	for i, m := range s.members {
		parts[i] = strconv.FormatUint(m.thing, 10) + "," + strconv.FormatUint(m.role.Thing(), 10)
	}
	return strings.Join(parts, "|")
}

// AppearanceSetKeeper is the canonical store of AppearanceSets, keyed by
// structural hash over the ordered members.
type AppearanceSetKeeper struct {
	mu   sync.Mutex
	kept map[string]*AppearanceSet
}

// NewAppearanceSetKeeper returns an empty AppearanceSetKeeper.
func NewAppearanceSetKeeper() *AppearanceSetKeeper {
	return &AppearanceSetKeeper{kept: make(map[string]*AppearanceSet)}
}

// Keep inserts or returns the existing canonical AppearanceSet.
func (k *AppearanceSetKeeper) Keep(s *AppearanceSet) (kept *AppearanceSet, previouslyKept bool) {
	key := s.key()
	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.kept[key]; ok {
		return existing, true
	}
	k.kept[key] = s
	return s, false
}

// Len returns the number of distinct kept appearance sets.
func (k *AppearanceSetKeeper) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.kept)
}
