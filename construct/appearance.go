package construct

import (
	"fmt"
	"sync"

	"github.com/transitdb/transit/identity"
)

// Appearance is a (thing, role) pair. Two appearances are equal iff both
// components are equal; since Roles are canonical, role equality is
// reference equality.
type Appearance struct {
	thing identity.Thing
	role  *Role
}

// NewAppearance constructs an Appearance. Use AppearanceKeeper.Keep to
// canonicalize it.
func NewAppearance(thing identity.Thing, role *Role) *Appearance {
	return &Appearance{thing: thing, role: role}
}

func (a *Appearance) Thing() identity.Thing { return a.thing }
func (a *Appearance) Role() *Role           { return a.role }

func (a *Appearance) String() string {
	return fmt.Sprintf("(%d,%s)", a.thing, a.role.Name())
}

func appearanceKey(thing identity.Thing, role *Role) string {
	return fmt.Sprintf("%d#%d", thing, role.Thing())
}

// AppearanceKeeper is the canonical store of (thing, role) pairs.
type AppearanceKeeper struct {
	mu   sync.Mutex
	kept map[string]*Appearance
}

// NewAppearanceKeeper returns an empty AppearanceKeeper.
func NewAppearanceKeeper() *AppearanceKeeper {
	return &AppearanceKeeper{kept: make(map[string]*Appearance)}
}

// Keep inserts or returns the existing canonical Appearance.
func (k *AppearanceKeeper) Keep(a *Appearance) (kept *Appearance, previouslyKept bool) {
	key := appearanceKey(a.thing, a.role)
	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.kept[key]; ok {
		return existing, true
	}
	k.kept[key] = a
	return a, false
}

// Len returns the number of distinct kept appearances.
func (k *AppearanceKeeper) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.kept)
}
