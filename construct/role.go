// Package construct implements the canonical, deduplicating stores
// ("keepers") for Roles, Appearances, AppearanceSets, and Posits. Every
// equal construct has exactly one in-memory copy; indexes and query
// results hold non-owning references into these keepers.
package construct

import (
	"strings"
	"sync"

	"github.com/transitdb/transit/identity"
)

// Role is a named semantic placeholder. It is itself a Thing so the store
// can posit about its own roles. Once kept, a Role is immutable.
type Role struct {
	thing    identity.Thing
	name     string
	reserved bool
}

// NewRole constructs a Role. Use RoleKeeper.Keep to canonicalize it.
func NewRole(thing identity.Thing, name string, reserved bool) *Role {
	return &Role{thing: thing, name: name, reserved: reserved}
}

func (r *Role) Thing() identity.Thing { return r.thing }
func (r *Role) Name() string          { return r.name }
func (r *Role) Reserved() bool        { return r.reserved }

// roleKey returns the case-insensitive identity key: equality is by
// upper-cased name together with the reserved flag.
func roleKey(name string, reserved bool) string {
	if reserved {
		return "R:" + strings.ToUpper(name)
	}
	return "U:" + strings.ToUpper(name)
}

// RoleKeeper is the canonical, case-insensitive-keyed store of named roles.
type RoleKeeper struct {
	mu       sync.Mutex
	byName   map[string]*Role
	byThing  map[identity.Thing]*Role
}

// NewRoleKeeper returns an empty RoleKeeper.
func NewRoleKeeper() *RoleKeeper {
	return &RoleKeeper{
		byName:  make(map[string]*Role),
		byThing: make(map[identity.Thing]*Role),
	}
}

// Keep inserts role by name (case-insensitive, paired with its reserved
// flag). If a same-keyed role already exists, the existing canonical Role is
// returned with previouslyKept=true and the caller's candidate is discarded.
func (k *RoleKeeper) Keep(role *Role) (kept *Role, previouslyKept bool) {
	key := roleKey(role.name, role.reserved)
	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.byName[key]; ok {
		return existing, true
	}
	k.byName[key] = role
	k.byThing[role.thing] = role
	return role, false
}

// Get looks up a kept role by display name (case-insensitive) regardless of
// its reserved flag, preferring a reserved match if both exist.
func (k *RoleKeeper) Get(name string) (*Role, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if r, ok := k.byName[roleKey(name, true)]; ok {
		return r, true
	}
	r, ok := k.byName[roleKey(name, false)]
	return r, ok
}

// Lookup resolves a role by its own identity.
func (k *RoleKeeper) Lookup(thing identity.Thing) (*Role, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.byThing[thing]
	return r, ok
}

// Len returns the number of distinct kept roles.
func (k *RoleKeeper) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.byName)
}

// All returns a snapshot of every kept role.
func (k *RoleKeeper) All() []*Role {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Role, 0, len(k.byName))
	for _, r := range k.byName {
		out = append(out, r)
	}
	return out
}
