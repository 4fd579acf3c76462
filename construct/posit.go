package construct

import (
	"fmt"
	"sync"

	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/identity"
)

// Posit is the store's unit of assertion: (AppearanceSet, Value, Time).
// Identity is its own Thing; equality is structural on the other three
// fields. Value ranges over the closed datatype.Value set, dispatched by
// Kind rather than Go generics, matching the "avoid runtime reflection"
// design constraint for a type-partitioned keeper.
type Posit struct {
	thing         identity.Thing
	appearanceSet *AppearanceSet
	value         datatype.Value
	time          datatype.Time
}

// NewPosit constructs a Posit. Use PositKeeper.Keep to canonicalize it.
func NewPosit(thing identity.Thing, aset *AppearanceSet, value datatype.Value, t datatype.Time) *Posit {
	return &Posit{thing: thing, appearanceSet: aset, value: value, time: t}
}

func (p *Posit) Thing() identity.Thing         { return p.thing }
func (p *Posit) AppearanceSet() *AppearanceSet { return p.appearanceSet }
func (p *Posit) Value() datatype.Value         { return p.value }
func (p *Posit) Time() datatype.Time           { return p.time }

func (p *Posit) String() string {
	return fmt.Sprintf("[%s,%s,%s]", p.appearanceSet.Serialize(), p.value, p.time)
}

func (p *Posit) key() string {
	return fmt.Sprintf("%p|%s|%s", p.appearanceSet, p.value, p.time)
}

// PositKeeper is the canonical store of Posits, type-partitioned by value
// Kind: for each Kind a bidirectional mapping Posit <-> posit_thing.
type PositKeeper struct {
	mu       sync.Mutex
	byThing  map[identity.Thing]*Posit
	byKind   map[datatype.Kind]map[string]*Posit
}

// NewPositKeeper returns an empty PositKeeper.
func NewPositKeeper() *PositKeeper {
	return &PositKeeper{
		byThing: make(map[identity.Thing]*Posit),
		byKind:  make(map[datatype.Kind]map[string]*Posit),
	}
}

// Keep inserts or returns the existing canonical Posit for its value kind.
func (k *PositKeeper) Keep(p *Posit) (kept *Posit, previouslyKept bool) {
	kind := p.value.Kind()
	key := p.key()
	k.mu.Lock()
	defer k.mu.Unlock()
	partition, ok := k.byKind[kind]
	if !ok {
		partition = make(map[string]*Posit)
		k.byKind[kind] = partition
	}
	if existing, ok := partition[key]; ok {
		return existing, true
	}
	partition[key] = p
	k.byThing[p.thing] = p
	return p, false
}

// GetByThing looks up a posit by its identity, across all value kinds.
func (k *PositKeeper) GetByThing(t identity.Thing) (*Posit, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.byThing[t]
	return p, ok
}

// Len aggregates the count across all type partitions.
func (k *PositKeeper) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.byThing)
}
