package query

import "github.com/transitdb/transit/identity"

// SlotKind distinguishes a value-slot binding from a time-slot binding.
type SlotKind int

const (
	SlotValue SlotKind = iota
	SlotTime
)

// Slot records that a variable was bound to the value or time carried by a
// specific posit, so projection and predicate evaluation can look it up by
// re-reading that posit rather than carrying the resolved datatype.Value
// around (which would duplicate storage already owned by the keeper).
type Slot struct {
	PositThing identity.Thing
	Kind       SlotKind
}

// Binding is one row of the evaluator's working set: identity variables
// ("+x"/"x" appearance bindings), posit variables ("+p"), and value/time
// slot bindings, tagged by kind at first occurrence.
type Binding struct {
	Identities map[string]identity.Thing
	PositVars  map[string]identity.Thing
	Slots      map[string]Slot
}

func newBinding() *Binding {
	return &Binding{
		Identities: make(map[string]identity.Thing),
		PositVars:  make(map[string]identity.Thing),
		Slots:      make(map[string]Slot),
	}
}

func (b *Binding) clone() *Binding {
	nb := newBinding()
	for k, v := range b.Identities {
		nb.Identities[k] = v
	}
	for k, v := range b.PositVars {
		nb.PositVars[k] = v
	}
	for k, v := range b.Slots {
		nb.Slots[k] = v
	}
	return nb
}
