package query

import (
	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/store"
)

// evalPredicate resolves both operands of pred against b and compares them
// per the type rules.
func evalPredicate(db *store.Database, pred *ast.Predicate, b *Binding) (bool, error) {
	left, err := resolveOperand(db, b, pred.Left)
	if err != nil {
		return false, err
	}
	right, err := resolveOperand(db, b, pred.Right)
	if err != nil {
		return false, err
	}
	return compareOp(pred.Op, left, right)
}

func resolveOperand(db *store.Database, b *Binding, o *ast.Operand) (datatype.Value, error) {
	if !o.IsVar {
		return resolveValue(o.Literal)
	}
	if slot, ok := b.Slots[o.Var]; ok {
		posit, found := db.PositKeeper.GetByThing(slot.PositThing)
		if !found {
			return nil, errors.Newf(errors.Invariant, "dangling posit reference for variable %q", o.Var)
		}
		if slot.Kind == SlotTime {
			return posit.Time(), nil
		}
		return posit.Value(), nil
	}
	if thing, ok := b.Identities[o.Var]; ok {
		return datatype.I64(int64(thing)), nil
	}
	if thing, ok := b.PositVars[o.Var]; ok {
		return datatype.I64(int64(thing)), nil
	}
	return nil, errors.Newf(errors.Execution, "unknown variable %q in predicate", o.Var)
}

// compareOp applies op to a pair of resolved values: `=`
// is allowed across any pair of kinds (Value.Equal already implements the
// cross-kind rules — i64/Decimal promote, Certainty/String/JSON/Time are
// type-exact); ordering is allowed only within {i64,Decimal}, same-kind
// Certainty, and same-kind Time, and never for String or JSON (neither
// implements datatype.Ordered).
func compareOp(op ast.PredicateOp, a, b datatype.Value) (bool, error) {
	if op == ast.OpEq {
		return a.Equal(b), nil
	}
	if !orderingAllowed(a, b) {
		return false, errors.Newf(errors.Execution, "ordering comparison not allowed between %s and %s", a.Kind(), b.Kind())
	}
	ao, aok := a.(datatype.Ordered)
	bo, bok := b.(datatype.Ordered)
	if !aok || !bok {
		return false, errors.Newf(errors.Execution, "ordering comparison not allowed between %s and %s", a.Kind(), b.Kind())
	}
	switch op {
	case ast.OpLt:
		return ao.Less(b), nil
	case ast.OpLte:
		return ao.Less(b) || a.Equal(b), nil
	case ast.OpGt:
		return bo.Less(a), nil
	case ast.OpGte:
		return bo.Less(a) || a.Equal(b), nil
	default:
		return false, errors.Newf(errors.Invariant, "unhandled predicate operator %d", op)
	}
}

func orderingAllowed(a, b datatype.Value) bool {
	if a.Kind() == b.Kind() {
		return true
	}
	return (a.Kind() == datatype.KindI64 && b.Kind() == datatype.KindDecimal) ||
		(a.Kind() == datatype.KindDecimal && b.Kind() == datatype.KindI64)
}
