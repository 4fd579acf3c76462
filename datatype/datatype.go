// Package datatype implements the closed set of value types a Posit may
// carry: String, I64, Decimal, Certainty, JSON, and Time. Each carries a
// fixed numeric UID and a stable textual tag used by the persistence
// catalog and the DSL.
//
// The set is closed by design: Value is implemented only by the types in
// this package, and dispatch is by an explicit Kind tag rather than runtime
// reflection, per the store's no-reflection design constraint.
package datatype

import "fmt"

// Kind identifies one of the closed set of value data types. The numeric
// values are the catalog UIDs persisted in the DataType table; they must
// stay stable across releases so a restored store's catalog rows stay
// meaningful.
type Kind uint8

const (
	KindCertainty Kind = 1
	KindString    Kind = 2
	KindI64       Kind = 5
	KindDecimal   Kind = 6
	KindJSON      Kind = 7
	KindTime      Kind = 8
)

// Tag returns the stable textual name of the kind, as stored in the
// DataType catalog table and surfaced in row_types.
func (k Kind) Tag() string {
	switch k {
	case KindCertainty:
		return "Certainty"
	case KindString:
		return "String"
	case KindI64:
		return "i64"
	case KindDecimal:
		return "Decimal"
	case KindJSON:
		return "JSON"
	case KindTime:
		return "Time"
	default:
		return "Unknown"
	}
}

func (k Kind) String() string { return k.Tag() }

// ProbeOrder is the deterministic partition probe order the evaluator falls
// back to when role-name -> value-type is ambiguous or unrecorded.
var ProbeOrder = []Kind{KindString, KindJSON, KindDecimal, KindI64, KindCertainty, KindTime}

// Value is implemented by every member of the closed value-type set.
type Value interface {
	fmt.Stringer
	Kind() Kind
	// Equal reports equality against another Value. It is type-exact for
	// every kind except the I64/Decimal pair, which compare numerically
	// (I64(5) equals the Decimal 5). `where` predicate equality and search
	// clause value narrowing call Equal directly.
	Equal(other Value) bool
}

// Ordered is implemented by Value kinds that support <, <=, >, >= directly
// against a same-kind peer (the type rules: Certainty, Time, and
// same-Value-kind orderings).
type Ordered interface {
	Value
	Less(other Value) bool
}
