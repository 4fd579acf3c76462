// Package query implements the evaluator: binding expansion across search
// clauses, "as of" snapshotting, `where` predicate filtering across the
// closed value-type set, `return` projection, and `limit` truncation. Kept
// as its own layer, separate from both the store and the parser, since
// neither of those owns binding multiplicity.
package query

import (
	"strconv"

	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
)

// resolveValue interprets a parsed value literal's raw text per its Kind.
// Callers must not pass IsVar/IsWild literals; those are resolved through
// bindings instead.
func resolveValue(v *ast.ValueLiteral) (datatype.Value, error) {
	switch v.Kind {
	case ast.ValString:
		return datatype.String(v.Text), nil
	case ast.ValInt:
		n, err := strconv.ParseInt(v.Text, 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.Parse, "invalid integer literal %q: %v", v.Text, err)
		}
		return datatype.I64(n), nil
	case ast.ValDecimal:
		return datatype.ParseDecimalLiteral(v.Text)
	case ast.ValCertainty:
		return datatype.ParseCertaintyLiteral(v.Text)
	case ast.ValJSON:
		return datatype.ParseJSONLiteral(v.Text)
	case ast.ValTime:
		return resolveTimeText(v.Text)
	default:
		return nil, errors.Newf(errors.Invariant, "unresolvable value literal kind %d", v.Kind)
	}
}

// resolveTime interprets a parsed time literal's raw text (TIMELIT/ATLIT
// tokens already carry bare, unquoted text).
func resolveTime(t *ast.TimeLiteral) (datatype.Time, error) {
	return resolveTimeText(t.Text)
}

func resolveTimeText(text string) (datatype.Time, error) {
	return datatype.ParseTimeLiteral(text)
}
