package query

import (
	"context"
	"strconv"

	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/store"
)

// Evaluate runs one `search` statement to completion: clause-by-clause
// binding expansion, `where` filtering, `return` projection, and `limit`
// truncation.
func Evaluate(db *store.Database, s *ast.Search) (*Result, error) {
	var bindings []*Binding
	for i, c := range s.Clauses {
		var prior []*Binding
		if i > 0 {
			prior = bindings
		}
		next, err := evaluateClause(db, c, prior)
		if err != nil {
			return nil, err
		}
		bindings = next
	}

	if len(s.Where) > 0 {
		filtered := make([]*Binding, 0, len(bindings))
		for _, b := range bindings {
			matched := true
			for _, pred := range s.Where {
				ok, err := evalPredicate(db, pred, b)
				if err != nil {
					return nil, err
				}
				if !ok {
					matched = false
					break
				}
			}
			if matched {
				filtered = append(filtered, b)
			}
		}
		bindings = filtered
	}

	return project(db, s, bindings)
}

func project(db *store.Database, s *ast.Search, bindings []*Binding) (*Result, error) {
	rows := make([][]string, 0, len(bindings))
	rowTypes := make([][]string, 0, len(bindings))
	for _, b := range bindings {
		row := make([]string, len(s.Return))
		types := make([]string, len(s.Return))
		for i, name := range s.Return {
			val, tag, err := projectVar(db, b, name)
			if err != nil {
				return nil, err
			}
			row[i] = val
			types[i] = tag
		}
		rows = append(rows, row)
		rowTypes = append(rowTypes, types)
	}

	limited := false
	if s.HasLimit {
		if s.Limit < 0 {
			return nil, errors.New(errors.Execution, "limit must be >= 0")
		}
		if len(rows) > s.Limit {
			limited = true
			rows = rows[:s.Limit]
			rowTypes = rowTypes[:s.Limit]
		}
	}

	return &Result{
		Columns:  s.Return,
		RowTypes: rowTypes,
		RowCount: len(rows),
		Limited:  limited,
		Rows:     rows,
	}, nil
}

// projectVar renders one returned variable's value and type tag for a
// binding.
func projectVar(db *store.Database, b *Binding, name string) (value string, typeTag string, err error) {
	if slot, ok := b.Slots[name]; ok {
		posit, found := db.PositKeeper.GetByThing(slot.PositThing)
		if !found {
			return "", "", errors.Newf(errors.Invariant, "dangling posit reference for variable %q", name)
		}
		if slot.Kind == SlotTime {
			return posit.Time().String(), datatype.KindTime.Tag(), nil
		}
		return posit.Value().String(), posit.Value().Kind().Tag(), nil
	}
	if thing, ok := b.Identities[name]; ok {
		return strconv.FormatUint(thing, 10), "Thing", nil
	}
	if thing, ok := b.PositVars[name]; ok {
		return strconv.FormatUint(thing, 10), "Thing", nil
	}
	return "", "", errors.Newf(errors.Execution, "unknown return variable %q", name)
}

// ExecuteScript runs every statement of script against db in order,
// collecting one Result per `search` statement. A failing statement
// aborts the remaining statements; prior mutations are not rolled back
// since the store is append-only.
func ExecuteScript(db *store.Database, script *ast.Script) ([]*Result, error) {
	return ExecuteScriptContext(context.Background(), db, script)
}

// ExecuteScriptContext is ExecuteScript with cooperative cancellation
// checked between statements, for the session facade's context-bound
// query handles. A script already midway through a statement runs that
// statement to completion before the next ctx.Err() check; the evaluator
// itself does not poll ctx mid-clause, since no single clause expansion in
// this store's workloads runs long enough to need it.
func ExecuteScriptContext(ctx context.Context, db *store.Database, script *ast.Script) ([]*Result, error) {
	var results []*Result
	for _, stmt := range script.Statements {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrap(errors.Execution, err, "script cancelled")
		}
		switch s := stmt.(type) {
		case *ast.AddRole:
			if err := ExecuteAddRole(db, s); err != nil {
				return results, err
			}
		case *ast.AddPosit:
			if err := ExecuteAddPosit(db, s); err != nil {
				return results, err
			}
		case *ast.Search:
			r, err := Evaluate(db, s)
			if err != nil {
				return results, err
			}
			results = append(results, r)
		default:
			return results, errors.Newf(errors.Invariant, "unhandled statement type %T", stmt)
		}
	}
	return results, nil
}
