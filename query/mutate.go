package query

import (
	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/store"
)

// ExecuteAddRole implements `add role NAME (, NAME)*`: each
// name becomes its own, non-reserved CreateRole call.
func ExecuteAddRole(db *store.Database, stmt *ast.AddRole) error {
	for _, name := range stmt.Names {
		if _, _, err := db.CreateRole(name, false); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteAddPosit implements `add posit POSIT (, POSIT)*`. One Env is
// shared across every posit literal in the statement, so a "+x" insertion
// in an earlier literal is visible to a "x" recall in a later one — the
// same identity, not a disconnected one.
func ExecuteAddPosit(db *store.Database, stmt *ast.AddPosit) error {
	env := store.NewEnv()
	for _, p := range stmt.Posits {
		if err := executeOnePosit(db, p, env); err != nil {
			return err
		}
	}
	return nil
}

func executeOnePosit(db *store.Database, p *ast.PositLiteral, env *store.Env) error {
	specs := make([]store.AppearanceSpec, len(p.Appearances))
	for i, a := range p.Appearances {
		spec, err := compileAppearanceSpec(a)
		if err != nil {
			return err
		}
		specs[i] = spec
	}

	if p.Value.IsVar || p.Value.IsWild {
		return errors.New(errors.Execution, "add posit value must be a literal")
	}
	value, err := resolveValue(p.Value)
	if err != nil {
		return err
	}

	if p.Time.IsVar || p.Time.IsWild {
		return errors.New(errors.Execution, "add posit time must be a literal")
	}
	t, err := resolveTime(p.Time)
	if err != nil {
		return err
	}

	_, err = db.AddPosit(specs, value, t, env)
	return err
}

func compileAppearanceSpec(a *ast.AppearanceSpec) (store.AppearanceSpec, error) {
	switch a.Kind {
	case ast.Insert:
		return store.AppearanceSpec{RoleName: a.RoleName, Insert: true, Var: a.Var}, nil
	case ast.Recall:
		return store.AppearanceSpec{RoleName: a.RoleName, Var: a.Var}, nil
	case ast.LiteralThing:
		return store.AppearanceSpec{RoleName: a.RoleName, Literal: a.Literal, HasLit: true}, nil
	default:
		return store.AppearanceSpec{}, errors.New(errors.Execution, "add posit appearances must be insertions, recalls, or literal things")
	}
}
