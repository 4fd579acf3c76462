// Package visitor provides AST traversal for the Transitional Modeling DSL
// via a Visit/Walk pattern over this grammar's node set.
package visitor

import "github.com/transitdb/transit/ast"

// Visitor is the interface for AST traversal. Visit returns a (possibly
// different) Visitor to use for the node's children, or nil to stop
// descending into them.
type Visitor interface {
	Visit(node ast.Node) Visitor
}

// Walk traverses script in depth-first order, visiting every statement,
// clause, appearance spec, value/time literal, and predicate operand.
func Walk(v Visitor, script *ast.Script) {
	for _, stmt := range script.Statements {
		walkStatement(v, stmt)
	}
}

func walkStatement(v Visitor, stmt ast.Statement) {
	if v = v.Visit(stmt); v == nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.AddRole:
		// no child nodes beyond the name list, which carries no position
	case *ast.AddPosit:
		for _, p := range s.Posits {
			walkPositLiteral(v, p)
		}
	case *ast.Search:
		for _, c := range s.Clauses {
			walkSearchClause(v, c)
		}
		for _, pred := range s.Where {
			walkPredicate(v, pred)
		}
	}
}

func walkPositLiteral(v Visitor, p *ast.PositLiteral) {
	if v = v.Visit(p); v == nil {
		return
	}
	for _, a := range p.Appearances {
		walkAppearanceSpec(v, a)
	}
	walkValueLiteral(v, p.Value)
	walkTimeLiteral(v, p.Time)
}

func walkSearchClause(v Visitor, c *ast.SearchClause) {
	if v = v.Visit(c); v == nil {
		return
	}
	for _, a := range c.Appearances {
		walkAppearanceSpec(v, a)
	}
	walkValueLiteral(v, c.Value)
	walkTimeLiteral(v, c.Time)
	if c.AsOf != nil {
		walkTimeLiteral(v, c.AsOf)
	}
}

func walkAppearanceSpec(v Visitor, a *ast.AppearanceSpec) {
	if a == nil {
		return
	}
	v.Visit(a)
}

func walkValueLiteral(v Visitor, val *ast.ValueLiteral) {
	if val == nil {
		return
	}
	v.Visit(val)
}

func walkTimeLiteral(v Visitor, t *ast.TimeLiteral) {
	if t == nil {
		return
	}
	v.Visit(t)
}

func walkPredicate(v Visitor, p *ast.Predicate) {
	if v = v.Visit(p); v == nil {
		return
	}
	if p.Left != nil {
		v.Visit(p.Left)
	}
	if p.Right != nil {
		v.Visit(p.Right)
	}
}
