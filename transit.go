// Package transit provides a convenience API over the DSL pipeline:
// Parse, Format, and Walk.
package transit

import (
	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/format"
	"github.com/transitdb/transit/parser"
	"github.com/transitdb/transit/visitor"
)

// Parse parses a full script (one or more ';'-terminated statements). The
// parser uses internal pooling for efficiency.
func Parse(script string) (*ast.Script, error) {
	p := parser.Get(script)
	defer parser.Put(p)
	return p.ParseScript()
}

// Format renders a parsed script back to canonical DSL text.
func Format(script *ast.Script) string { return format.String(script) }

// Walk traverses script's statements in depth-first order.
func Walk(v visitor.Visitor, script *ast.Script) { visitor.Walk(v, script) }
