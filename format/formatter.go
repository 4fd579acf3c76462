// Package format renders a parsed script back to canonical DSL text. Used
// to normalize scripts before hashing them for the session package's
// parsed-script cache key, and for debug logging.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/transitdb/transit/ast"
)

// String renders script as canonical DSL text, one statement per line.
func String(script *ast.Script) string {
	var buf bytes.Buffer
	for _, stmt := range script.Statements {
		writeStatement(&buf, stmt)
		buf.WriteString(";\n")
	}
	return buf.String()
}

func writeStatement(buf *bytes.Buffer, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.AddRole:
		fmt.Fprintf(buf, "add role %s", strings.Join(s.Names, ", "))
	case *ast.AddPosit:
		buf.WriteString("add posit ")
		for i, p := range s.Posits {
			if i > 0 {
				buf.WriteString(", ")
			}
			writePositLiteral(buf, p)
		}
	case *ast.Search:
		writeSearch(buf, s)
	}
}

func writePositLiteral(buf *bytes.Buffer, p *ast.PositLiteral) {
	buf.WriteByte('[')
	writeAppearanceSet(buf, p.Appearances)
	buf.WriteByte(',')
	writeValueLiteral(buf, p.Value)
	buf.WriteByte(',')
	writeTimeLiteral(buf, p.Time)
	buf.WriteByte(']')
}

func writeAppearanceSet(buf *bytes.Buffer, specs []*ast.AppearanceSpec) {
	buf.WriteByte('{')
	for i, a := range specs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('(')
		switch a.Kind {
		case ast.Insert:
			fmt.Fprintf(buf, "+%s", a.Var)
		case ast.Recall:
			buf.WriteString(a.Var)
		case ast.Wildcard:
			buf.WriteByte('*')
		case ast.LiteralThing:
			fmt.Fprintf(buf, "%d", a.Literal)
		case ast.UnionRecall:
			buf.WriteString(strings.Join(a.Union, "|"))
		}
		fmt.Fprintf(buf, ",%s)", a.RoleName)
	}
	buf.WriteByte('}')
}

func writeValueLiteral(buf *bytes.Buffer, v *ast.ValueLiteral) {
	switch {
	case v.IsWild:
		buf.WriteByte('*')
	case v.IsVar && v.IsInsert:
		fmt.Fprintf(buf, "+%s", v.Var)
	case v.IsVar:
		buf.WriteString(v.Var)
	case v.Kind == ast.ValString:
		buf.WriteString("\"" + strings.ReplaceAll(v.Text, "\"", "\"\"") + "\"")
	case v.Kind == ast.ValTime && strings.HasPrefix(v.Text, "@"):
		buf.WriteString(v.Text)
	case v.Kind == ast.ValTime:
		fmt.Fprintf(buf, "'%s'", v.Text)
	default:
		buf.WriteString(v.Text)
	}
}

func writeTimeLiteral(buf *bytes.Buffer, t *ast.TimeLiteral) {
	switch {
	case t.IsWild:
		buf.WriteByte('*')
	case t.IsVar && t.IsInsert:
		fmt.Fprintf(buf, "+%s", t.Var)
	case t.IsVar:
		buf.WriteString(t.Var)
	case strings.HasPrefix(t.Text, "@"):
		buf.WriteString(t.Text)
	default:
		fmt.Fprintf(buf, "'%s'", t.Text)
	}
}

func writeSearch(buf *bytes.Buffer, s *ast.Search) {
	buf.WriteString("search ")
	for i, c := range s.Clauses {
		if i > 0 {
			buf.WriteString(", ")
		}
		if c.HasPositVar {
			fmt.Fprintf(buf, "+%s", c.PositVar)
		}
		buf.WriteByte('[')
		writeAppearanceSet(buf, c.Appearances)
		buf.WriteByte(',')
		writeValueLiteral(buf, c.Value)
		buf.WriteByte(',')
		writeTimeLiteral(buf, c.Time)
		buf.WriteByte(']')
		if c.AsOf != nil {
			buf.WriteString(" as of ")
			writeTimeLiteral(buf, c.AsOf)
		}
	}
	if len(s.Where) > 0 {
		buf.WriteString(" where ")
		for i, p := range s.Where {
			if i > 0 {
				buf.WriteString(" and ")
			}
			writeOperand(buf, p.Left)
			buf.WriteString(opText(p.Op))
			writeOperand(buf, p.Right)
		}
	}
	if len(s.Return) > 0 {
		fmt.Fprintf(buf, " return %s", strings.Join(s.Return, ","))
	}
	if s.HasLimit {
		fmt.Fprintf(buf, " limit %d", s.Limit)
	}
}

func writeOperand(buf *bytes.Buffer, o *ast.Operand) {
	if o.IsVar {
		buf.WriteString(o.Var)
		return
	}
	writeValueLiteral(buf, o.Literal)
}

func opText(op ast.PredicateOp) string {
	switch op {
	case ast.OpEq:
		return "="
	case ast.OpLt:
		return "<"
	case ast.OpLte:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGte:
		return ">="
	default:
		return "?"
	}
}
