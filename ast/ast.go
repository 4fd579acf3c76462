// Package ast defines the abstract syntax tree for the Transitional
// Modeling DSL: add role, add posit, and search
// statements, their appearance-set and value/time literal sub-grammars.
package ast

import "github.com/transitdb/transit/token"

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() token.Pos
}

// Statement is one top-level DSL statement.
type Statement interface {
	Node
	statementNode()
}

// Script is a sequence of statements parsed from one submission.
type Script struct {
	Statements []Statement
}

// AddRole is `add role NAME (, NAME)*`.
type AddRole struct {
	TokPos token.Pos
	Names  []string
}

func (a *AddRole) Pos() token.Pos { return a.TokPos }
func (*AddRole) statementNode()   {}

// AddPosit is `add posit POSIT (, POSIT)*`.
type AddPosit struct {
	TokPos token.Pos
	Posits []*PositLiteral
}

func (a *AddPosit) Pos() token.Pos { return a.TokPos }
func (*AddPosit) statementNode()   {}

// PositLiteral is one `[ appearance_set, value, time ]` in an add-posit
// statement. Appearances here are resolved against an add-time Env, not a
// search-time binding set.
type PositLiteral struct {
	TokPos      token.Pos
	Appearances []*AppearanceSpec
	Value       *ValueLiteral
	Time        *TimeLiteral
}

func (p *PositLiteral) Pos() token.Pos { return p.TokPos }

// AppearanceSpecKind distinguishes how an appearance's thing is supplied.
type AppearanceSpecKind int

const (
	// Insert introduces a fresh identity on first occurrence ("+x").
	Insert AppearanceSpecKind = iota
	// Recall reuses an already-bound variable ("x").
	Recall
	// Wildcard matches any thing ("*").
	Wildcard
	// LiteralThing names an existing thing identity by number.
	LiteralThing
	// UnionRecall is a disjunction over several already-bound variables
	// ("(a|b, role)").
	UnionRecall
)

// AppearanceSpec is one `(thing_or_var, role)` member of an appearance set.
type AppearanceSpec struct {
	TokPos   token.Pos
	Kind     AppearanceSpecKind
	RoleName string
	Var      string   // Insert, Recall
	Union    []string // UnionRecall
	Literal  uint64   // LiteralThing
}

func (a *AppearanceSpec) Pos() token.Pos { return a.TokPos }

// ValueKind tags the literal form of a value (not yet resolved to a
// datatype.Kind, since that resolution can depend on sign/format rules the
// parser itself does not own).
type ValueKind int

const (
	ValString ValueKind = iota
	ValInt
	ValDecimal
	ValCertainty
	ValJSON
	ValTime
)

// ValueLiteral is a value-slot literal: a concrete value, a variable
// binding ("+v"/"v"), or a wildcard ("*").
type ValueLiteral struct {
	TokPos   token.Pos
	IsVar    bool
	IsInsert bool // "+v" vs plain recall "v"
	IsWild   bool
	Var      string
	Kind     ValueKind
	Text     string // raw literal text, interpreted by datatype parsers
}

func (v *ValueLiteral) Pos() token.Pos { return v.TokPos }

// TimeLiteral is a time-slot literal: a concrete time, a variable binding,
// or a wildcard.
type TimeLiteral struct {
	TokPos   token.Pos
	IsVar    bool
	IsInsert bool
	IsWild   bool
	Var      string
	Text     string // raw literal text (including @NOW/@BOT/@EOT), or "" if Var/Wild
}

func (t *TimeLiteral) Pos() token.Pos { return t.TokPos }

// Search is a `search CLAUSE (, CLAUSE)* [where ...] [return ...] [limit N]`
// statement.
type Search struct {
	TokPos  token.Pos
	Clauses []*SearchClause
	Where   []*Predicate
	Return  []string
	Limit   int
	HasLimit bool
}

func (s *Search) Pos() token.Pos { return s.TokPos }
func (*Search) statementNode()   {}

// SearchClause is one `[+p][{ aset },value,time][as of T]` clause.
type SearchClause struct {
	TokPos      token.Pos
	PositVar    string
	HasPositVar bool
	Appearances []*AppearanceSpec
	Value       *ValueLiteral
	Time        *TimeLiteral
	AsOf        *TimeLiteral // nil if not present
}

func (c *SearchClause) Pos() token.Pos { return c.TokPos }

// Operand is one side of a predicate comparison: a variable name or a
// value literal.
type Operand struct {
	TokPos  token.Pos
	IsVar   bool
	Var     string
	Literal *ValueLiteral
}

func (o *Operand) Pos() token.Pos { return o.TokPos }

// PredicateOp is a comparison operator.
type PredicateOp int

const (
	OpEq PredicateOp = iota
	OpLt
	OpLte
	OpGt
	OpGte
)

// Predicate is one `x op y` or `x op LITERAL` comparison joined by `and`.
type Predicate struct {
	TokPos token.Pos
	Left   *Operand
	Op     PredicateOp
	Right  *Operand
}

func (p *Predicate) Pos() token.Pos { return p.TokPos }
