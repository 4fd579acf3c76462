// Package parser provides a recursive descent parser for the Transitional
// Modeling DSL: a cur/advance/expect/errorf token-navigation core, a
// positioned ParseError, and a sync.Pool-backed Get/Put pair for reuse
// across script submissions.
package parser

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/lexer"
	"github.com/transitdb/transit/token"
)

// Parser is a recursive descent parser for the DSL.
type Parser struct {
	lexer  *lexer.Lexer
	errors []ParseError
	cur    token.Item
}

// ParseError is a parse failure with source position.
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// New creates a Parser for the given input.
func New(input string) *Parser {
	p := &Parser{lexer: lexer.New(input)}
	p.advance()
	return p
}

var parserPool = sync.Pool{New: func() any { return &Parser{} }}

// Get returns a Parser from the pool, initialized with input.
func Get(input string) *Parser {
	p := parserPool.Get().(*Parser)
	p.lexer = lexer.Get(input)
	p.errors = p.errors[:0]
	p.cur = token.Item{}
	p.advance()
	return p
}

// Put returns the Parser and its Lexer to their pools.
func Put(p *Parser) {
	if p.lexer != nil {
		lexer.Put(p.lexer)
		p.lexer = nil
	}
	parserPool.Put(p)
}

// ParseScript parses a full script: statements separated by ';'.
func (p *Parser) ParseScript() (*ast.Script, error) {
	script := &ast.Script{}
	for !p.curIs(token.EOF) {
		for p.curIs(token.SEMICOLON) {
			p.advance()
		}
		if p.curIs(token.EOF) {
			break
		}
		stmt := p.parseStatement()
		if len(p.errors) > 0 {
			return script, p.errors[0]
		}
		if stmt != nil {
			script.Statements = append(script.Statements, stmt)
		}
		for p.curIs(token.SEMICOLON) {
			p.advance()
		}
	}
	return script, nil
}

func (p *Parser) advance()                      { p.cur = p.lexer.Next() }
func (p *Parser) curIs(t token.Token) bool      { return p.cur.Type == t }
func (p *Parser) peek() token.Item              { return p.lexer.Peek() }
func (p *Parser) peekIs(t token.Token) bool     { return p.peek().Type == t }

func (p *Parser) expect(t token.Token) token.Item {
	if p.curIs(t) {
		item := p.cur
		p.advance()
		return item
	}
	p.errorf("expected %v, got %v %q", t, p.cur.Type, p.cur.Value)
	return p.cur
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.ADD:
		return p.parseAdd()
	case token.SEARCH:
		return p.parseSearch()
	default:
		p.errorf("expected 'add' or 'search', got %v %q", p.cur.Type, p.cur.Value)
		return nil
	}
}

func (p *Parser) parseAdd() ast.Statement {
	pos := p.cur.Pos
	p.advance() // 'add'
	switch p.cur.Type {
	case token.ROLE:
		return p.parseAddRole(pos)
	case token.POSIT:
		return p.parseAddPosit(pos)
	default:
		p.errorf("expected 'role' or 'posit' after 'add', got %v", p.cur.Type)
		return nil
	}
}

func (p *Parser) parseAddRole(pos token.Pos) *ast.AddRole {
	p.advance() // 'role'
	stmt := &ast.AddRole{TokPos: pos}
	stmt.Names = append(stmt.Names, p.parseIdentName())
	for p.curIs(token.COMMA) {
		p.advance()
		stmt.Names = append(stmt.Names, p.parseIdentName())
	}
	return stmt
}

// parseIdentName accepts an IDENT or a keyword used as a plain name
// (role/variable names may collide with DSL keywords in casual scripts).
func (p *Parser) parseIdentName() string {
	if p.cur.Type != token.IDENT && !p.cur.Type.IsKeyword() {
		p.errorf("expected identifier, got %v %q", p.cur.Type, p.cur.Value)
		return ""
	}
	name := p.cur.Value
	p.advance()
	return name
}

func (p *Parser) parseAddPosit(pos token.Pos) *ast.AddPosit {
	p.advance() // 'posit'
	stmt := &ast.AddPosit{TokPos: pos}
	stmt.Posits = append(stmt.Posits, p.parsePositLiteral())
	for p.curIs(token.COMMA) {
		p.advance()
		stmt.Posits = append(stmt.Posits, p.parsePositLiteral())
	}
	return stmt
}

// parsePositLiteral parses `[ { (thing_or_var, role) (, ...)* }, value, time ]`.
func (p *Parser) parsePositLiteral() *ast.PositLiteral {
	pos := p.cur.Pos
	p.expect(token.LBRACKET)
	lit := &ast.PositLiteral{TokPos: pos}
	lit.Appearances = p.parseAppearanceSet()
	p.expect(token.COMMA)
	lit.Value = p.parseValueLiteral()
	p.expect(token.COMMA)
	lit.Time = p.parseTimeLiteral()
	p.expect(token.RBRACKET)
	return lit
}

func (p *Parser) parseAppearanceSet() []*ast.AppearanceSpec {
	p.expect(token.LBRACE)
	var specs []*ast.AppearanceSpec
	specs = append(specs, p.parseAppearanceSpec())
	for p.curIs(token.COMMA) {
		p.advance()
		specs = append(specs, p.parseAppearanceSpec())
	}
	p.expect(token.RBRACE)
	return specs
}

// parseAppearanceSpec parses one `(thing_or_var, role)` member, where
// thing_or_var is `+var`, `var`, `*`, an INT literal thing id, or a
// union recall `(a|b, role)`.
func (p *Parser) parseAppearanceSpec() *ast.AppearanceSpec {
	pos := p.cur.Pos
	p.expect(token.LPAREN)
	spec := &ast.AppearanceSpec{TokPos: pos}

	switch {
	case p.curIs(token.PLUS):
		p.advance()
		spec.Kind = ast.Insert
		spec.Var = p.parseIdentName()
	case p.curIs(token.ASTERISK):
		p.advance()
		spec.Kind = ast.Wildcard
	case p.curIs(token.INT):
		spec.Kind = ast.LiteralThing
		n, err := strconv.ParseUint(p.cur.Value, 10, 64)
		if err != nil {
			p.errorf("invalid thing identity %q", p.cur.Value)
		}
		spec.Literal = n
		p.advance()
	case p.curIs(token.IDENT):
		firstVar := p.cur.Value
		p.advance()
		if p.curIs(token.PIPE) {
			spec.Kind = ast.UnionRecall
			spec.Union = []string{firstVar}
			for p.curIs(token.PIPE) {
				p.advance()
				spec.Union = append(spec.Union, p.parseIdentName())
			}
		} else {
			spec.Kind = ast.Recall
			spec.Var = firstVar
		}
	default:
		p.errorf("expected appearance thing/variable, got %v %q", p.cur.Type, p.cur.Value)
	}

	p.expect(token.COMMA)
	spec.RoleName = p.parseIdentName()
	p.expect(token.RPAREN)
	return spec
}

// parseValueLiteral parses a value slot: `+v`, `v`, `*`, or a concrete
// literal (string, int, decimal, certainty, JSON).
func (p *Parser) parseValueLiteral() *ast.ValueLiteral {
	pos := p.cur.Pos
	v := &ast.ValueLiteral{TokPos: pos}
	switch {
	case p.curIs(token.PLUS):
		p.advance()
		v.IsVar, v.IsInsert = true, true
		v.Var = p.parseIdentName()
	case p.curIs(token.ASTERISK):
		p.advance()
		v.IsWild = true
	case p.curIs(token.STRING):
		v.Kind, v.Text = ast.ValString, p.cur.Value
		p.advance()
	case p.curIs(token.INT):
		v.Kind, v.Text = ast.ValInt, p.cur.Value
		p.advance()
	case p.curIs(token.DECIMAL):
		v.Kind, v.Text = ast.ValDecimal, p.cur.Value
		p.advance()
	case p.curIs(token.CERTAINTY):
		v.Kind, v.Text = ast.ValCertainty, p.cur.Value
		p.advance()
	case p.curIs(token.LBRACE), p.curIs(token.LBRACKET):
		text, jpos, err := p.lexer.ScanJSONLiteral()
		if err != nil {
			p.errors = append(p.errors, ParseError{Pos: jpos, Message: err.Error()})
			return v
		}
		v.Kind, v.Text, v.TokPos = ast.ValJSON, text, jpos
		p.advance() // resync cur past the raw-scanned literal
	case p.curIs(token.IDENT):
		v.IsVar = true
		v.Var = p.cur.Value
		p.advance()
	default:
		p.errorf("expected value literal, got %v %q", p.cur.Type, p.cur.Value)
	}
	return v
}

// parseTimeLiteral parses a time slot: `+t`, `t`, `*`, or a concrete time
// literal (quoted date/time text or @NOW/@BOT/@EOT).
func (p *Parser) parseTimeLiteral() *ast.TimeLiteral {
	pos := p.cur.Pos
	t := &ast.TimeLiteral{TokPos: pos}
	switch {
	case p.curIs(token.PLUS):
		p.advance()
		t.IsVar, t.IsInsert = true, true
		t.Var = p.parseIdentName()
	case p.curIs(token.ASTERISK):
		p.advance()
		t.IsWild = true
	case p.curIs(token.TIMELIT):
		t.Text = p.cur.Value
		p.advance()
	case p.curIs(token.ATLIT):
		t.Text = p.cur.Value
		p.advance()
	case p.curIs(token.IDENT):
		t.IsVar = true
		t.Var = p.cur.Value
		p.advance()
	default:
		p.errorf("expected time literal, got %v %q", p.cur.Type, p.cur.Value)
	}
	return t
}

// parseSearch parses `search CLAUSE (, CLAUSE)* [where ...] [return ...] [limit N]`.
func (p *Parser) parseSearch() *ast.Search {
	pos := p.cur.Pos
	p.advance() // 'search'
	stmt := &ast.Search{TokPos: pos}
	stmt.Clauses = append(stmt.Clauses, p.parseSearchClause())
	for p.curIs(token.COMMA) {
		p.advance()
		stmt.Clauses = append(stmt.Clauses, p.parseSearchClause())
	}
	if p.curIs(token.WHERE) {
		p.advance()
		stmt.Where = append(stmt.Where, p.parsePredicate())
		for p.curIs(token.AND) {
			p.advance()
			stmt.Where = append(stmt.Where, p.parsePredicate())
		}
	}
	if p.curIs(token.RETURN) {
		p.advance()
		stmt.Return = append(stmt.Return, p.parseIdentName())
		for p.curIs(token.COMMA) {
			p.advance()
			stmt.Return = append(stmt.Return, p.parseIdentName())
		}
	}
	if p.curIs(token.LIMIT) {
		p.advance()
		n, err := strconv.Atoi(p.cur.Value)
		if p.cur.Type != token.INT || err != nil {
			p.errorf("expected integer after 'limit', got %v %q", p.cur.Type, p.cur.Value)
		} else {
			stmt.Limit = n
			stmt.HasLimit = true
		}
		p.advance()
	}
	return stmt
}

func (p *Parser) parseSearchClause() *ast.SearchClause {
	pos := p.cur.Pos
	clause := &ast.SearchClause{TokPos: pos}
	if p.curIs(token.PLUS) {
		p.advance()
		clause.HasPositVar = true
		clause.PositVar = p.parseIdentName()
	}
	p.expect(token.LBRACKET)
	clause.Appearances = p.parseAppearanceSet()
	p.expect(token.COMMA)
	clause.Value = p.parseValueLiteral()
	p.expect(token.COMMA)
	clause.Time = p.parseTimeLiteral()
	p.expect(token.RBRACKET)
	if p.curIs(token.AS) {
		p.advance()
		p.expect(token.OF)
		clause.AsOf = p.parseTimeLiteral()
	}
	return clause
}

func (p *Parser) parsePredicate() *ast.Predicate {
	pos := p.cur.Pos
	left := p.parseOperand()
	op := p.parseOp()
	right := p.parseOperand()
	return &ast.Predicate{TokPos: pos, Left: left, Op: op, Right: right}
}

func (p *Parser) parseOp() ast.PredicateOp {
	switch p.cur.Type {
	case token.EQ:
		p.advance()
		return ast.OpEq
	case token.LT:
		p.advance()
		return ast.OpLt
	case token.LTE:
		p.advance()
		return ast.OpLte
	case token.GT:
		p.advance()
		return ast.OpGt
	case token.GTE:
		p.advance()
		return ast.OpGte
	default:
		p.errorf("expected comparison operator, got %v %q", p.cur.Type, p.cur.Value)
		return ast.OpEq
	}
}

// parseOperand parses one side of a predicate comparison: a bare
// identifier is always a variable recall, since literals use their own
// disjoint token kinds (STRING, INT, DECIMAL, CERTAINTY, TIMELIT, ATLIT).
func (p *Parser) parseOperand() *ast.Operand {
	pos := p.cur.Pos
	if p.curIs(token.IDENT) {
		name := p.cur.Value
		p.advance()
		return &ast.Operand{TokPos: pos, IsVar: true, Var: name}
	}
	if p.curIs(token.TIMELIT) || p.curIs(token.ATLIT) {
		t := p.parseTimeLiteral()
		return &ast.Operand{TokPos: pos, Literal: &ast.ValueLiteral{TokPos: pos, Kind: ast.ValTime, Text: t.Text}}
	}
	lit := p.parseValueLiteral()
	return &ast.Operand{TokPos: pos, Literal: lit}
}
