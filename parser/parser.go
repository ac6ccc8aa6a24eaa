// Package parser implements a parser for the query dialect, producing the
// grammar-shaped tree defined in package cst.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PostHog/posthog-sub001/cst"
	"github.com/PostHog/posthog-sub001/lexer"
	"github.com/PostHog/posthog-sub001/token"
)

// maxDepth bounds expression nesting.
const maxDepth = 500

// Parser parses query text into a CST.
type Parser struct {
	lexer   *lexer.Lexer
	current lexer.Item
	peek    lexer.Item
	errors  []error
	depth   int
}

// New creates a new Parser from an io.Reader.
func New(r io.Reader) *Parser {
	p := &Parser{
		lexer: lexer.New(r),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.current = p.peek
	for {
		p.peek = p.lexer.NextToken()
		// Skip comments and whitespace
		if p.peek.Token != token.COMMENT && p.peek.Token != token.WHITESPACE {
			break
		}
	}
}

func (p *Parser) currentIs(t token.Token) bool {
	return p.current.Token == t
}

func (p *Parser) peekIs(t token.Token) bool {
	return p.peek.Token == t
}

func (p *Parser) expect(t token.Token) bool {
	if p.currentIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s at line %d, column %d",
		t, p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

// ParseExpr parses a single expression. The input must be fully consumed.
func ParseExpr(input string) (cst.Expression, error) {
	p := New(strings.NewReader(input))
	expr := p.parseExpression(LOWEST)
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if expr == nil {
		return nil, fmt.Errorf("no expression found")
	}
	if !p.currentIs(token.EOF) {
		return nil, fmt.Errorf("unexpected token %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	}
	return expr, nil
}

// ParseSelect parses a SELECT statement, possibly a UNION ALL chain. The
// input must be fully consumed apart from trailing semicolons.
func ParseSelect(input string) (*cst.SelectUnionQuery, error) {
	p := New(strings.NewReader(input))
	query := p.parseSelectUnionQuery()
	for p.currentIs(token.SEMICOLON) {
		p.nextToken()
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if query == nil {
		return nil, fmt.Errorf("no SELECT statement found")
	}
	if !p.currentIs(token.EOF) {
		return nil, fmt.Errorf("unexpected token %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	}
	return query, nil
}

// parseSelectUnionQuery parses SELECT ... UNION ALL ... chains. Members may
// be parenthesized, in which case they form a nested chain.
func (p *Parser) parseSelectUnionQuery() *cst.SelectUnionQuery {
	query := &cst.SelectUnionQuery{
		Position: p.current.Pos,
	}

	first := p.parseSelectMember()
	if first == nil {
		return nil
	}
	query.Selects = append(query.Selects, first)

	for p.currentIs(token.UNION) {
		p.nextToken()
		if !p.expect(token.ALL) {
			return nil
		}
		member := p.parseSelectMember()
		if member == nil {
			break
		}
		query.Selects = append(query.Selects, member)
	}

	return query
}

func (p *Parser) parseSelectMember() cst.Statement {
	if p.currentIs(token.LPAREN) {
		p.nextToken()
		sub := p.parseSelectUnionQuery()
		p.expect(token.RPAREN)
		if sub == nil {
			return nil
		}
		return sub
	}
	sel := p.parseSelect()
	if sel == nil {
		return nil
	}
	return sel
}

func (p *Parser) parseSelect() *cst.SelectQuery {
	sel := &cst.SelectQuery{
		Position: p.current.Pos,
	}

	// Handle WITH clause
	if p.currentIs(token.WITH) {
		p.nextToken()
		sel.With = p.parseWithClause()
	}

	if !p.expect(token.SELECT) {
		return nil
	}

	// Handle DISTINCT
	if p.currentIs(token.DISTINCT) {
		sel.Distinct = true
		p.nextToken()
	}

	// Parse column list
	sel.Columns = p.parseColumnList()

	// Parse FROM clause
	if p.currentIs(token.FROM) {
		p.nextToken()
		sel.From = p.parseTablesInSelect()
	}

	// Parse ARRAY JOIN clause
	if p.isArrayJoinStart() {
		sel.ArrayJoin = p.parseArrayJoin()
	}

	// Parse PREWHERE clause
	if p.currentIs(token.PREWHERE) {
		p.nextToken()
		sel.PreWhere = p.parseExpression(LOWEST)
	}

	// Parse WHERE clause
	if p.currentIs(token.WHERE) {
		p.nextToken()
		sel.Where = p.parseExpression(LOWEST)
	}

	// Parse GROUP BY clause
	if p.currentIs(token.GROUP) {
		p.nextToken()
		if !p.expect(token.BY) {
			return nil
		}
		sel.GroupBy = p.parseExpressionList()
	}

	// Parse HAVING clause
	if p.currentIs(token.HAVING) {
		p.nextToken()
		sel.Having = p.parseExpression(LOWEST)
	}

	// Parse WINDOW clause
	if p.currentIs(token.WINDOW) {
		p.nextToken()
		sel.Windows = p.parseWindowClause()
	}

	// Parse ORDER BY clause
	if p.currentIs(token.ORDER) {
		p.nextToken()
		if !p.expect(token.BY) {
			return nil
		}
		sel.OrderBy = p.parseOrderByList()
	}

	// Parse LIMIT clause
	if p.currentIs(token.LIMIT) {
		p.nextToken()
		sel.Limit = p.parseExpression(LOWEST)

		// LIMIT n, m syntax (offset, limit)
		if p.currentIs(token.COMMA) {
			p.nextToken()
			sel.Offset = sel.Limit
			sel.Limit = p.parseExpression(LOWEST)
		}

		if p.currentIs(token.WITH) && p.peekIs(token.TIES) {
			p.nextToken()
			p.nextToken()
			sel.LimitTies = true
		}

		if p.currentIs(token.BY) {
			p.nextToken()
			sel.LimitBy = p.parseExpressionList()
		}
	}

	// Parse OFFSET clause
	if p.currentIs(token.OFFSET) {
		p.nextToken()
		sel.Offset = p.parseExpression(LOWEST)
	}

	return sel
}

// parseWithClause accepts both CTE forms: name AS (subquery) and expr AS name.
func (p *Parser) parseWithClause() []*cst.WithElement {
	var elements []*cst.WithElement

	for {
		elem := &cst.WithElement{
			Position: p.current.Pos,
		}

		if p.currentIs(token.IDENT) && p.peekIs(token.AS) {
			first := p.current
			p.nextToken()
			p.nextToken() // skip AS

			if p.currentIs(token.LPAREN) && (p.peekIs(token.SELECT) || p.peekIs(token.WITH)) {
				// name AS (subquery)
				elem.Name = first.Value
				pos := p.current.Pos
				p.nextToken()
				sub := p.parseSelectUnionQuery()
				p.expect(token.RPAREN)
				elem.Query = &cst.Subquery{Position: pos, Query: sub}
			} else if p.currentIs(token.IDENT) {
				// expr AS name with a bare identifier expression
				elem.Query = &cst.Identifier{Position: first.Pos, Parts: []string{first.Value}}
				elem.Name = p.current.Value
				p.nextToken()
			} else {
				p.errorf("expected CTE name or subquery, got %s at line %d, column %d",
					p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
				return elements
			}
		} else {
			if p.currentIs(token.LPAREN) && (p.peekIs(token.SELECT) || p.peekIs(token.WITH)) {
				pos := p.current.Pos
				p.nextToken()
				sub := p.parseSelectUnionQuery()
				p.expect(token.RPAREN)
				elem.Query = &cst.Subquery{Position: pos, Query: sub}
			} else {
				elem.Query = p.parseExpression(ALIAS_PREC)
			}

			if !p.expect(token.AS) {
				return elements
			}

			if p.currentIs(token.IDENT) {
				elem.Name = p.current.Value
				p.nextToken()
			}
		}

		elements = append(elements, elem)

		if !p.currentIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	return elements
}

func (p *Parser) isArrayJoinStart() bool {
	if p.currentIs(token.ARRAY) {
		return true
	}
	return (p.currentIs(token.LEFT) || p.currentIs(token.INNER)) && p.peekIs(token.ARRAY)
}

func (p *Parser) parseArrayJoin() *cst.ArrayJoinClause {
	clause := &cst.ArrayJoinClause{
		Position: p.current.Pos,
	}

	if p.currentIs(token.LEFT) {
		clause.Left = true
		p.nextToken()
	} else if p.currentIs(token.INNER) {
		clause.Inner = true
		p.nextToken()
	}

	if !p.expect(token.ARRAY) {
		return nil
	}
	if !p.expect(token.JOIN) {
		return nil
	}

	clause.Columns = p.parseColumnList()
	return clause
}

func (p *Parser) parseWindowClause() []*cst.WindowDefinition {
	var defs []*cst.WindowDefinition

	for {
		def := &cst.WindowDefinition{
			Position: p.current.Pos,
		}

		if p.currentIs(token.IDENT) {
			def.Name = p.current.Value
			p.nextToken()
		} else {
			p.errorf("expected window name, got %s at line %d, column %d",
				p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
			break
		}

		if !p.expect(token.AS) {
			break
		}

		def.Spec = p.parseWindowSpec()
		defs = append(defs, def)

		if !p.currentIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	return defs
}

func (p *Parser) parseTablesInSelect() *cst.TablesInSelectQuery {
	tables := &cst.TablesInSelectQuery{
		Position: p.current.Pos,
	}

	// Parse first table
	elem := &cst.TablesInSelectQueryElement{
		Position: p.current.Pos,
	}
	elem.Table = p.parseTableExpression()
	if elem.Table == nil {
		return nil
	}
	tables.Tables = append(tables.Tables, elem)

	// Parse JOINs
	for p.isJoinKeyword() {
		elem := p.parseTableElementWithJoin()
		if elem == nil {
			break
		}
		tables.Tables = append(tables.Tables, elem)
	}

	return tables
}

func (p *Parser) isJoinKeyword() bool {
	switch p.current.Token {
	case token.LEFT, token.INNER:
		// LEFT ARRAY JOIN / INNER ARRAY JOIN belong to the ARRAY JOIN clause
		return !p.peekIs(token.ARRAY)
	case token.JOIN, token.RIGHT, token.FULL, token.CROSS,
		token.ANY, token.ALL, token.ASOF, token.SEMI, token.ANTI:
		return true
	case token.COMMA:
		return true
	}
	return false
}

func (p *Parser) parseTableElementWithJoin() *cst.TablesInSelectQueryElement {
	elem := &cst.TablesInSelectQueryElement{
		Position: p.current.Pos,
	}

	// Comma join (implicit cross join)
	if p.currentIs(token.COMMA) {
		p.nextToken()
		elem.Table = p.parseTableExpression()
		if elem.Table == nil {
			return nil
		}
		elem.Join = &cst.TableJoin{Position: elem.Position, Comma: true}
		return elem
	}

	join := &cst.TableJoin{
		Position: p.current.Pos,
	}

	// Strictness and type may come in either order
mods:
	for {
		switch p.current.Token {
		case token.ANY:
			join.Strictness = "ANY"
		case token.ALL:
			join.Strictness = "ALL"
		case token.ASOF:
			join.Strictness = "ASOF"
		case token.SEMI:
			join.Strictness = "SEMI"
		case token.ANTI:
			join.Strictness = "ANTI"
		case token.INNER:
			join.Type = "INNER"
		case token.LEFT:
			join.Type = "LEFT"
		case token.RIGHT:
			join.Type = "RIGHT"
		case token.FULL:
			join.Type = "FULL"
		case token.CROSS:
			join.Type = "CROSS"
		case token.OUTER:
			// LEFT OUTER JOIN and friends
		default:
			break mods
		}
		p.nextToken()
	}

	if join.Type == "" {
		join.Type = "INNER"
	}

	if !p.expect(token.JOIN) {
		return nil
	}

	elem.Table = p.parseTableExpression()
	if elem.Table == nil {
		return nil
	}

	// Parse ON or USING clause
	if p.currentIs(token.ON) {
		p.nextToken()
		join.On = p.parseExpression(LOWEST)
	} else if p.currentIs(token.USING) {
		p.nextToken()
		if p.currentIs(token.LPAREN) {
			p.nextToken()
			join.Using = p.parseExpressionList()
			p.expect(token.RPAREN)
		} else {
			join.Using = p.parseExpressionList()
		}
	}

	elem.Join = join
	return elem
}

func (p *Parser) parseTableExpression() *cst.TableExpression {
	expr := &cst.TableExpression{
		Position: p.current.Pos,
	}

	switch {
	case p.currentIs(token.LPAREN):
		// Subquery
		pos := p.current.Pos
		p.nextToken()
		sub := p.parseSelectUnionQuery()
		p.expect(token.RPAREN)
		if sub == nil {
			return nil
		}
		expr.Table = &cst.Subquery{Position: pos, Query: sub}
	case p.currentIs(token.IDENT):
		pos := p.current.Pos
		name := p.current.Value
		p.nextToken()

		if p.currentIs(token.LPAREN) {
			// Table function
			expr.Table = p.parseFunctionCall(name, pos)
		} else {
			parts := []string{name}
			for p.currentIs(token.DOT) && p.peekIs(token.IDENT) {
				p.nextToken()
				parts = append(parts, p.current.Value)
				p.nextToken()
			}
			expr.Table = &cst.Identifier{Position: pos, Parts: parts}
		}
	case p.currentIs(token.PLACEHOLDER):
		expr.Table = &cst.Placeholder{Position: p.current.Pos, Name: p.current.Value}
		p.nextToken()
	default:
		p.errorf("expected table expression, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}

	// Alias, FINAL and SAMPLE may come in either order: ClickHouse writes
	// "events AS e FINAL", the alias-last spelling is accepted too.
	for {
		switch {
		case p.currentIs(token.FINAL):
			expr.Final = true
			p.nextToken()
		case p.currentIs(token.SAMPLE):
			p.nextToken()
			expr.Sample = p.parseSampleClause()
		case p.currentIs(token.AS):
			p.nextToken()
			if p.currentIs(token.IDENT) {
				expr.Alias = p.current.Value
				p.nextToken()
			} else {
				p.errorf("expected table alias, got %s at line %d, column %d",
					p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
				return expr
			}
		case p.currentIs(token.IDENT) && expr.Alias == "":
			expr.Alias = p.current.Value
			p.nextToken()
		default:
			return expr
		}
	}
}

func (p *Parser) parseSampleClause() *cst.SampleClause {
	clause := &cst.SampleClause{
		Position: p.current.Pos,
	}

	clause.Ratio = p.parseRatio()
	if p.currentIs(token.OFFSET) {
		p.nextToken()
		clause.Offset = p.parseRatio()
	}

	return clause
}

func (p *Parser) parseRatio() *cst.RatioExpression {
	ratio := &cst.RatioExpression{
		Position: p.current.Pos,
	}

	ratio.Numerator = p.parseNumberLiteral()
	if p.currentIs(token.SLASH) {
		p.nextToken()
		ratio.Denominator = p.parseNumberLiteral()
	}

	return ratio
}

func (p *Parser) parseNumberLiteral() *cst.NumberLiteral {
	if !p.currentIs(token.NUMBER) {
		p.errorf("expected number, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}
	n := &cst.NumberLiteral{Position: p.current.Pos, Lexeme: p.current.Value}
	p.nextToken()
	return n
}

func (p *Parser) parseOrderByList() []*cst.OrderByElement {
	var elements []*cst.OrderByElement

	for {
		elem := &cst.OrderByElement{
			Position:   p.current.Pos,
			Expression: p.parseExpression(LOWEST),
		}

		if p.currentIs(token.ASC) {
			p.nextToken()
		} else if p.currentIs(token.DESC) {
			elem.Descending = true
			p.nextToken()
		}

		elements = append(elements, elem)

		if !p.currentIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	return elements
}
