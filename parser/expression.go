package parser

import (
	"strings"

	"github.com/PostHog/posthog-sub001/cst"
	"github.com/PostHog/posthog-sub001/token"
)

// Operator precedence levels
const (
	LOWEST       = iota
	ALIAS_PREC   // AS, ->
	OR_PREC      // OR
	AND_PREC     // AND
	NOT_PREC     // NOT
	COMPARE      // =, !=, <, >, <=, >=, LIKE, IN, BETWEEN, IS, =~, ?:
	NULLISH_PREC // ??
	CONCAT_PREC  // ||
	ADD_PREC     // +, -
	MUL_PREC     // *, /, %
	UNARY        // -x, NOT x
	CALL         // function(), array[], ::
	HIGHEST
)

func (p *Parser) precedence(tok token.Token) int {
	switch tok {
	case token.AS, token.ARROW:
		return ALIAS_PREC
	case token.OR:
		return OR_PREC
	case token.AND:
		return AND_PREC
	case token.NOT:
		return NOT_PREC
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE,
		token.LIKE, token.ILIKE, token.IN, token.BETWEEN, token.IS,
		token.REGEX, token.NOT_REGEX, token.IREGEX, token.NOT_IREGEX,
		token.GLOBAL, token.QUESTION:
		return COMPARE
	case token.NULLISH:
		return NULLISH_PREC
	case token.CONCAT:
		return CONCAT_PREC
	case token.PLUS, token.MINUS:
		return ADD_PREC
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return MUL_PREC
	case token.LPAREN, token.LBRACKET, token.COLONCOLON:
		return CALL
	case token.EXCEPT, token.REPLACE:
		return CALL // asterisk modifiers
	case token.DOT:
		return HIGHEST
	default:
		return LOWEST
	}
}

// precedenceForCurrent returns the precedence for the current token, with
// special handling for tuple access (number starting with dot).
func (p *Parser) precedenceForCurrent() int {
	if p.currentIs(token.NUMBER) && strings.HasPrefix(p.current.Value, ".") {
		return HIGHEST // tuple access like t.1
	}
	return p.precedence(p.current.Token)
}

func (p *Parser) parseExpressionList() []cst.Expression {
	var exprs []cst.Expression

	if p.currentIs(token.RPAREN) || p.currentIs(token.EOF) {
		return exprs
	}

	expr := p.parseExpression(LOWEST)
	if expr != nil {
		exprs = append(exprs, expr)
	}

	for p.currentIs(token.COMMA) {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr != nil {
			exprs = append(exprs, expr)
		}
	}

	return exprs
}

// parseColumnList parses a comma-separated expression list, wrapping
// implicit aliases like "SELECT 1 x" the way an explicit AS would.
func (p *Parser) parseColumnList() []cst.Expression {
	var exprs []cst.Expression

	if p.currentIs(token.RPAREN) || p.currentIs(token.EOF) {
		return exprs
	}

	expr := p.parseExpression(LOWEST)
	if expr != nil {
		exprs = append(exprs, p.parseImplicitAlias(expr))
	}

	for p.currentIs(token.COMMA) {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr != nil {
			exprs = append(exprs, p.parseImplicitAlias(expr))
		}
	}

	return exprs
}

func (p *Parser) parseImplicitAlias(expr cst.Expression) cst.Expression {
	// Keywords tokenize as their own token types, so a trailing IDENT here
	// can only be an alias.
	if p.currentIs(token.IDENT) {
		alias := p.current.Value
		pos := p.current.Pos
		p.nextToken()
		return &cst.AliasExpr{Position: pos, Expr: expr, Alias: alias}
	}
	return expr
}

func (p *Parser) parseExpression(precedence int) cst.Expression {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		p.errorf("expression nesting exceeds %d levels at line %d, column %d",
			maxDepth, p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}

	left := p.parsePrefixExpression()
	if left == nil {
		return nil
	}

	for !p.currentIs(token.EOF) && precedence < p.precedenceForCurrent() {
		before := p.current
		left = p.parseInfixExpression(left)
		if left == nil {
			return nil
		}
		if p.current == before {
			break
		}
	}

	return left
}

func (p *Parser) parsePrefixExpression() cst.Expression {
	switch p.current.Token {
	case token.IDENT:
		return p.parseIdentifierOrCall()
	case token.NUMBER:
		n := &cst.NumberLiteral{Position: p.current.Pos, Lexeme: p.current.Value}
		p.nextToken()
		return n
	case token.STRING:
		s := &cst.StringLiteral{Position: p.current.Pos, Raw: p.current.Value}
		p.nextToken()
		return s
	case token.NULL:
		n := &cst.NullLiteral{Position: p.current.Pos}
		p.nextToken()
		return n
	case token.INF:
		n := &cst.NumberLiteral{Position: p.current.Pos, Lexeme: "inf"}
		p.nextToken()
		return n
	case token.NAN:
		n := &cst.NumberLiteral{Position: p.current.Pos, Lexeme: "nan"}
		p.nextToken()
		return n
	case token.PLACEHOLDER:
		ph := &cst.Placeholder{Position: p.current.Pos, Name: p.current.Value}
		p.nextToken()
		return ph
	case token.MINUS:
		return p.parseUnaryMinus()
	case token.NOT:
		return p.parseNot()
	case token.LPAREN:
		return p.parseGroupedOrTuple()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.ASTERISK:
		a := &cst.Asterisk{Position: p.current.Pos}
		p.nextToken()
		return a
	case token.CASE:
		return p.parseCase()
	case token.CAST:
		return p.parseCast()
	case token.EXTRACT:
		return p.parseExtract()
	case token.INTERVAL:
		if p.peekIs(token.NUMBER) || p.peekIs(token.STRING) || p.peekIs(token.LPAREN) ||
			p.peekIs(token.MINUS) || p.peekIs(token.PLACEHOLDER) {
			return p.parseInterval()
		}
		return p.parseKeywordAsIdentifier()
	case token.EXISTS:
		return p.parseExists()
	case token.SUBSTRING:
		return p.parseSubstring()
	case token.TRIM:
		return p.parseTrim()
	default:
		// Keywords can appear as function names or bare identifiers
		if p.current.Token.IsKeyword() {
			if p.peekIs(token.LPAREN) {
				return p.parseKeywordAsFunction()
			}
			return p.parseKeywordAsIdentifier()
		}
		p.errorf("unexpected token %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}
}

func (p *Parser) parseInfixExpression(left cst.Expression) cst.Expression {
	switch p.current.Token {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE,
		token.AND, token.OR, token.CONCAT:
		return p.parseBinaryExpression(left)
	case token.QUESTION:
		return p.parseTernary(left)
	case token.NULLISH:
		return p.parseCoalesce(left)
	case token.LIKE, token.ILIKE:
		return p.parseLikeExpression(left, false)
	case token.REGEX:
		return p.parseRegexExpression(left, false, false)
	case token.NOT_REGEX:
		return p.parseRegexExpression(left, true, false)
	case token.IREGEX:
		return p.parseRegexExpression(left, false, true)
	case token.NOT_IREGEX:
		return p.parseRegexExpression(left, true, true)
	case token.NOT:
		// NOT IN, NOT LIKE, NOT ILIKE, NOT BETWEEN
		p.nextToken()
		switch p.current.Token {
		case token.IN:
			return p.parseInExpression(left, true, false)
		case token.LIKE, token.ILIKE:
			return p.parseLikeExpression(left, true)
		case token.BETWEEN:
			return p.parseBetweenExpression(left, true)
		default:
			p.errorf("unexpected token %s after NOT at line %d, column %d",
				p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
			return nil
		}
	case token.IN:
		return p.parseInExpression(left, false, false)
	case token.GLOBAL:
		p.nextToken()
		not := false
		if p.currentIs(token.NOT) {
			not = true
			p.nextToken()
		}
		if p.currentIs(token.IN) {
			return p.parseInExpression(left, not, true)
		}
		p.errorf("expected IN after GLOBAL at line %d, column %d",
			p.current.Pos.Line, p.current.Pos.Column)
		return nil
	case token.BETWEEN:
		return p.parseBetweenExpression(left, false)
	case token.IS:
		return p.parseIsExpression(left)
	case token.LPAREN:
		if ident, ok := left.(*cst.Identifier); ok {
			fn := p.parseFunctionCall(strings.Join(ident.Parts, "."), ident.Position)
			return p.parseCallSuffix(fn)
		}
		if fn, ok := left.(*cst.FunctionCall); ok && !fn.HasParams {
			return p.parseCallSuffix(fn)
		}
		return left
	case token.LBRACKET:
		return p.parseArrayAccess(left)
	case token.DOT:
		return p.parseDotAccess(left)
	case token.NUMBER:
		// Tuple access like t.1 where .1 was lexed as a single number
		if strings.HasPrefix(p.current.Value, ".") {
			return p.parseTupleAccessFromNumber(left)
		}
		return left
	case token.AS:
		return p.parseAliasExpr(left)
	case token.COLONCOLON:
		return p.parseCastOperator(left)
	case token.ARROW:
		return p.parseLambda(left)
	case token.EXCEPT:
		if asterisk, ok := left.(*cst.Asterisk); ok {
			return p.parseAsteriskExcept(asterisk)
		}
		return left
	case token.REPLACE:
		if asterisk, ok := left.(*cst.Asterisk); ok {
			return p.parseAsteriskReplace(asterisk)
		}
		return left
	default:
		return left
	}
}

func (p *Parser) parseIdentifierOrCall() cst.Expression {
	pos := p.current.Pos
	name := p.current.Value
	p.nextToken()

	if p.currentIs(token.LPAREN) {
		return p.parseCallSuffix(p.parseFunctionCall(name, pos))
	}

	// Qualified identifier (a.b.c)
	parts := []string{name}
	for p.currentIs(token.DOT) {
		if p.peekIs(token.IDENT) {
			p.nextToken()
			parts = append(parts, p.current.Value)
			p.nextToken()
		} else if p.peekIs(token.ASTERISK) {
			// table.*
			p.nextToken()
			p.nextToken()
			return &cst.Asterisk{Position: pos, Table: parts}
		} else {
			break
		}
	}

	if p.currentIs(token.LPAREN) {
		return p.parseCallSuffix(p.parseFunctionCall(strings.Join(parts, "."), pos))
	}

	return &cst.Identifier{Position: pos, Parts: parts}
}

func (p *Parser) parseFunctionCall(name string, pos token.Position) *cst.FunctionCall {
	fn := &cst.FunctionCall{
		Position: pos,
		Name:     name,
	}

	p.nextToken() // skip (

	if p.currentIs(token.DISTINCT) {
		fn.Distinct = true
		p.nextToken()
	}

	if p.currentIs(token.SELECT) || p.currentIs(token.WITH) {
		// Subquery argument
		sub := p.parseSelectUnionQuery()
		fn.Arguments = []cst.Expression{&cst.Subquery{Position: pos, Query: sub}}
	} else if !p.currentIs(token.RPAREN) {
		fn.Arguments = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	return fn
}

// parseCallSuffix handles the parametric form name(params)(args) and OVER.
func (p *Parser) parseCallSuffix(fn *cst.FunctionCall) cst.Expression {
	if fn == nil {
		return nil
	}

	if p.currentIs(token.LPAREN) {
		fn.Parameters = fn.Arguments
		fn.HasParams = true
		fn.Arguments = nil
		p.nextToken()
		if !p.currentIs(token.RPAREN) {
			fn.Arguments = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
	}

	if p.currentIs(token.OVER) {
		p.nextToken()
		if p.currentIs(token.LPAREN) {
			fn.Over = p.parseWindowSpec()
		} else if p.currentIs(token.IDENT) {
			fn.OverName = p.current.Value
			p.nextToken()
		} else {
			p.errorf("expected window specification after OVER at line %d, column %d",
				p.current.Pos.Line, p.current.Pos.Column)
		}
	}

	return fn
}

func (p *Parser) parseWindowSpec() *cst.WindowSpec {
	spec := &cst.WindowSpec{
		Position: p.current.Pos,
	}

	if !p.expect(token.LPAREN) {
		return spec
	}

	if p.currentIs(token.PARTITION) {
		p.nextToken()
		if p.expect(token.BY) {
			spec.PartitionBy = p.parseExpressionList()
		}
	}

	if p.currentIs(token.ORDER) {
		p.nextToken()
		if p.expect(token.BY) {
			spec.OrderBy = p.parseOrderByList()
		}
	}

	if p.currentIs(token.ROWS) || p.currentIs(token.RANGE) {
		spec.Frame = p.parseWindowFrame()
	}

	p.expect(token.RPAREN)
	return spec
}

func (p *Parser) parseWindowFrame() *cst.WindowFrame {
	frame := &cst.WindowFrame{
		Position: p.current.Pos,
	}
	if p.currentIs(token.ROWS) {
		frame.Rows = true
	} else {
		frame.Range = true
	}
	p.nextToken()

	if p.currentIs(token.BETWEEN) {
		p.nextToken()
		frame.Start = p.parseFrameBound()
		if p.expect(token.AND) {
			frame.End = p.parseFrameBound()
		}
	} else {
		frame.Start = p.parseFrameBound()
	}

	return frame
}

func (p *Parser) parseFrameBound() *cst.FrameBound {
	bound := &cst.FrameBound{
		Position: p.current.Pos,
	}

	switch {
	case p.currentIs(token.CURRENT):
		p.nextToken()
		p.expect(token.ROW)
	case p.currentIs(token.UNBOUNDED):
		p.nextToken()
		if p.currentIs(token.PRECEDING) {
			bound.Preceding = true
			p.nextToken()
		} else if p.currentIs(token.FOLLOWING) {
			bound.Following = true
			p.nextToken()
		} else {
			p.errorf("expected PRECEDING or FOLLOWING at line %d, column %d",
				p.current.Pos.Line, p.current.Pos.Column)
		}
	case p.currentIs(token.NUMBER):
		bound.Offset = &cst.NumberLiteral{Position: p.current.Pos, Lexeme: p.current.Value}
		p.nextToken()
		if p.currentIs(token.PRECEDING) {
			bound.Preceding = true
			p.nextToken()
		} else if p.currentIs(token.FOLLOWING) {
			bound.Following = true
			p.nextToken()
		} else {
			p.errorf("expected PRECEDING or FOLLOWING at line %d, column %d",
				p.current.Pos.Line, p.current.Pos.Column)
		}
	default:
		p.errorf("expected frame bound, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	}

	return bound
}

// parseUnaryMinus folds a sign directly preceding a numeric literal into the
// lexeme; a freestanding minus stays a unary operator.
func (p *Parser) parseUnaryMinus() cst.Expression {
	pos := p.current.Pos
	p.nextToken()

	switch p.current.Token {
	case token.NUMBER:
		n := &cst.NumberLiteral{Position: pos, Lexeme: "-" + p.current.Value}
		p.nextToken()
		return n
	case token.INF:
		p.nextToken()
		return &cst.NumberLiteral{Position: pos, Lexeme: "-inf"}
	case token.NAN:
		p.nextToken()
		return &cst.NumberLiteral{Position: pos, Lexeme: "-nan"}
	}

	expr := &cst.UnaryExpr{Position: pos, Op: "-"}
	expr.Operand = p.parseExpression(UNARY)
	if expr.Operand == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseNot() cst.Expression {
	expr := &cst.UnaryExpr{Position: p.current.Pos, Op: "NOT"}
	p.nextToken()
	expr.Operand = p.parseExpression(NOT_PREC)
	if expr.Operand == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseGroupedOrTuple() cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip (

	// Empty tuple ()
	if p.currentIs(token.RPAREN) {
		p.nextToken()
		return &cst.TupleExpr{Position: pos}
	}

	// Subquery
	if p.currentIs(token.SELECT) || p.currentIs(token.WITH) {
		sub := p.parseSelectUnionQuery()
		p.expect(token.RPAREN)
		return &cst.Subquery{Position: pos, Query: sub}
	}

	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.currentIs(token.COMMA) {
		elements := []cst.Expression{first}
		for p.currentIs(token.COMMA) {
			p.nextToken()
			elem := p.parseExpression(LOWEST)
			if elem == nil {
				return nil
			}
			elements = append(elements, elem)
		}
		p.expect(token.RPAREN)
		return &cst.TupleExpr{Position: pos, Elements: elements}
	}

	p.expect(token.RPAREN)
	return first
}

func (p *Parser) parseArrayLiteral() cst.Expression {
	arr := &cst.ArrayExpr{
		Position: p.current.Pos,
	}
	p.nextToken() // skip [

	if !p.currentIs(token.RBRACKET) {
		arr.Elements = p.parseExpressionList()
	}

	p.expect(token.RBRACKET)
	return arr
}

func (p *Parser) parseCase() cst.Expression {
	expr := &cst.CaseExpr{
		Position: p.current.Pos,
	}
	p.nextToken() // skip CASE

	// Simple CASE has an operand before the first WHEN
	if !p.currentIs(token.WHEN) {
		expr.Operand = p.parseExpression(LOWEST)
	}

	for p.currentIs(token.WHEN) {
		when := &cst.WhenClause{
			Position: p.current.Pos,
		}
		p.nextToken() // skip WHEN

		when.Condition = p.parseExpression(LOWEST)

		if !p.expect(token.THEN) {
			break
		}

		when.Result = p.parseExpression(LOWEST)
		expr.Whens = append(expr.Whens, when)
	}

	if p.currentIs(token.ELSE) {
		p.nextToken()
		expr.Else = p.parseExpression(LOWEST)
	}

	p.expect(token.END)
	return expr
}

func (p *Parser) parseCast() cst.Expression {
	expr := &cst.CastExpr{
		Position: p.current.Pos,
	}
	p.nextToken() // skip CAST

	if !p.expect(token.LPAREN) {
		return nil
	}

	// ALIAS_PREC keeps AS from being consumed as an alias operator
	expr.Expr = p.parseExpression(ALIAS_PREC)

	// CAST(x AS Type) and CAST(x, 'Type')
	if p.currentIs(token.AS) {
		p.nextToken()
		if p.currentIs(token.IDENT) {
			expr.TypeName = p.current.Value
			p.nextToken()
			if p.currentIs(token.LPAREN) {
				p.skipParens()
			}
		}
	} else if p.currentIs(token.COMMA) {
		p.nextToken()
		if p.currentIs(token.STRING) {
			expr.TypeName = p.current.Value
			p.nextToken()
		}
	}

	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parseCastOperator(left cst.Expression) cst.Expression {
	expr := &cst.CastExpr{
		Position: p.current.Pos,
		Expr:     left,
	}
	p.nextToken() // skip ::

	if p.currentIs(token.IDENT) {
		expr.TypeName = p.current.Value
		p.nextToken()
		if p.currentIs(token.LPAREN) {
			p.skipParens()
		}
	} else {
		p.errorf("expected type name after ::, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	}

	return expr
}

// skipParens consumes a balanced parenthesized group, type parameters like
// Nullable(String) for instance.
func (p *Parser) skipParens() {
	depth := 0
	for !p.currentIs(token.EOF) {
		if p.currentIs(token.LPAREN) {
			depth++
		} else if p.currentIs(token.RPAREN) {
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}

func (p *Parser) parseExtract() cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip EXTRACT

	if !p.expect(token.LPAREN) {
		return nil
	}

	// EXTRACT(field FROM expr) vs the extract(str, pattern) regex form
	if p.currentIs(token.IDENT) && p.peekIs(token.FROM) {
		field := strings.ToUpper(p.current.Value)
		p.nextToken()
		p.nextToken() // skip FROM
		from := p.parseExpression(LOWEST)
		p.expect(token.RPAREN)
		return &cst.ExtractExpr{
			Position: pos,
			Field:    field,
			From:     from,
		}
	}

	fn := &cst.FunctionCall{
		Position: pos,
		Name:     "extract",
	}
	if !p.currentIs(token.RPAREN) {
		fn.Arguments = p.parseExpressionList()
	}
	p.expect(token.RPAREN)
	return fn
}

func (p *Parser) parseInterval() cst.Expression {
	expr := &cst.IntervalExpr{
		Position: p.current.Pos,
	}
	p.nextToken() // skip INTERVAL

	expr.Value = p.parseExpression(ADD_PREC)

	if p.currentIs(token.IDENT) {
		expr.Unit = strings.ToUpper(p.current.Value)
		p.nextToken()
	} else {
		p.errorf("expected interval unit, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
	}

	return expr
}

func (p *Parser) parseExists() cst.Expression {
	expr := &cst.ExistsExpr{
		Position: p.current.Pos,
	}
	p.nextToken() // skip EXISTS

	if !p.expect(token.LPAREN) {
		return nil
	}

	expr.Query = p.parseSelectUnionQuery()
	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parseSubstring() cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip SUBSTRING

	if !p.expect(token.LPAREN) {
		return nil
	}

	args := []cst.Expression{p.parseExpression(LOWEST)}

	// substring(x FROM a FOR b) and substring(x, a, b)
	if p.currentIs(token.FROM) || p.currentIs(token.COMMA) {
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}
	if p.currentIs(token.FOR) || p.currentIs(token.COMMA) {
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}

	p.expect(token.RPAREN)

	return &cst.FunctionCall{
		Position:  pos,
		Name:      "substring",
		Arguments: args,
	}
}

func (p *Parser) parseTrim() cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip TRIM

	if !p.expect(token.LPAREN) {
		return nil
	}

	var trimType string
	switch p.current.Token {
	case token.LEADING:
		trimType = "LEADING"
		p.nextToken()
	case token.TRAILING:
		trimType = "TRAILING"
		p.nextToken()
	case token.BOTH:
		trimType = "BOTH"
		p.nextToken()
	}

	var trimChars cst.Expression
	if !p.currentIs(token.FROM) && !p.currentIs(token.RPAREN) {
		trimChars = p.parseExpression(LOWEST)
	}

	var expr cst.Expression
	if p.currentIs(token.FROM) {
		p.nextToken()
		expr = p.parseExpression(LOWEST)
	} else {
		expr = trimChars
		trimChars = nil
	}

	p.expect(token.RPAREN)

	fnName := "trim"
	switch trimType {
	case "LEADING":
		fnName = "trimLeft"
	case "TRAILING":
		fnName = "trimRight"
	}

	args := []cst.Expression{expr}
	if trimChars != nil {
		args = append(args, trimChars)
	}

	return &cst.FunctionCall{
		Position:  pos,
		Name:      fnName,
		Arguments: args,
	}
}

func (p *Parser) parseBinaryExpression(left cst.Expression) cst.Expression {
	expr := &cst.BinaryExpr{
		Position: p.current.Pos,
		Left:     left,
		Op:       p.current.Value,
	}

	if p.current.Token.IsKeyword() {
		expr.Op = strings.ToUpper(p.current.Value)
	}

	prec := p.precedence(p.current.Token)
	p.nextToken()

	expr.Right = p.parseExpression(prec)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseTernary(condition cst.Expression) cst.Expression {
	ternary := &cst.TernaryExpr{
		Position:  p.current.Pos,
		Condition: condition,
	}

	p.nextToken() // skip ?

	ternary.Then = p.parseExpression(LOWEST)

	if !p.expect(token.COLON) {
		return nil
	}

	ternary.Else = p.parseExpression(LOWEST)
	if ternary.Then == nil || ternary.Else == nil {
		return nil
	}
	return ternary
}

func (p *Parser) parseCoalesce(left cst.Expression) cst.Expression {
	expr := &cst.CoalesceExpr{
		Position: p.current.Pos,
		Left:     left,
	}

	p.nextToken() // skip ??

	// Right associative: a ?? b ?? c falls back through b to c, so the right
	// operand binds everything up to and including the next ??.
	expr.Right = p.parseExpression(NULLISH_PREC - 1)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseLikeExpression(left cst.Expression, not bool) cst.Expression {
	expr := &cst.LikeExpr{
		Position: p.current.Pos,
		Expr:     left,
		Not:      not,
	}

	if p.currentIs(token.ILIKE) {
		expr.CaseInsensitive = true
	}

	p.nextToken() // skip LIKE/ILIKE

	expr.Pattern = p.parseExpression(COMPARE)
	if expr.Pattern == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseRegexExpression(left cst.Expression, not, insensitive bool) cst.Expression {
	expr := &cst.RegexExpr{
		Position:        p.current.Pos,
		Expr:            left,
		Not:             not,
		CaseInsensitive: insensitive,
	}

	p.nextToken() // skip the regex operator

	expr.Pattern = p.parseExpression(COMPARE)
	if expr.Pattern == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInExpression(left cst.Expression, not, global bool) cst.Expression {
	expr := &cst.InExpr{
		Position: p.current.Pos,
		Expr:     left,
		Not:      not,
		Global:   global,
	}

	p.nextToken() // skip IN

	if p.currentIs(token.COHORT) {
		expr.Cohort = true
		p.nextToken()
	}

	if p.currentIs(token.LPAREN) {
		expr.Right = p.parseGroupedOrTuple()
	} else {
		expr.Right = p.parseExpression(CALL)
	}
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseBetweenExpression(left cst.Expression, not bool) cst.Expression {
	expr := &cst.BetweenExpr{
		Position: p.current.Pos,
		Expr:     left,
		Not:      not,
	}

	p.nextToken() // skip BETWEEN

	expr.Low = p.parseExpression(COMPARE)

	if !p.expect(token.AND) {
		return nil
	}

	expr.High = p.parseExpression(COMPARE)
	if expr.Low == nil || expr.High == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseIsExpression(left cst.Expression) cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip IS

	not := false
	if p.currentIs(token.NOT) {
		not = true
		p.nextToken()
	}

	if !p.expect(token.NULL) {
		return nil
	}

	return &cst.IsNullExpr{
		Position: pos,
		Expr:     left,
		Not:      not,
	}
}

func (p *Parser) parseArrayAccess(left cst.Expression) cst.Expression {
	expr := &cst.ArrayAccess{
		Position: p.current.Pos,
		Array:    left,
	}

	p.nextToken() // skip [
	expr.Index = p.parseExpression(LOWEST)
	p.expect(token.RBRACKET)

	if expr.Index == nil {
		return nil
	}
	return expr
}

// parseTupleAccessFromNumber handles t.1 where .1 was lexed as one number.
func (p *Parser) parseTupleAccessFromNumber(left cst.Expression) cst.Expression {
	pos := p.current.Pos
	lexeme := strings.TrimPrefix(p.current.Value, ".")
	p.nextToken()

	return &cst.TupleAccess{
		Position: pos,
		Tuple:    left,
		Index:    &cst.NumberLiteral{Position: pos, Lexeme: lexeme},
	}
}

func (p *Parser) parseDotAccess(left cst.Expression) cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip .

	if p.currentIs(token.NUMBER) {
		idx := &cst.NumberLiteral{Position: p.current.Pos, Lexeme: p.current.Value}
		p.nextToken()
		return &cst.TupleAccess{Position: pos, Tuple: left, Index: idx}
	}

	if p.currentIs(token.IDENT) {
		if ident, ok := left.(*cst.Identifier); ok {
			ident.Parts = append(ident.Parts, p.current.Value)
			p.nextToken()
			return ident
		}
		name := p.current.Value
		p.nextToken()
		return &cst.PropertyAccess{Position: pos, Expr: left, Name: name}
	}

	if p.currentIs(token.ASTERISK) {
		if ident, ok := left.(*cst.Identifier); ok {
			p.nextToken()
			return &cst.Asterisk{Position: ident.Position, Table: ident.Parts}
		}
	}

	return left
}

func (p *Parser) parseAliasExpr(left cst.Expression) cst.Expression {
	pos := p.current.Pos
	p.nextToken() // skip AS

	// Aliases may be plain identifiers, quoted identifiers, or keywords
	if !p.currentIs(token.IDENT) && !p.current.Token.IsKeyword() {
		p.errorf("expected alias name, got %s at line %d, column %d",
			p.current.Token, p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}
	alias := p.current.Value
	p.nextToken()

	return &cst.AliasExpr{
		Position: pos,
		Expr:     left,
		Alias:    alias,
	}
}

func (p *Parser) parseLambda(left cst.Expression) cst.Expression {
	lambda := &cst.Lambda{
		Position: p.current.Pos,
	}

	switch e := left.(type) {
	case *cst.Identifier:
		if len(e.Parts) == 1 {
			lambda.Parameters = e.Parts
		} else {
			p.errorf("invalid lambda parameter at line %d, column %d",
				e.Position.Line, e.Position.Column)
			return nil
		}
	case *cst.TupleExpr:
		for _, elem := range e.Elements {
			ident, ok := elem.(*cst.Identifier)
			if !ok || len(ident.Parts) != 1 {
				p.errorf("invalid lambda parameter at line %d, column %d",
					e.Position.Line, e.Position.Column)
				return nil
			}
			lambda.Parameters = append(lambda.Parameters, ident.Parts[0])
		}
	default:
		p.errorf("invalid lambda parameters at line %d, column %d",
			p.current.Pos.Line, p.current.Pos.Column)
		return nil
	}

	p.nextToken() // skip ->

	lambda.Body = p.parseExpression(LOWEST)
	if lambda.Body == nil {
		return nil
	}
	return lambda
}

func (p *Parser) parseAsteriskExcept(asterisk *cst.Asterisk) cst.Expression {
	p.nextToken() // skip EXCEPT

	if p.currentIs(token.LPAREN) {
		p.nextToken()
		for !p.currentIs(token.RPAREN) && !p.currentIs(token.EOF) {
			if p.currentIs(token.IDENT) {
				asterisk.Except = append(asterisk.Except, p.current.Value)
				p.nextToken()
			}
			if p.currentIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.expect(token.RPAREN)
	} else if p.currentIs(token.IDENT) {
		asterisk.Except = append(asterisk.Except, p.current.Value)
		p.nextToken()
	}

	return asterisk
}

func (p *Parser) parseAsteriskReplace(asterisk *cst.Asterisk) cst.Expression {
	p.nextToken() // skip REPLACE

	if !p.expect(token.LPAREN) {
		return asterisk
	}

	for !p.currentIs(token.RPAREN) && !p.currentIs(token.EOF) {
		expr := p.parseExpression(LOWEST)
		if expr != nil {
			asterisk.Replace = append(asterisk.Replace, expr)
		}
		if p.currentIs(token.COMMA) {
			p.nextToken()
		}
	}

	p.expect(token.RPAREN)
	return asterisk
}

func (p *Parser) parseKeywordAsFunction() cst.Expression {
	pos := p.current.Pos
	name := strings.ToLower(p.current.Value)
	p.nextToken()

	return p.parseCallSuffix(p.parseFunctionCall(name, pos))
}

func (p *Parser) parseKeywordAsIdentifier() cst.Expression {
	ident := &cst.Identifier{
		Position: p.current.Pos,
		Parts:    []string{p.current.Value},
	}
	p.nextToken()
	return ident
}
