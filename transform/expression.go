// Package transform lowers the grammar-shaped CST into the normalized AST.
//
// The pass is a single pre-order walk: every CST node maps to its AST
// counterpart in one step, with literal lexemes interpreted here rather than
// in the lexer. Failures abort the walk and surface as one of the three
// typed errors in this package.
package transform

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/PostHog/posthog-sub001/ast"
	"github.com/PostHog/posthog-sub001/cst"
)

// Expr lowers a CST expression into the normalized AST.
func Expr(node cst.Expression) (ast.Expr, error) {
	switch n := node.(type) {
	case *cst.Identifier:
		return identifier(n)
	case *cst.NumberLiteral:
		v, err := ParseNumber(n.Lexeme)
		if err != nil {
			return nil, err
		}
		return &ast.Constant{Value: v}, nil
	case *cst.StringLiteral:
		s, err := UnquoteString(n.Raw)
		if err != nil {
			return nil, err
		}
		return &ast.Constant{Value: s}, nil
	case *cst.NullLiteral:
		return &ast.Constant{Value: nil}, nil
	case *cst.Placeholder:
		return &ast.Placeholder{Field: strings.TrimSpace(n.Name)}, nil
	case *cst.BinaryExpr:
		return binary(n)
	case *cst.UnaryExpr:
		return unary(n)
	case *cst.TernaryExpr:
		return ternary(n)
	case *cst.CoalesceExpr:
		return coalesce(n)
	case *cst.IsNullExpr:
		return isNull(n)
	case *cst.LikeExpr:
		return like(n)
	case *cst.RegexExpr:
		return regex(n)
	case *cst.InExpr:
		return in(n)
	case *cst.BetweenExpr:
		return nil, &UnsupportedError{Construct: "BETWEEN"}
	case *cst.CaseExpr:
		return caseExpr(n)
	case *cst.FunctionCall:
		return call(n)
	case *cst.TupleExpr:
		exprs, err := exprList(n.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.Tuple{Exprs: exprs}, nil
	case *cst.ArrayExpr:
		exprs, err := exprList(n.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.Array{Exprs: exprs}, nil
	case *cst.ArrayAccess:
		return arrayAccess(n)
	case *cst.TupleAccess:
		return tupleAccess(n)
	case *cst.PropertyAccess:
		return propertyAccess(n)
	case *cst.Lambda:
		return lambda(n)
	case *cst.AliasExpr:
		return alias(n)
	case *cst.Subquery:
		stmt, err := Select(n.Query)
		if err != nil {
			return nil, err
		}
		return stmt.(ast.Expr), nil
	case *cst.Asterisk:
		return asterisk(n)
	case *cst.IntervalExpr:
		return interval(n)
	case *cst.CastExpr:
		return nil, &UnsupportedError{Construct: "CAST"}
	case *cst.ExtractExpr:
		return nil, &UnsupportedError{Construct: "EXTRACT"}
	case *cst.ExistsExpr:
		return nil, &UnsupportedError{Construct: "EXISTS"}
	default:
		return nil, fmt.Errorf("unhandled node %T", node)
	}
}

func exprList(nodes []cst.Expression) ([]ast.Expr, error) {
	var out []ast.Expr
	for _, node := range nodes {
		expr, err := Expr(node)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func optionalExpr(node cst.Expression) (ast.Expr, error) {
	if node == nil {
		return nil, nil
	}
	return Expr(node)
}

// identifier resolves a possibly-qualified identifier. A bare single-segment
// true or false, case-insensitively, is a boolean constant; quoting defeats
// the match because raw segments keep their delimiters.
func identifier(node *cst.Identifier) (ast.Expr, error) {
	if len(node.Parts) == 1 {
		switch strings.ToLower(node.Parts[0]) {
		case "true":
			return &ast.Constant{Value: true}, nil
		case "false":
			return &ast.Constant{Value: false}, nil
		}
	}

	chain := make([]string, 0, len(node.Parts))
	for _, part := range node.Parts {
		name, err := UnquoteIdentifier(part)
		if err != nil {
			return nil, err
		}
		chain = append(chain, name)
	}
	return &ast.Field{Chain: chain}, nil
}

func binary(node *cst.BinaryExpr) (ast.Expr, error) {
	left, err := Expr(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := Expr(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "+":
		return &ast.ArithmeticOperation{Left: left, Right: right, Op: ast.ArithmeticAdd}, nil
	case "-":
		return &ast.ArithmeticOperation{Left: left, Right: right, Op: ast.ArithmeticSub}, nil
	case "*":
		return &ast.ArithmeticOperation{Left: left, Right: right, Op: ast.ArithmeticMult}, nil
	case "/":
		return &ast.ArithmeticOperation{Left: left, Right: right, Op: ast.ArithmeticDiv}, nil
	case "%":
		return &ast.ArithmeticOperation{Left: left, Right: right, Op: ast.ArithmeticMod}, nil
	case "=", "==":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareEq}, nil
	case "!=", "<>":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareNotEq}, nil
	case "<":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareLt}, nil
	case "<=":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareLtEq}, nil
	case ">":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareGt}, nil
	case ">=":
		return &ast.CompareOperation{Left: left, Right: right, Op: ast.CompareGtEq}, nil
	case "AND":
		return newAnd(left, right), nil
	case "OR":
		return newOr(left, right), nil
	case "||":
		// String concat becomes a concat call, splicing nested concats so
		// a || b || c yields a single three-argument call.
		args := append(concatOperands(left), concatOperands(right)...)
		return &ast.Call{Name: "concat", Args: args}, nil
	default:
		return nil, fmt.Errorf("unhandled binary operator %q", node.Op)
	}
}

// newAnd builds a flat conjunction. Operands that are themselves And nodes
// are spliced in; operands were built flat already, so one level suffices.
func newAnd(exprs ...ast.Expr) *ast.And {
	var flat []ast.Expr
	for _, e := range exprs {
		if a, ok := e.(*ast.And); ok {
			flat = append(flat, a.Exprs...)
		} else {
			flat = append(flat, e)
		}
	}
	return &ast.And{Exprs: flat}
}

func newOr(exprs ...ast.Expr) *ast.Or {
	var flat []ast.Expr
	for _, e := range exprs {
		if o, ok := e.(*ast.Or); ok {
			flat = append(flat, o.Exprs...)
		} else {
			flat = append(flat, e)
		}
	}
	return &ast.Or{Exprs: flat}
}

func concatOperands(e ast.Expr) []ast.Expr {
	if c, ok := e.(*ast.Call); ok && c.Name == "concat" && len(c.Params) == 0 && !c.Distinct {
		return c.Args
	}
	return []ast.Expr{e}
}

func unary(node *cst.UnaryExpr) (ast.Expr, error) {
	operand, err := Expr(node.Operand)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "-":
		// Freestanding unary minus; signs adjacent to numeric literals were
		// folded into the lexeme upstream.
		return &ast.ArithmeticOperation{
			Left:  &ast.Constant{Value: big.NewInt(0)},
			Right: operand,
			Op:    ast.ArithmeticSub,
		}, nil
	case "NOT":
		return &ast.Not{Expr: operand}, nil
	default:
		return nil, fmt.Errorf("unhandled unary operator %q", node.Op)
	}
}

func ternary(node *cst.TernaryExpr) (ast.Expr, error) {
	cond, err := Expr(node.Condition)
	if err != nil {
		return nil, err
	}
	then, err := Expr(node.Then)
	if err != nil {
		return nil, err
	}
	els, err := Expr(node.Else)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: "if", Args: []ast.Expr{cond, then, els}}, nil
}

func coalesce(node *cst.CoalesceExpr) (ast.Expr, error) {
	left, err := Expr(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := Expr(node.Right)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: "ifNull", Args: []ast.Expr{left, right}}, nil
}

func isNull(node *cst.IsNullExpr) (ast.Expr, error) {
	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	op := ast.CompareEq
	if node.Not {
		op = ast.CompareNotEq
	}
	return &ast.CompareOperation{Left: expr, Right: &ast.Constant{Value: nil}, Op: op}, nil
}

func like(node *cst.LikeExpr) (ast.Expr, error) {
	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	pattern, err := Expr(node.Pattern)
	if err != nil {
		return nil, err
	}

	var op ast.CompareOperationOp
	switch {
	case node.CaseInsensitive && node.Not:
		op = ast.CompareNotILike
	case node.CaseInsensitive:
		op = ast.CompareILike
	case node.Not:
		op = ast.CompareNotLike
	default:
		op = ast.CompareLike
	}
	return &ast.CompareOperation{Left: expr, Right: pattern, Op: op}, nil
}

func regex(node *cst.RegexExpr) (ast.Expr, error) {
	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	pattern, err := Expr(node.Pattern)
	if err != nil {
		return nil, err
	}

	var op ast.CompareOperationOp
	switch {
	case node.CaseInsensitive && node.Not:
		op = ast.CompareNotIRegex
	case node.CaseInsensitive:
		op = ast.CompareIRegex
	case node.Not:
		op = ast.CompareNotRegex
	default:
		op = ast.CompareRegex
	}
	return &ast.CompareOperation{Left: expr, Right: pattern, Op: op}, nil
}

func in(node *cst.InExpr) (ast.Expr, error) {
	if node.Global {
		return nil, &UnsupportedError{Construct: "GLOBAL IN"}
	}

	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	right, err := Expr(node.Right)
	if err != nil {
		return nil, err
	}

	var op ast.CompareOperationOp
	switch {
	case node.Cohort && node.Not:
		op = ast.CompareNotInCohort
	case node.Cohort:
		op = ast.CompareInCohort
	case node.Not:
		op = ast.CompareNotIn
	default:
		op = ast.CompareIn
	}
	return &ast.CompareOperation{Left: expr, Right: right, Op: op}, nil
}

// caseExpr desugars CASE. The simple form becomes a transform call, with a
// null constant filling a missing ELSE. The searched form keeps exactly the
// written sub-expressions: three become if, any other count becomes multiIf.
func caseExpr(node *cst.CaseExpr) (ast.Expr, error) {
	els, err := optionalExpr(node.Else)
	if err != nil {
		return nil, err
	}

	if node.Operand != nil {
		operand, err := Expr(node.Operand)
		if err != nil {
			return nil, err
		}
		if els == nil {
			els = &ast.Constant{Value: nil}
		}
		values := &ast.Array{}
		results := &ast.Array{}
		for _, when := range node.Whens {
			cond, err := Expr(when.Condition)
			if err != nil {
				return nil, err
			}
			result, err := Expr(when.Result)
			if err != nil {
				return nil, err
			}
			values.Exprs = append(values.Exprs, cond)
			results.Exprs = append(results.Exprs, result)
		}
		return &ast.Call{Name: "transform", Args: []ast.Expr{operand, values, results, els}}, nil
	}

	var args []ast.Expr
	for _, when := range node.Whens {
		cond, err := Expr(when.Condition)
		if err != nil {
			return nil, err
		}
		result, err := Expr(when.Result)
		if err != nil {
			return nil, err
		}
		args = append(args, cond, result)
	}
	if els != nil {
		args = append(args, els)
	}
	if len(args) == 3 {
		return &ast.Call{Name: "if", Args: args}, nil
	}
	return &ast.Call{Name: "multiIf", Args: args}, nil
}

func call(node *cst.FunctionCall) (ast.Expr, error) {
	args, err := exprList(node.Arguments)
	if err != nil {
		return nil, err
	}
	var params []ast.Expr
	if node.HasParams {
		params, err = exprList(node.Parameters)
		if err != nil {
			return nil, err
		}
		if params == nil {
			params = []ast.Expr{}
		}
	}

	if node.Over != nil || node.OverName != "" {
		fn := &ast.WindowFunction{
			Name:   node.Name,
			Args:   args,
			Params: params,
		}
		if node.Over != nil {
			over, err := windowExpr(node.Over)
			if err != nil {
				return nil, err
			}
			fn.OverExpr = over
		} else {
			name, err := UnquoteIdentifier(node.OverName)
			if err != nil {
				return nil, err
			}
			fn.OverIdentifier = name
		}
		return fn, nil
	}

	return &ast.Call{
		Name:     node.Name,
		Args:     args,
		Params:   params,
		Distinct: node.Distinct,
	}, nil
}

func windowExpr(spec *cst.WindowSpec) (*ast.WindowExpr, error) {
	w := &ast.WindowExpr{}

	partitionBy, err := exprList(spec.PartitionBy)
	if err != nil {
		return nil, err
	}
	w.PartitionBy = partitionBy

	for _, elem := range spec.OrderBy {
		order, err := orderExpr(elem)
		if err != nil {
			return nil, err
		}
		w.OrderBy = append(w.OrderBy, order)
	}

	if spec.Frame != nil {
		if spec.Frame.Rows {
			w.FrameMethod = "ROWS"
		} else {
			w.FrameMethod = "RANGE"
		}
		w.FrameStart, err = frameBound(spec.Frame.Start)
		if err != nil {
			return nil, err
		}
		w.FrameEnd, err = frameBound(spec.Frame.End)
		if err != nil {
			return nil, err
		}
	}

	return w, nil
}

func frameBound(bound *cst.FrameBound) (*ast.WindowFrameExpr, error) {
	if bound == nil {
		return nil, nil
	}

	frame := &ast.WindowFrameExpr{FrameType: "CURRENT ROW"}
	switch {
	case bound.Preceding:
		frame.FrameType = "PRECEDING"
	case bound.Following:
		frame.FrameType = "FOLLOWING"
	}

	if bound.Offset != nil {
		v, err := strconv.Atoi(bound.Offset.Lexeme)
		if err != nil {
			return nil, &LiteralError{Lexeme: bound.Offset.Lexeme}
		}
		frame.FrameValue = &v
	}
	return frame, nil
}

func orderExpr(node *cst.OrderByElement) (*ast.OrderExpr, error) {
	expr, err := Expr(node.Expression)
	if err != nil {
		return nil, err
	}
	order := "ASC"
	if node.Descending {
		order = "DESC"
	}
	return &ast.OrderExpr{Expr: expr, Order: order}, nil
}

func arrayAccess(node *cst.ArrayAccess) (ast.Expr, error) {
	array, err := Expr(node.Array)
	if err != nil {
		return nil, err
	}
	index, err := Expr(node.Index)
	if err != nil {
		return nil, err
	}

	if c, ok := index.(*ast.Constant); ok {
		if i, ok := c.Value.(*big.Int); ok && i.Sign() == 0 {
			return nil, &ValidationError{
				Message: "SQL indexes start from one, not from zero. For example: array[1]",
				Pos:     node.Index.Pos(),
			}
		}
	}

	return &ast.ArrayAccess{Array: array, Property: index}, nil
}

func tupleAccess(node *cst.TupleAccess) (ast.Expr, error) {
	tuple, err := Expr(node.Tuple)
	if err != nil {
		return nil, err
	}

	index, err := strconv.Atoi(node.Index.Lexeme)
	if err != nil {
		return nil, &LiteralError{Lexeme: node.Index.Lexeme}
	}
	if index == 0 {
		return nil, &ValidationError{
			Message: "SQL indexes start from one, not from zero. For example: tuple.1",
			Pos:     node.Index.Position,
		}
	}

	return &ast.TupleAccess{Tuple: tuple, Index: index}, nil
}

// propertyAccess normalizes expr.name into subscripting with a string key.
func propertyAccess(node *cst.PropertyAccess) (ast.Expr, error) {
	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	name, err := UnquoteIdentifier(node.Name)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayAccess{Array: expr, Property: &ast.Constant{Value: name}}, nil
}

func lambda(node *cst.Lambda) (ast.Expr, error) {
	body, err := Expr(node.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Args: node.Parameters, Expr: body}, nil
}

func alias(node *cst.AliasExpr) (ast.Expr, error) {
	expr, err := Expr(node.Expr)
	if err != nil {
		return nil, err
	}
	name, err := UnquoteIdentifier(node.Alias)
	if err != nil {
		return nil, err
	}
	if IsReserved(name) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("%q cannot be an alias or identifier, as it's a reserved keyword", name),
			Pos:     node.Position,
		}
	}
	return &ast.Alias{Alias: name, Expr: expr}, nil
}

func asterisk(node *cst.Asterisk) (ast.Expr, error) {
	if len(node.Except) > 0 || len(node.Replace) > 0 {
		return nil, &UnsupportedError{Construct: "* EXCEPT/REPLACE"}
	}

	chain := make([]string, 0, len(node.Table)+1)
	for _, part := range node.Table {
		name, err := UnquoteIdentifier(part)
		if err != nil {
			return nil, err
		}
		chain = append(chain, name)
	}
	chain = append(chain, "*")
	return &ast.Field{Chain: chain}, nil
}

var intervalUnits = map[string]string{
	"SECOND":  "toIntervalSecond",
	"MINUTE":  "toIntervalMinute",
	"HOUR":    "toIntervalHour",
	"DAY":     "toIntervalDay",
	"WEEK":    "toIntervalWeek",
	"MONTH":   "toIntervalMonth",
	"QUARTER": "toIntervalQuarter",
	"YEAR":    "toIntervalYear",
}

func interval(node *cst.IntervalExpr) (ast.Expr, error) {
	value, err := Expr(node.Value)
	if err != nil {
		return nil, err
	}

	unit := node.Unit
	if len(unit) > 1 {
		unit = strings.TrimSuffix(unit, "S")
	}
	name, ok := intervalUnits[unit]
	if !ok {
		return nil, &ValidationError{
			Message: fmt.Sprintf("unexpected interval unit %q", node.Unit),
			Pos:     node.Position,
		}
	}
	return &ast.Call{Name: name, Args: []ast.Expr{value}}, nil
}
