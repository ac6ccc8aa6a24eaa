package transform

import (
	"fmt"
	"strings"

	"github.com/PostHog/posthog-sub001/ast"
	"github.com/PostHog/posthog-sub001/cst"
)

// Select lowers a parsed SELECT chain. Nested UNION ALL chains flatten into
// one ordered list, and a set of one collapses to the lone SelectQuery.
func Select(node *cst.SelectUnionQuery) (ast.Statement, error) {
	selects, err := selectSet(node)
	if err != nil {
		return nil, err
	}
	if len(selects) == 0 {
		return nil, fmt.Errorf("empty select")
	}
	if len(selects) == 1 {
		return selects[0], nil
	}
	return &ast.SelectSetQuery{Selects: selects}, nil
}

func selectSet(node *cst.SelectUnionQuery) ([]*ast.SelectQuery, error) {
	var out []*ast.SelectQuery
	for _, member := range node.Selects {
		switch m := member.(type) {
		case *cst.SelectQuery:
			q, err := selectQuery(m)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		case *cst.SelectUnionQuery:
			sub, err := selectSet(m)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		default:
			return nil, fmt.Errorf("unhandled select member %T", member)
		}
	}
	return out, nil
}

func selectQuery(node *cst.SelectQuery) (*ast.SelectQuery, error) {
	out := &ast.SelectQuery{
		Distinct:      node.Distinct,
		LimitWithTies: node.LimitTies,
	}

	// CTEs: later definitions shadow earlier ones of the same name.
	if len(node.With) > 0 {
		out.CTEs = make(map[string]*ast.CTE, len(node.With))
		for _, elem := range node.With {
			cte, err := cteExpr(elem)
			if err != nil {
				return nil, err
			}
			out.CTEs[cte.Name] = cte
		}
	}

	columns, err := exprList(node.Columns)
	if err != nil {
		return nil, err
	}
	out.Select = columns

	if node.From != nil {
		out.SelectFrom, err = fromChain(node.From)
		if err != nil {
			return nil, err
		}
	}

	if node.ArrayJoin != nil {
		if out.SelectFrom == nil {
			return nil, &ValidationError{
				Message: "Using ARRAY JOIN without a FROM clause is not permitted",
				Pos:     node.ArrayJoin.Position,
			}
		}
		op, list, err := arrayJoin(node.ArrayJoin)
		if err != nil {
			return nil, err
		}
		out.ArrayJoinOp = op
		out.ArrayJoinList = list
	}

	out.PreWhere, err = optionalExpr(node.PreWhere)
	if err != nil {
		return nil, err
	}
	out.Where, err = optionalExpr(node.Where)
	if err != nil {
		return nil, err
	}
	out.GroupBy, err = exprList(node.GroupBy)
	if err != nil {
		return nil, err
	}
	out.Having, err = optionalExpr(node.Having)
	if err != nil {
		return nil, err
	}

	if len(node.Windows) > 0 {
		out.Window = make(map[string]*ast.WindowExpr, len(node.Windows))
		for _, def := range node.Windows {
			name, err := UnquoteIdentifier(def.Name)
			if err != nil {
				return nil, err
			}
			w, err := windowExpr(def.Spec)
			if err != nil {
				return nil, err
			}
			out.Window[name] = w
		}
	}

	for _, elem := range node.OrderBy {
		order, err := orderExpr(elem)
		if err != nil {
			return nil, err
		}
		out.OrderBy = append(out.OrderBy, order)
	}

	out.Limit, err = optionalExpr(node.Limit)
	if err != nil {
		return nil, err
	}
	out.LimitBy, err = exprList(node.LimitBy)
	if err != nil {
		return nil, err
	}
	out.Offset, err = optionalExpr(node.Offset)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func cteExpr(elem *cst.WithElement) (*ast.CTE, error) {
	name, err := UnquoteIdentifier(elem.Name)
	if err != nil {
		return nil, err
	}

	expr, err := Expr(elem.Query)
	if err != nil {
		return nil, err
	}

	cteType := "column"
	if _, ok := elem.Query.(*cst.Subquery); ok {
		cteType = "subquery"
	}
	return &ast.CTE{Name: name, Expr: expr, Type: cteType}, nil
}

// fromChain linearizes the FROM tables into a forward NextJoin chain, in
// source order, with a tail pointer so each table appends in one step.
func fromChain(from *cst.TablesInSelectQuery) (*ast.JoinExpr, error) {
	var head, tail *ast.JoinExpr
	for _, elem := range from.Tables {
		join, err := joinExpr(elem)
		if err != nil {
			return nil, err
		}
		if head == nil {
			head = join
		} else {
			tail.NextJoin = join
		}
		tail = join
	}
	return head, nil
}

func joinExpr(elem *cst.TablesInSelectQueryElement) (*ast.JoinExpr, error) {
	join := &ast.JoinExpr{}

	table := elem.Table
	expr, err := Expr(table.Table)
	if err != nil {
		return nil, err
	}
	join.Table = expr
	join.TableFinal = table.Final

	if table.Alias != "" {
		name, err := UnquoteIdentifier(table.Alias)
		if err != nil {
			return nil, err
		}
		if IsReserved(name) {
			return nil, &ValidationError{
				Message: fmt.Sprintf("%q cannot be an alias or identifier, as it's a reserved keyword", name),
				Pos:     table.Position,
			}
		}
		join.Alias = name
	}

	if table.Sample != nil {
		join.Sample, err = sampleExpr(table.Sample)
		if err != nil {
			return nil, err
		}
	}

	if elem.Join != nil {
		join.JoinType = joinType(elem.Join)
		join.Constraint, err = joinConstraint(elem.Join)
		if err != nil {
			return nil, err
		}
	}

	return join, nil
}

func joinType(j *cst.TableJoin) string {
	if j.Comma {
		return "CROSS JOIN"
	}
	var parts []string
	if j.Type != "" {
		parts = append(parts, j.Type)
	}
	if j.Strictness != "" {
		parts = append(parts, j.Strictness)
	}
	parts = append(parts, "JOIN")
	return strings.Join(parts, " ")
}

func joinConstraint(j *cst.TableJoin) (*ast.JoinConstraint, error) {
	if j.On != nil {
		expr, err := Expr(j.On)
		if err != nil {
			return nil, err
		}
		if _, ok := expr.(*ast.Tuple); ok {
			return nil, &ValidationError{
				Message: "JOIN ON expression must not be a tuple",
				Pos:     j.On.Pos(),
			}
		}
		return &ast.JoinConstraint{Expr: expr, ConstraintType: "ON"}, nil
	}

	if len(j.Using) > 0 {
		var fields []ast.Expr
		for _, col := range j.Using {
			expr, err := Expr(col)
			if err != nil {
				return nil, err
			}
			if _, ok := expr.(*ast.Field); !ok {
				return nil, &ValidationError{
					Message: "JOIN USING accepts only column names",
					Pos:     col.Pos(),
				}
			}
			fields = append(fields, expr)
		}
		expr := fields[0]
		if len(fields) > 1 {
			expr = &ast.Tuple{Exprs: fields}
		}
		return &ast.JoinConstraint{Expr: expr, ConstraintType: "USING"}, nil
	}

	return nil, nil
}

func sampleExpr(clause *cst.SampleClause) (*ast.SampleExpr, error) {
	sample := &ast.SampleExpr{}

	ratio, err := ratioExpr(clause.Ratio)
	if err != nil {
		return nil, err
	}
	sample.SampleValue = ratio

	if clause.Offset != nil {
		sample.OffsetValue, err = ratioExpr(clause.Offset)
		if err != nil {
			return nil, err
		}
	}
	return sample, nil
}

func ratioExpr(r *cst.RatioExpression) (*ast.RatioExpr, error) {
	if r == nil || r.Numerator == nil {
		return nil, fmt.Errorf("missing sample ratio")
	}

	left, err := ParseNumber(r.Numerator.Lexeme)
	if err != nil {
		return nil, err
	}
	ratio := &ast.RatioExpr{Left: &ast.Constant{Value: left}}

	if r.Denominator != nil {
		right, err := ParseNumber(r.Denominator.Lexeme)
		if err != nil {
			return nil, err
		}
		ratio.Right = &ast.Constant{Value: right}
	}
	return ratio, nil
}

func arrayJoin(clause *cst.ArrayJoinClause) (string, []ast.Expr, error) {
	op := "ARRAY JOIN"
	if clause.Left {
		op = "LEFT ARRAY JOIN"
	} else if clause.Inner {
		op = "INNER ARRAY JOIN"
	}

	if len(clause.Columns) == 0 {
		return "", nil, &ValidationError{
			Message: "No ARRAY JOIN arrays specified",
			Pos:     clause.Position,
		}
	}

	list, err := exprList(clause.Columns)
	if err != nil {
		return "", nil, err
	}
	for i, expr := range list {
		switch expr.(type) {
		case *ast.Alias, *ast.Field, *ast.ArrayAccess:
		default:
			return "", nil, &ValidationError{
				Message: "ARRAY JOIN arrays must have an alias",
				Pos:     clause.Columns[i].Pos(),
			}
		}
	}
	return op, list, nil
}
