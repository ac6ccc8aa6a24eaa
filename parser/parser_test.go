package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PostHog/posthog-sub001/cst"
	"github.com/PostHog/posthog-sub001/parser"
)

func parseExpr(t *testing.T, input string) cst.Expression {
	t.Helper()
	expr, err := parser.ParseExpr(input)
	require.NoError(t, err)
	require.NotNil(t, expr)
	return expr
}

func parseSelect(t *testing.T, input string) *cst.SelectQuery {
	t.Helper()
	union, err := parser.ParseSelect(input)
	require.NoError(t, err)
	require.Len(t, union.Selects, 1)
	sel, ok := union.Selects[0].(*cst.SelectQuery)
	require.True(t, ok, "expected *cst.SelectQuery, got %T", union.Selects[0])
	return sel
}

func TestLiterals(t *testing.T) {
	num, ok := parseExpr(t, "3.14").(*cst.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, "3.14", num.Lexeme)

	str, ok := parseExpr(t, `'it''s'`).(*cst.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, `'it''s'`, str.Raw)

	_, ok = parseExpr(t, "NULL").(*cst.NullLiteral)
	assert.True(t, ok)

	ph, ok := parseExpr(t, "{filters}").(*cst.Placeholder)
	require.True(t, ok)
	assert.Equal(t, "filters", ph.Name)
}

func TestArithmeticPrecedence(t *testing.T) {
	expr, ok := parseExpr(t, "1 + 2 * 3").(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", expr.Op)

	right, ok := expr.Right.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestSignFolding(t *testing.T) {
	num, ok := parseExpr(t, "-1").(*cst.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, "-1", num.Lexeme)

	num, ok = parseExpr(t, "-inf").(*cst.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, "-inf", num.Lexeme)

	// A freestanding minus stays a unary operator
	unary, ok := parseExpr(t, "-x").(*cst.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", unary.Op)

	// An infix minus is untouched
	bin, ok := parseExpr(t, "1 - 2").(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", bin.Op)
}

func TestLogicalOperators(t *testing.T) {
	expr, ok := parseExpr(t, "a AND b OR c").(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "OR", expr.Op)

	left, ok := expr.Left.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "AND", left.Op)

	not, ok := parseExpr(t, "NOT a").(*cst.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "NOT", not.Op)
}

func TestTernaryAndCoalesce(t *testing.T) {
	ternary, ok := parseExpr(t, "a > 1 ? 'big' : 'small'").(*cst.TernaryExpr)
	require.True(t, ok)
	_, ok = ternary.Condition.(*cst.BinaryExpr)
	assert.True(t, ok)

	coalesce, ok := parseExpr(t, "a ?? b ?? c").(*cst.CoalesceExpr)
	require.True(t, ok)
	_, ok = coalesce.Right.(*cst.CoalesceExpr)
	assert.True(t, ok, "?? associates to the right")
}

func TestComparisonFamily(t *testing.T) {
	like, ok := parseExpr(t, "a NOT ILIKE '%x%'").(*cst.LikeExpr)
	require.True(t, ok)
	assert.True(t, like.Not)
	assert.True(t, like.CaseInsensitive)

	re, ok := parseExpr(t, "a !~* 'p'").(*cst.RegexExpr)
	require.True(t, ok)
	assert.True(t, re.Not)
	assert.True(t, re.CaseInsensitive)

	in, ok := parseExpr(t, "a NOT IN (1, 2)").(*cst.InExpr)
	require.True(t, ok)
	assert.True(t, in.Not)
	_, ok = in.Right.(*cst.TupleExpr)
	assert.True(t, ok)

	in, ok = parseExpr(t, "a IN COHORT 5").(*cst.InExpr)
	require.True(t, ok)
	assert.True(t, in.Cohort)

	in, ok = parseExpr(t, "a GLOBAL IN (1)").(*cst.InExpr)
	require.True(t, ok)
	assert.True(t, in.Global)

	isNull, ok := parseExpr(t, "a IS NOT NULL").(*cst.IsNullExpr)
	require.True(t, ok)
	assert.True(t, isNull.Not)

	between, ok := parseExpr(t, "a BETWEEN 1 AND 10").(*cst.BetweenExpr)
	require.True(t, ok)
	assert.NotNil(t, between.Low)
	assert.NotNil(t, between.High)
}

func TestQualifiedIdentifiers(t *testing.T) {
	ident, ok := parseExpr(t, "a.b.c").(*cst.Identifier)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, ident.Parts)

	// Quoted segments keep their delimiters
	ident, ok = parseExpr(t, "events.`session id`").(*cst.Identifier)
	require.True(t, ok)
	assert.Equal(t, []string{"events", "`session id`"}, ident.Parts)
}

func TestTupleAccess(t *testing.T) {
	access, ok := parseExpr(t, "t.1").(*cst.TupleAccess)
	require.True(t, ok)
	assert.Equal(t, "1", access.Index.Lexeme)

	// Chained access on a call result
	access, ok = parseExpr(t, "f(x).2").(*cst.TupleAccess)
	require.True(t, ok)
	_, ok = access.Tuple.(*cst.FunctionCall)
	assert.True(t, ok)
}

func TestPropertyAccess(t *testing.T) {
	prop, ok := parseExpr(t, "f(x).name").(*cst.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, "name", prop.Name)
}

func TestFunctionCalls(t *testing.T) {
	fn, ok := parseExpr(t, "count()").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "count", fn.Name)
	assert.Empty(t, fn.Arguments)

	fn, ok = parseExpr(t, "count(DISTINCT user_id)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.True(t, fn.Distinct)
	assert.Len(t, fn.Arguments, 1)

	// Parametric form
	fn, ok = parseExpr(t, "quantile(0.5)(latency)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.True(t, fn.HasParams)
	assert.Len(t, fn.Parameters, 1)
	assert.Len(t, fn.Arguments, 1)

	// Parametric with empty parameters
	fn, ok = parseExpr(t, "f()(x)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.True(t, fn.HasParams)
	assert.Empty(t, fn.Parameters)
	assert.Len(t, fn.Arguments, 1)
}

func TestWindowApplication(t *testing.T) {
	fn, ok := parseExpr(t, "row_number() OVER (PARTITION BY a ORDER BY b DESC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)").(*cst.FunctionCall)
	require.True(t, ok)
	require.NotNil(t, fn.Over)
	assert.Len(t, fn.Over.PartitionBy, 1)
	require.Len(t, fn.Over.OrderBy, 1)
	assert.True(t, fn.Over.OrderBy[0].Descending)

	frame := fn.Over.Frame
	require.NotNil(t, frame)
	assert.True(t, frame.Rows)
	require.NotNil(t, frame.Start)
	assert.True(t, frame.Start.Preceding)
	assert.Nil(t, frame.Start.Offset, "UNBOUNDED carries no offset")
	require.NotNil(t, frame.End)
	assert.False(t, frame.End.Preceding)
	assert.False(t, frame.End.Following)

	fn, ok = parseExpr(t, "sum(x) OVER w").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "w", fn.OverName)
}

func TestLambda(t *testing.T) {
	l, ok := parseExpr(t, "x -> x + 1").(*cst.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, l.Parameters)

	l, ok = parseExpr(t, "(a, b) -> a * b").(*cst.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, l.Parameters)
}

func TestTuplesAndArrays(t *testing.T) {
	tuple, ok := parseExpr(t, "(1, 2, 3)").(*cst.TupleExpr)
	require.True(t, ok)
	assert.Len(t, tuple.Elements, 3)

	// A parenthesized single expression is not a tuple
	_, ok = parseExpr(t, "(1)").(*cst.NumberLiteral)
	assert.True(t, ok)

	tuple, ok = parseExpr(t, "()").(*cst.TupleExpr)
	require.True(t, ok)
	assert.Empty(t, tuple.Elements)

	arr, ok := parseExpr(t, "[1, 2]").(*cst.ArrayExpr)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 2)

	access, ok := parseExpr(t, "a[1]").(*cst.ArrayAccess)
	require.True(t, ok)
	_, ok = access.Index.(*cst.NumberLiteral)
	assert.True(t, ok)
}

func TestCaseExpressions(t *testing.T) {
	c, ok := parseExpr(t, "CASE x WHEN 1 THEN 'a' WHEN 2 THEN 'b' ELSE 'c' END").(*cst.CaseExpr)
	require.True(t, ok)
	assert.NotNil(t, c.Operand)
	assert.Len(t, c.Whens, 2)
	assert.NotNil(t, c.Else)

	c, ok = parseExpr(t, "CASE WHEN a THEN 1 END").(*cst.CaseExpr)
	require.True(t, ok)
	assert.Nil(t, c.Operand)
	assert.Len(t, c.Whens, 1)
	assert.Nil(t, c.Else)
}

func TestCastForms(t *testing.T) {
	c, ok := parseExpr(t, "CAST(x AS String)").(*cst.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "String", c.TypeName)

	c, ok = parseExpr(t, "CAST(x, 'UInt64')").(*cst.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "'UInt64'", c.TypeName)

	c, ok = parseExpr(t, "x::Nullable(String)").(*cst.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "Nullable", c.TypeName)
}

func TestExtractForms(t *testing.T) {
	e, ok := parseExpr(t, "EXTRACT(year FROM ts)").(*cst.ExtractExpr)
	require.True(t, ok)
	assert.Equal(t, "YEAR", e.Field)

	// Two-argument extract is the regex helper
	fn, ok := parseExpr(t, "extract(s, 'p')").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "extract", fn.Name)
	assert.Len(t, fn.Arguments, 2)
}

func TestInterval(t *testing.T) {
	iv, ok := parseExpr(t, "INTERVAL 1 day").(*cst.IntervalExpr)
	require.True(t, ok)
	assert.Equal(t, "DAY", iv.Unit)

	iv, ok = parseExpr(t, "INTERVAL 3 weeks").(*cst.IntervalExpr)
	require.True(t, ok)
	assert.Equal(t, "WEEKS", iv.Unit)
}

func TestSubstringAndTrim(t *testing.T) {
	fn, ok := parseExpr(t, "substring('abcdef' FROM 2 FOR 3)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "substring", fn.Name)
	assert.Len(t, fn.Arguments, 3)

	fn, ok = parseExpr(t, "trim(LEADING 'x' FROM s)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "trimLeft", fn.Name)
	assert.Len(t, fn.Arguments, 2)

	fn, ok = parseExpr(t, "trim(s)").(*cst.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "trim", fn.Name)
	assert.Len(t, fn.Arguments, 1)
}

func TestAsteriskModifiers(t *testing.T) {
	a, ok := parseExpr(t, "* EXCEPT (a, b)").(*cst.Asterisk)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, a.Except)

	a, ok = parseExpr(t, "* REPLACE (x + 1 AS x)").(*cst.Asterisk)
	require.True(t, ok)
	assert.Len(t, a.Replace, 1)

	a, ok = parseExpr(t, "t.*").(*cst.Asterisk)
	require.True(t, ok)
	assert.Equal(t, []string{"t"}, a.Table)
}

func TestSelectClauses(t *testing.T) {
	sel := parseSelect(t, `
		SELECT DISTINCT event, count() AS cnt
		FROM events
		PREWHERE team_ok
		WHERE ts > 0
		GROUP BY event
		HAVING cnt > 10
		ORDER BY cnt DESC, event
		LIMIT 100 OFFSET 5
	`)

	assert.True(t, sel.Distinct)
	assert.Len(t, sel.Columns, 2)
	require.NotNil(t, sel.From)
	assert.NotNil(t, sel.PreWhere)
	assert.NotNil(t, sel.Where)
	assert.Len(t, sel.GroupBy, 1)
	assert.NotNil(t, sel.Having)
	require.Len(t, sel.OrderBy, 2)
	assert.True(t, sel.OrderBy[0].Descending)
	assert.False(t, sel.OrderBy[1].Descending)
	assert.NotNil(t, sel.Limit)
	assert.NotNil(t, sel.Offset)
}

func TestImplicitColumnAlias(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 x, 2 AS y")
	require.Len(t, sel.Columns, 2)

	a, ok := sel.Columns[0].(*cst.AliasExpr)
	require.True(t, ok)
	assert.Equal(t, "x", a.Alias)

	a, ok = sel.Columns[1].(*cst.AliasExpr)
	require.True(t, ok)
	assert.Equal(t, "y", a.Alias)
}

func TestLimitVariants(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM t LIMIT 5, 10")
	assert.NotNil(t, sel.Limit)
	assert.NotNil(t, sel.Offset)

	sel = parseSelect(t, "SELECT 1 FROM t LIMIT 10 WITH TIES")
	assert.True(t, sel.LimitTies)

	sel = parseSelect(t, "SELECT 1 FROM t LIMIT 2 BY event, user_id")
	assert.Len(t, sel.LimitBy, 2)
}

func TestJoins(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM a ANY LEFT JOIN b ON a.id = b.id LEFT OUTER JOIN c USING (id, key)")
	require.NotNil(t, sel.From)
	require.Len(t, sel.From.Tables, 3)

	assert.Nil(t, sel.From.Tables[0].Join)

	second := sel.From.Tables[1].Join
	require.NotNil(t, second)
	assert.Equal(t, "LEFT", second.Type)
	assert.Equal(t, "ANY", second.Strictness)
	assert.NotNil(t, second.On)

	third := sel.From.Tables[2].Join
	require.NotNil(t, third)
	assert.Equal(t, "LEFT", third.Type)
	assert.Len(t, third.Using, 2)
}

func TestCommaJoin(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM a, b")
	require.Len(t, sel.From.Tables, 2)
	require.NotNil(t, sel.From.Tables[1].Join)
	assert.True(t, sel.From.Tables[1].Join.Comma)
}

func TestBareJoinDefaultsToInner(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM a JOIN b ON a.id = b.id")
	require.Len(t, sel.From.Tables, 2)
	assert.Equal(t, "INNER", sel.From.Tables[1].Join.Type)
}

func TestTableModifiers(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM events FINAL SAMPLE 1/10 OFFSET 1/2 AS e")
	require.Len(t, sel.From.Tables, 1)

	table := sel.From.Tables[0].Table
	assert.True(t, table.Final)
	assert.Equal(t, "e", table.Alias)

	require.NotNil(t, table.Sample)
	assert.Equal(t, "1", table.Sample.Ratio.Numerator.Lexeme)
	assert.Equal(t, "10", table.Sample.Ratio.Denominator.Lexeme)
	require.NotNil(t, table.Sample.Offset)
	assert.Equal(t, "2", table.Sample.Offset.Denominator.Lexeme)
}

func TestTableAliasBeforeModifiers(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM events AS e FINAL")
	require.Len(t, sel.From.Tables, 1)
	table := sel.From.Tables[0].Table
	assert.Equal(t, "e", table.Alias)
	assert.True(t, table.Final)

	sel = parseSelect(t, "SELECT 1 FROM events e SAMPLE 1/10")
	table = sel.From.Tables[0].Table
	assert.Equal(t, "e", table.Alias)
	require.NotNil(t, table.Sample)
}

func TestTableFunctionsAndSubqueries(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM numbers(10)")
	_, ok := sel.From.Tables[0].Table.Table.(*cst.FunctionCall)
	assert.True(t, ok)

	sel = parseSelect(t, "SELECT 1 FROM (SELECT 2) sub")
	_, ok = sel.From.Tables[0].Table.Table.(*cst.Subquery)
	assert.True(t, ok)
	assert.Equal(t, "sub", sel.From.Tables[0].Table.Alias)

	sel = parseSelect(t, "SELECT 1 FROM {table}")
	_, ok = sel.From.Tables[0].Table.Table.(*cst.Placeholder)
	assert.True(t, ok)
}

func TestArrayJoinClause(t *testing.T) {
	sel := parseSelect(t, "SELECT 1 FROM events LEFT ARRAY JOIN items AS item")
	require.NotNil(t, sel.ArrayJoin)
	assert.True(t, sel.ArrayJoin.Left)
	assert.Len(t, sel.ArrayJoin.Columns, 1)

	sel = parseSelect(t, "SELECT 1 FROM events INNER ARRAY JOIN items")
	require.NotNil(t, sel.ArrayJoin)
	assert.True(t, sel.ArrayJoin.Inner)
}

func TestWithClauseForms(t *testing.T) {
	sel := parseSelect(t, "WITH top AS (SELECT 1) SELECT 2 FROM top")
	require.Len(t, sel.With, 1)
	assert.Equal(t, "top", sel.With[0].Name)
	_, ok := sel.With[0].Query.(*cst.Subquery)
	assert.True(t, ok)

	sel = parseSelect(t, "WITH 1 + 1 AS two SELECT two")
	require.Len(t, sel.With, 1)
	assert.Equal(t, "two", sel.With[0].Name)
	_, ok = sel.With[0].Query.(*cst.BinaryExpr)
	assert.True(t, ok)

	// A bare identifier on the left is still a column CTE
	sel = parseSelect(t, "WITH a AS b SELECT b")
	require.Len(t, sel.With, 1)
	assert.Equal(t, "b", sel.With[0].Name)
	ident, ok := sel.With[0].Query.(*cst.Identifier)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, ident.Parts)
}

func TestWindowClause(t *testing.T) {
	sel := parseSelect(t, "SELECT sum(x) OVER w FROM t WINDOW w AS (PARTITION BY a)")
	require.Len(t, sel.Windows, 1)
	assert.Equal(t, "w", sel.Windows[0].Name)
	assert.Len(t, sel.Windows[0].Spec.PartitionBy, 1)
}

func TestUnionChains(t *testing.T) {
	union, err := parser.ParseSelect("SELECT 1 UNION ALL SELECT 2 UNION ALL (SELECT 3 UNION ALL SELECT 4)")
	require.NoError(t, err)
	require.Len(t, union.Selects, 3)

	_, ok := union.Selects[2].(*cst.SelectUnionQuery)
	assert.True(t, ok, "parenthesized members stay nested until translation")

	_, err = parser.ParseSelect("SELECT 1 UNION SELECT 2")
	assert.Error(t, err, "bare UNION is not accepted")
}

func TestTrailingSemicolons(t *testing.T) {
	_, err := parser.ParseSelect("SELECT 1;")
	assert.NoError(t, err)

	_, err = parser.ParseSelect("SELECT 1; SELECT 2")
	assert.Error(t, err)
}

func TestTrailingTokensRejected(t *testing.T) {
	_, err := parser.ParseExpr("1 2")
	assert.Error(t, err)

	_, err = parser.ParseExpr("")
	assert.Error(t, err)
}

func TestNestingDepthLimit(t *testing.T) {
	deep := strings.Repeat("(", 600) + "1" + strings.Repeat(")", 600)
	_, err := parser.ParseExpr(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting")

	ok := strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)
	_, err = parser.ParseExpr(ok)
	assert.NoError(t, err)
}
