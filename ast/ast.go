// Package ast defines the normalized abstract syntax tree handed to query
// planning. The node set is deliberately small and closed: surface variety
// (precedence tiers, operator spellings, sugar like ternaries and CASE) is
// collapsed by package transform before nodes reach this shape.
package ast

import "math/big"

// Node is the interface implemented by all AST nodes.
type Node interface {
	node()
}

// Expr is the interface implemented by all expression nodes.
type Expr interface {
	Node
	expr()
}

// Statement is the interface implemented by statement nodes.
type Statement interface {
	Node
	stmt()
}

// Constant is a literal value. Value is nil, bool, *big.Int, float64, or
// string. Integers are unbounded; classification happens during literal
// parsing, not here.
type Constant struct {
	Value any `json:"value"`
}

func (*Constant) node() {}
func (*Constant) expr() {}

// Field is a column or table reference. Chain holds the unquoted name
// segments in source order.
type Field struct {
	Chain []string `json:"chain"`
}

func (*Field) node() {}
func (*Field) expr() {}

// Placeholder is a {name} query parameter left for later substitution.
type Placeholder struct {
	Field string `json:"field"`
}

func (*Placeholder) node() {}
func (*Placeholder) expr() {}

// Call is a function application. Params carries the first argument list of
// the parametric form name(params)(args); it is nil when that form was not
// used.
type Call struct {
	Name     string `json:"name"`
	Args     []Expr `json:"args"`
	Params   []Expr `json:"params,omitempty"`
	Distinct bool   `json:"distinct,omitempty"`
}

func (*Call) node() {}
func (*Call) expr() {}

// ArithmeticOperationOp enumerates arithmetic operators.
type ArithmeticOperationOp string

const (
	ArithmeticAdd  ArithmeticOperationOp = "+"
	ArithmeticSub  ArithmeticOperationOp = "-"
	ArithmeticMult ArithmeticOperationOp = "*"
	ArithmeticDiv  ArithmeticOperationOp = "/"
	ArithmeticMod  ArithmeticOperationOp = "%"
)

// ArithmeticOperation is a binary arithmetic expression.
type ArithmeticOperation struct {
	Left  Expr                  `json:"left"`
	Right Expr                  `json:"right"`
	Op    ArithmeticOperationOp `json:"op"`
}

func (*ArithmeticOperation) node() {}
func (*ArithmeticOperation) expr() {}

// CompareOperationOp enumerates comparison operators, including the
// pattern-match and membership families.
type CompareOperationOp string

const (
	CompareEq          CompareOperationOp = "=="
	CompareNotEq       CompareOperationOp = "!="
	CompareGt          CompareOperationOp = ">"
	CompareGtEq        CompareOperationOp = ">="
	CompareLt          CompareOperationOp = "<"
	CompareLtEq        CompareOperationOp = "<="
	CompareLike        CompareOperationOp = "like"
	CompareILike       CompareOperationOp = "ilike"
	CompareNotLike     CompareOperationOp = "not like"
	CompareNotILike    CompareOperationOp = "not ilike"
	CompareIn          CompareOperationOp = "in"
	CompareNotIn       CompareOperationOp = "not in"
	CompareInCohort    CompareOperationOp = "in cohort"
	CompareNotInCohort CompareOperationOp = "not in cohort"
	CompareRegex       CompareOperationOp = "=~"
	CompareNotRegex    CompareOperationOp = "!~"
	CompareIRegex      CompareOperationOp = "=~*"
	CompareNotIRegex   CompareOperationOp = "!~*"
)

// CompareOperation is a binary comparison expression.
type CompareOperation struct {
	Left  Expr               `json:"left"`
	Right Expr               `json:"right"`
	Op    CompareOperationOp `json:"op"`
}

func (*CompareOperation) node() {}
func (*CompareOperation) expr() {}

// And is an N-ary conjunction. Exprs is flat: nested conjunctions are
// spliced in at construction and never appear as direct children.
type And struct {
	Exprs []Expr `json:"exprs"`
}

func (*And) node() {}
func (*And) expr() {}

// Or is an N-ary disjunction, flat like And.
type Or struct {
	Exprs []Expr `json:"exprs"`
}

func (*Or) node() {}
func (*Or) expr() {}

// Not is a boolean negation.
type Not struct {
	Expr Expr `json:"expr"`
}

func (*Not) node() {}
func (*Not) expr() {}

// Alias names an expression. Alias is the unquoted name.
type Alias struct {
	Alias string `json:"alias"`
	Expr  Expr   `json:"expr"`
}

func (*Alias) node() {}
func (*Alias) expr() {}

// Tuple is a tuple constructor.
type Tuple struct {
	Exprs []Expr `json:"exprs"`
}

func (*Tuple) node() {}
func (*Tuple) expr() {}

// Array is an array constructor.
type Array struct {
	Exprs []Expr `json:"exprs"`
}

func (*Array) node() {}
func (*Array) expr() {}

// ArrayAccess is subscripting: array[index], and also property access
// expr.name, which normalizes to a string-constant index.
type ArrayAccess struct {
	Array    Expr `json:"array"`
	Property Expr `json:"property"`
}

func (*ArrayAccess) node() {}
func (*ArrayAccess) expr() {}

// TupleAccess is positional access into a tuple, 1-based.
type TupleAccess struct {
	Tuple Expr `json:"tuple"`
	Index int  `json:"index"`
}

func (*TupleAccess) node() {}
func (*TupleAccess) expr() {}

// Lambda is an anonymous function passed to higher-order calls.
type Lambda struct {
	Args []string `json:"args"`
	Expr Expr     `json:"expr"`
}

func (*Lambda) node() {}
func (*Lambda) expr() {}

// WindowFrameExpr is one bound of a window frame. FrameValue nil means
// UNBOUNDED for the PRECEDING/FOLLOWING frame types.
type WindowFrameExpr struct {
	FrameType  string `json:"frame_type"` // "PRECEDING", "FOLLOWING", "CURRENT ROW"
	FrameValue *int   `json:"frame_value,omitempty"`
}

func (*WindowFrameExpr) node() {}

// WindowExpr is a window specification, either inline in OVER (...) or named
// in a WINDOW clause.
type WindowExpr struct {
	PartitionBy []Expr           `json:"partition_by,omitempty"`
	OrderBy     []*OrderExpr     `json:"order_by,omitempty"`
	FrameMethod string           `json:"frame_method,omitempty"` // "ROWS" or "RANGE"
	FrameStart  *WindowFrameExpr `json:"frame_start,omitempty"`
	FrameEnd    *WindowFrameExpr `json:"frame_end,omitempty"`
}

func (*WindowExpr) node() {}

// WindowFunction is a call with an OVER clause. Exactly one of OverExpr and
// OverIdentifier is set.
type WindowFunction struct {
	Name           string      `json:"name"`
	Args           []Expr      `json:"args"`
	Params         []Expr      `json:"params,omitempty"`
	OverExpr       *WindowExpr `json:"over_expr,omitempty"`
	OverIdentifier string      `json:"over_identifier,omitempty"`
}

func (*WindowFunction) node() {}
func (*WindowFunction) expr() {}

// OrderExpr is one ORDER BY member. Order is "ASC" or "DESC".
type OrderExpr struct {
	Expr  Expr   `json:"expr"`
	Order string `json:"order"`
}

func (*OrderExpr) node() {}
func (*OrderExpr) expr() {}

// JoinConstraint carries the ON expression or USING column list of a join.
type JoinConstraint struct {
	Expr           Expr   `json:"expr"`
	ConstraintType string `json:"constraint_type"` // "ON" or "USING"
}

func (*JoinConstraint) node() {}

// JoinExpr is one table in a FROM chain. NextJoin links to the following
// table in source order; the first JoinExpr of a query has an empty
// JoinType.
type JoinExpr struct {
	JoinType   string          `json:"join_type,omitempty"`
	Table      Expr            `json:"table"`
	Alias      string          `json:"alias,omitempty"`
	TableFinal bool            `json:"table_final,omitempty"`
	Constraint *JoinConstraint `json:"constraint,omitempty"`
	Sample     *SampleExpr     `json:"sample,omitempty"`
	NextJoin   *JoinExpr       `json:"next_join,omitempty"`
}

func (*JoinExpr) node() {}
func (*JoinExpr) expr() {}

// SampleExpr is a SAMPLE clause with optional OFFSET.
type SampleExpr struct {
	SampleValue *RatioExpr `json:"sample_value"`
	OffsetValue *RatioExpr `json:"offset_value,omitempty"`
}

func (*SampleExpr) node() {}
func (*SampleExpr) expr() {}

// RatioExpr is a rational sampling value. Right is nil when no denominator
// was written.
type RatioExpr struct {
	Left  *Constant `json:"left"`
	Right *Constant `json:"right,omitempty"`
}

func (*RatioExpr) node() {}
func (*RatioExpr) expr() {}

// CTE is one common table expression. Type is "subquery" or "column".
type CTE struct {
	Name string `json:"name"`
	Expr Expr   `json:"expr"`
	Type string `json:"type"`
}

func (*CTE) node() {}

// SelectQuery is a single normalized SELECT.
type SelectQuery struct {
	CTEs          map[string]*CTE        `json:"ctes,omitempty"`
	Select        []Expr                 `json:"select"`
	Distinct      bool                   `json:"distinct,omitempty"`
	SelectFrom    *JoinExpr              `json:"select_from,omitempty"`
	ArrayJoinOp   string                 `json:"array_join_op,omitempty"` // "ARRAY JOIN", "LEFT ARRAY JOIN", "INNER ARRAY JOIN"
	ArrayJoinList []Expr                 `json:"array_join_list,omitempty"`
	Window        map[string]*WindowExpr `json:"window,omitempty"`
	PreWhere      Expr                   `json:"prewhere,omitempty"`
	Where         Expr                   `json:"where,omitempty"`
	GroupBy       []Expr                 `json:"group_by,omitempty"`
	Having        Expr                   `json:"having,omitempty"`
	OrderBy       []*OrderExpr           `json:"order_by,omitempty"`
	Limit         Expr                   `json:"limit,omitempty"`
	LimitBy       []Expr                 `json:"limit_by,omitempty"`
	LimitWithTies bool                   `json:"limit_with_ties,omitempty"`
	Offset        Expr                   `json:"offset,omitempty"`
}

func (*SelectQuery) node() {}
func (*SelectQuery) expr() {}
func (*SelectQuery) stmt() {}

// SelectSetQuery is an ordered UNION ALL combination of two or more selects.
// Construction in package transform flattens nested chains and collapses
// singletons, so a one-element SelectSetQuery never reaches consumers.
type SelectSetQuery struct {
	Selects []*SelectQuery `json:"selects"`
}

func (*SelectSetQuery) node() {}
func (*SelectSetQuery) expr() {}
func (*SelectSetQuery) stmt() {}

// NewInteger builds an integer Constant from an int64.
func NewInteger(v int64) *Constant {
	return &Constant{Value: big.NewInt(v)}
}
