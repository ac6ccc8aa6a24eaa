// Package cst defines the concrete syntax tree produced by the parser.
//
// The tree mirrors the grammar: there is one node kind per surface
// production, and grammar alternation shows up as optional fields rather
// than as a discriminant — which alternative fired is re-derived downstream
// from which fields are set. Lexemes (numbers, quoted strings, quoted
// identifiers) are carried raw; the transducer in package transform owns
// their interpretation.
package cst

import "github.com/PostHog/posthog-sub001/token"

// Node is the interface implemented by all CST nodes.
type Node interface {
	Pos() token.Position
}

// Statement is the interface implemented by all statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is the interface implemented by all expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// -----------------------------------------------------------------------------
// Statements

// SelectUnionQuery represents one or more SELECT statements combined with
// UNION ALL. A single uncombined SELECT is still wrapped in this node; the
// transducer collapses singletons.
type SelectUnionQuery struct {
	Position token.Position
	Selects  []Statement // *SelectQuery or nested *SelectUnionQuery
}

func (s *SelectUnionQuery) Pos() token.Position { return s.Position }
func (s *SelectUnionQuery) statementNode()      {}

// SelectQuery represents a single SELECT statement.
type SelectQuery struct {
	Position  token.Position
	With      []*WithElement
	Distinct  bool
	Columns   []Expression
	From      *TablesInSelectQuery
	ArrayJoin *ArrayJoinClause
	PreWhere  Expression
	Where     Expression
	GroupBy   []Expression
	Having    Expression
	Windows   []*WindowDefinition
	OrderBy   []*OrderByElement
	Limit     Expression
	LimitBy   []Expression
	LimitTies bool
	Offset    Expression
}

func (s *SelectQuery) Pos() token.Position { return s.Position }
func (s *SelectQuery) statementNode()      {}

// WithElement represents one CTE in a WITH clause. The query is either a
// *Subquery (subquery CTE) or any other expression (column CTE).
type WithElement struct {
	Position token.Position
	Name     string
	Query    Expression
}

func (w *WithElement) Pos() token.Position { return w.Position }
func (w *WithElement) expressionNode()     {}

// ArrayJoinClause represents an ARRAY JOIN clause.
type ArrayJoinClause struct {
	Position token.Position
	Left     bool
	Inner    bool
	Columns  []Expression
}

func (a *ArrayJoinClause) Pos() token.Position { return a.Position }

// WindowDefinition represents one named window in the WINDOW clause.
type WindowDefinition struct {
	Position token.Position
	Name     string
	Spec     *WindowSpec
}

func (w *WindowDefinition) Pos() token.Position { return w.Position }

// TablesInSelectQuery represents the FROM clause: the first table followed
// by zero or more joined tables, already in left-to-right source order.
type TablesInSelectQuery struct {
	Position token.Position
	Tables   []*TablesInSelectQueryElement
}

func (t *TablesInSelectQuery) Pos() token.Position { return t.Position }

// TablesInSelectQueryElement is a single table element; Join is nil for the
// first element and set for every subsequent one.
type TablesInSelectQueryElement struct {
	Position token.Position
	Table    *TableExpression
	Join     *TableJoin
}

func (t *TablesInSelectQueryElement) Pos() token.Position { return t.Position }

// TableExpression represents a table reference with its modifiers.
// Table is an *Identifier, *Subquery, or *FunctionCall (table function).
type TableExpression struct {
	Position token.Position
	Table    Expression
	Alias    string // raw, possibly quoted
	Final    bool
	Sample   *SampleClause
}

func (t *TableExpression) Pos() token.Position { return t.Position }

// SampleClause represents SAMPLE k[/n] [OFFSET k[/n]].
type SampleClause struct {
	Position token.Position
	Ratio    *RatioExpression
	Offset   *RatioExpression
}

func (s *SampleClause) Pos() token.Position { return s.Position }

// RatioExpression represents a rational value: numerator and optional
// denominator.
type RatioExpression struct {
	Position    token.Position
	Numerator   *NumberLiteral
	Denominator *NumberLiteral
}

func (r *RatioExpression) Pos() token.Position { return r.Position }

// TableJoin carries the join operator and its constraint. Exactly one of
// On/Using is set unless the join is a cross or comma join.
type TableJoin struct {
	Position   token.Position
	Type       string // "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "" for comma
	Strictness string // "ANY", "ALL", "ASOF", "SEMI", "ANTI", or ""
	Comma      bool
	On         Expression
	Using      []Expression
}

func (t *TableJoin) Pos() token.Position { return t.Position }

// OrderByElement represents one ORDER BY member.
type OrderByElement struct {
	Position   token.Position
	Expression Expression
	Descending bool
}

func (o *OrderByElement) Pos() token.Position { return o.Position }

// -----------------------------------------------------------------------------
// Expressions

// Identifier represents a possibly-qualified identifier. Parts keep the raw
// spelling, including identifier quoting.
type Identifier struct {
	Position token.Position
	Parts    []string
}

func (i *Identifier) Pos() token.Position { return i.Position }
func (i *Identifier) expressionNode()     {}

// NumberLiteral carries the raw numeric lexeme. A sign directly adjacent to
// the numeral in prefix position is folded into the lexeme by the parser.
type NumberLiteral struct {
	Position token.Position
	Lexeme   string
}

func (n *NumberLiteral) Pos() token.Position { return n.Position }
func (n *NumberLiteral) expressionNode()     {}

// StringLiteral carries the raw quoted text, delimiters included.
type StringLiteral struct {
	Position token.Position
	Raw      string
}

func (s *StringLiteral) Pos() token.Position { return s.Position }
func (s *StringLiteral) expressionNode()     {}

// NullLiteral represents the NULL keyword.
type NullLiteral struct {
	Position token.Position
}

func (n *NullLiteral) Pos() token.Position { return n.Position }
func (n *NullLiteral) expressionNode()     {}

// Placeholder represents a {name} parameter.
type Placeholder struct {
	Position token.Position
	Name     string
}

func (p *Placeholder) Pos() token.Position { return p.Position }
func (p *Placeholder) expressionNode()     {}

// Asterisk represents * or table.*, with optional EXCEPT/REPLACE modifiers.
// The modifiers are parsed but not translated.
type Asterisk struct {
	Position token.Position
	Table    []string // qualifier parts for table.*, empty for bare *
	Except   []string
	Replace  []Expression // *AliasExpr per replaced column
}

func (a *Asterisk) Pos() token.Position { return a.Position }
func (a *Asterisk) expressionNode()     {}

// BinaryExpr represents a binary operator application. The operator is the
// surface spelling ("+", "=", "AND", ...); one precedence tier per grammar
// rule collapses to this single node kind.
type BinaryExpr struct {
	Position token.Position
	Left     Expression
	Op       string
	Right    Expression
}

func (b *BinaryExpr) Pos() token.Position { return b.Position }
func (b *BinaryExpr) expressionNode()     {}

// UnaryExpr represents prefix - or NOT.
type UnaryExpr struct {
	Position token.Position
	Op       string // "-" or "NOT"
	Operand  Expression
}

func (u *UnaryExpr) Pos() token.Position { return u.Position }
func (u *UnaryExpr) expressionNode()     {}

// TernaryExpr represents cond ? then : else.
type TernaryExpr struct {
	Position  token.Position
	Condition Expression
	Then      Expression
	Else      Expression
}

func (t *TernaryExpr) Pos() token.Position { return t.Position }
func (t *TernaryExpr) expressionNode()     {}

// CoalesceExpr represents left ?? right.
type CoalesceExpr struct {
	Position token.Position
	Left     Expression
	Right    Expression
}

func (c *CoalesceExpr) Pos() token.Position { return c.Position }
func (c *CoalesceExpr) expressionNode()     {}

// IsNullExpr represents expr IS [NOT] NULL.
type IsNullExpr struct {
	Position token.Position
	Expr     Expression
	Not      bool
}

func (i *IsNullExpr) Pos() token.Position { return i.Position }
func (i *IsNullExpr) expressionNode()     {}

// LikeExpr represents [NOT] LIKE / ILIKE.
type LikeExpr struct {
	Position        token.Position
	Expr            Expression
	Not             bool
	CaseInsensitive bool // ILIKE
	Pattern         Expression
}

func (l *LikeExpr) Pos() token.Position { return l.Position }
func (l *LikeExpr) expressionNode()     {}

// RegexExpr represents the =~, !~, =~* and !~* operators.
type RegexExpr struct {
	Position        token.Position
	Expr            Expression
	Not             bool
	CaseInsensitive bool
	Pattern         Expression
}

func (r *RegexExpr) Pos() token.Position { return r.Position }
func (r *RegexExpr) expressionNode()     {}

// InExpr represents [NOT] IN [COHORT] with a right-hand operand (tuple,
// array, subquery, or any expression).
type InExpr struct {
	Position token.Position
	Expr     Expression
	Not      bool
	Cohort   bool
	Global   bool
	Right    Expression
}

func (i *InExpr) Pos() token.Position { return i.Position }
func (i *InExpr) expressionNode()     {}

// BetweenExpr represents [NOT] BETWEEN low AND high. The grammar accepts
// it; the transducer does not translate it yet.
type BetweenExpr struct {
	Position token.Position
	Expr     Expression
	Not      bool
	Low      Expression
	High     Expression
}

func (b *BetweenExpr) Pos() token.Position { return b.Position }
func (b *BetweenExpr) expressionNode()     {}

// CaseExpr represents a CASE expression; Operand is nil for the searched
// form.
type CaseExpr struct {
	Position token.Position
	Operand  Expression
	Whens    []*WhenClause
	Else     Expression
}

func (c *CaseExpr) Pos() token.Position { return c.Position }
func (c *CaseExpr) expressionNode()     {}

// WhenClause is one WHEN ... THEN ... pair.
type WhenClause struct {
	Position  token.Position
	Condition Expression
	Result    Expression
}

func (w *WhenClause) Pos() token.Position { return w.Position }

// FunctionCall represents name(args), the parametric form
// name(params)(args), and window application via OVER.
type FunctionCall struct {
	Position   token.Position
	Name       string
	Parameters []Expression // nil unless the parametric form was used
	HasParams  bool
	Arguments  []Expression
	Distinct   bool
	Over       *WindowSpec // inline OVER (...)
	OverName   string      // OVER name
}

func (f *FunctionCall) Pos() token.Position { return f.Position }
func (f *FunctionCall) expressionNode()     {}

// WindowSpec represents a window specification.
type WindowSpec struct {
	Position    token.Position
	PartitionBy []Expression
	OrderBy     []*OrderByElement
	Frame       *WindowFrame
}

func (w *WindowSpec) Pos() token.Position { return w.Position }

// WindowFrame represents ROWS/RANGE with one bound or a BETWEEN pair.
type WindowFrame struct {
	Position token.Position
	Rows     bool
	Range    bool
	Start    *FrameBound
	End      *FrameBound // nil for the single-bound form
}

func (w *WindowFrame) Pos() token.Position { return w.Position }

// FrameBound represents one frame bound. Absent Preceding and Following
// flags mean CURRENT ROW. A nil Offset with Preceding/Following set means
// UNBOUNDED.
type FrameBound struct {
	Position  token.Position
	Preceding bool
	Following bool
	Offset    *NumberLiteral
}

func (f *FrameBound) Pos() token.Position { return f.Position }

// TupleExpr represents (a, b, ...).
type TupleExpr struct {
	Position token.Position
	Elements []Expression
}

func (t *TupleExpr) Pos() token.Position { return t.Position }
func (t *TupleExpr) expressionNode()     {}

// ArrayExpr represents [a, b, ...].
type ArrayExpr struct {
	Position token.Position
	Elements []Expression
}

func (a *ArrayExpr) Pos() token.Position { return a.Position }
func (a *ArrayExpr) expressionNode()     {}

// ArrayAccess represents expr[index].
type ArrayAccess struct {
	Position token.Position
	Array    Expression
	Index    Expression
}

func (a *ArrayAccess) Pos() token.Position { return a.Position }
func (a *ArrayAccess) expressionNode()     {}

// TupleAccess represents expr.N.
type TupleAccess struct {
	Position token.Position
	Tuple    Expression
	Index    *NumberLiteral
}

func (t *TupleAccess) Pos() token.Position { return t.Position }
func (t *TupleAccess) expressionNode()     {}

// PropertyAccess represents expr.name where expr is not a plain
// identifier chain (those extend Identifier.Parts instead).
type PropertyAccess struct {
	Position token.Position
	Expr     Expression
	Name     string // raw, possibly quoted
}

func (p *PropertyAccess) Pos() token.Position { return p.Position }
func (p *PropertyAccess) expressionNode()     {}

// Lambda represents x -> body and (x, y) -> body.
type Lambda struct {
	Position   token.Position
	Parameters []string
	Body       Expression
}

func (l *Lambda) Pos() token.Position { return l.Position }
func (l *Lambda) expressionNode()     {}

// AliasExpr represents expr AS name (or an implicit trailing alias).
type AliasExpr struct {
	Position token.Position
	Expr     Expression
	Alias    string // raw, possibly quoted
}

func (a *AliasExpr) Pos() token.Position { return a.Position }
func (a *AliasExpr) expressionNode()     {}

// Subquery represents a parenthesized SELECT used in expression position.
type Subquery struct {
	Position token.Position
	Query    *SelectUnionQuery
}

func (s *Subquery) Pos() token.Position { return s.Position }
func (s *Subquery) expressionNode()     {}

// IntervalExpr represents INTERVAL value UNIT.
type IntervalExpr struct {
	Position token.Position
	Value    Expression
	Unit     string // normalized to upper case
}

func (i *IntervalExpr) Pos() token.Position { return i.Position }
func (i *IntervalExpr) expressionNode()     {}

// CastExpr represents CAST(x AS T), CAST(x, 'T') and x::T. Parsed but not
// translated.
type CastExpr struct {
	Position token.Position
	Expr     Expression
	TypeName string
}

func (c *CastExpr) Pos() token.Position { return c.Position }
func (c *CastExpr) expressionNode()     {}

// ExtractExpr represents EXTRACT(field FROM expr). Parsed but not
// translated.
type ExtractExpr struct {
	Position token.Position
	Field    string
	From     Expression
}

func (e *ExtractExpr) Pos() token.Position { return e.Position }
func (e *ExtractExpr) expressionNode()     {}

// ExistsExpr represents EXISTS (subquery). Parsed but not translated.
type ExistsExpr struct {
	Position token.Position
	Query    *SelectUnionQuery
}

func (e *ExistsExpr) Pos() token.Position { return e.Position }
func (e *ExistsExpr) expressionNode()     {}
