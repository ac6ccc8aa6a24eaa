// Package token defines constants representing the lexical tokens of the
// query dialect.
package token

// Token represents a lexical token.
type Token int

const (
	// Special tokens
	ILLEGAL Token = iota
	EOF
	WHITESPACE
	COMMENT

	// Literals
	IDENT       // identifiers, possibly quoted with ` or "
	NUMBER      // integer or float lexemes, sign included when adjacent
	STRING      // string literals, delimiters and escapes preserved
	PLACEHOLDER // {name}

	// Operators
	PLUS       // +
	MINUS      // -
	ASTERISK   // *
	SLASH      // /
	PERCENT    // %
	EQ         // = or ==
	NEQ        // != or <>
	LT         // <
	GT         // >
	LTE        // <=
	GTE        // >=
	CONCAT     // ||
	REGEX      // =~
	NOT_REGEX  // !~
	IREGEX     // =~*
	NOT_IREGEX // !~*
	NULLISH    // ??
	ARROW      // ->
	COLONCOLON // ::

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :
	QUESTION  // ?

	// Keywords
	keyword_beg
	ALL
	AND
	ANTI
	ANY
	ARRAY
	AS
	ASC
	ASOF
	BETWEEN
	BOTH
	BY
	CASE
	CAST
	COHORT
	CROSS
	CURRENT
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXISTS
	EXTRACT
	FINAL
	FOLLOWING
	FOR
	FROM
	FULL
	GLOBAL
	GROUP
	HAVING
	ILIKE
	IN
	INF
	INNER
	INTERVAL
	IS
	JOIN
	LEADING
	LEFT
	LIKE
	LIMIT
	NAN
	NOT
	NULL
	OFFSET
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	PRECEDING
	PREWHERE
	RANGE
	REPLACE
	RIGHT
	ROW
	ROWS
	SAMPLE
	SELECT
	SEMI
	SUBSTRING
	THEN
	TIES
	TRAILING
	TRIM
	UNBOUNDED
	UNION
	USING
	WHEN
	WHERE
	WINDOW
	WITH
	keyword_end
)

var tokens = [...]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	WHITESPACE: "WHITESPACE",
	COMMENT:    "COMMENT",

	IDENT:       "IDENT",
	NUMBER:      "NUMBER",
	STRING:      "STRING",
	PLACEHOLDER: "PLACEHOLDER",

	PLUS:       "+",
	MINUS:      "-",
	ASTERISK:   "*",
	SLASH:      "/",
	PERCENT:    "%",
	EQ:         "=",
	NEQ:        "!=",
	LT:         "<",
	GT:         ">",
	LTE:        "<=",
	GTE:        ">=",
	CONCAT:     "||",
	REGEX:      "=~",
	NOT_REGEX:  "!~",
	IREGEX:     "=~*",
	NOT_IREGEX: "!~*",
	NULLISH:    "??",
	ARROW:      "->",
	COLONCOLON: "::",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",
	QUESTION:  "?",

	ALL:       "ALL",
	AND:       "AND",
	ANTI:      "ANTI",
	ANY:       "ANY",
	ARRAY:     "ARRAY",
	AS:        "AS",
	ASC:       "ASC",
	ASOF:      "ASOF",
	BETWEEN:   "BETWEEN",
	BOTH:      "BOTH",
	BY:        "BY",
	CASE:      "CASE",
	CAST:      "CAST",
	COHORT:    "COHORT",
	CROSS:     "CROSS",
	CURRENT:   "CURRENT",
	DESC:      "DESC",
	DISTINCT:  "DISTINCT",
	ELSE:      "ELSE",
	END:       "END",
	EXCEPT:    "EXCEPT",
	EXISTS:    "EXISTS",
	EXTRACT:   "EXTRACT",
	FINAL:     "FINAL",
	FOLLOWING: "FOLLOWING",
	FOR:       "FOR",
	FROM:      "FROM",
	FULL:      "FULL",
	GLOBAL:    "GLOBAL",
	GROUP:     "GROUP",
	HAVING:    "HAVING",
	ILIKE:     "ILIKE",
	IN:        "IN",
	INF:       "INF",
	INNER:     "INNER",
	INTERVAL:  "INTERVAL",
	IS:        "IS",
	JOIN:      "JOIN",
	LEADING:   "LEADING",
	LEFT:      "LEFT",
	LIKE:      "LIKE",
	LIMIT:     "LIMIT",
	NAN:       "NAN",
	NOT:       "NOT",
	NULL:      "NULL",
	OFFSET:    "OFFSET",
	ON:        "ON",
	OR:        "OR",
	ORDER:     "ORDER",
	OUTER:     "OUTER",
	OVER:      "OVER",
	PARTITION: "PARTITION",
	PRECEDING: "PRECEDING",
	PREWHERE:  "PREWHERE",
	RANGE:     "RANGE",
	REPLACE:   "REPLACE",
	RIGHT:     "RIGHT",
	ROW:       "ROW",
	ROWS:      "ROWS",
	SAMPLE:    "SAMPLE",
	SELECT:    "SELECT",
	SEMI:      "SEMI",
	SUBSTRING: "SUBSTRING",
	THEN:      "THEN",
	TIES:      "TIES",
	TRAILING:  "TRAILING",
	TRIM:      "TRIM",
	UNBOUNDED: "UNBOUNDED",
	UNION:     "UNION",
	USING:     "USING",
	WHEN:      "WHEN",
	WHERE:     "WHERE",
	WINDOW:    "WINDOW",
	WITH:      "WITH",
}

func (tok Token) String() string {
	if tok >= 0 && int(tok) < len(tokens) {
		return tokens[tok]
	}
	return ""
}

// Keywords maps keyword strings to their token types.
var Keywords map[string]Token

func init() {
	Keywords = make(map[string]Token)
	for i := keyword_beg + 1; i < keyword_end; i++ {
		Keywords[tokens[i]] = i
	}
}

// Lookup returns the token type for an identifier string.
// If the string is a keyword, it returns the keyword token.
// Otherwise, it returns IDENT. TRUE and FALSE are deliberately not
// keywords: boolean detection happens during transduction so that
// quoted identifiers spelled "true" stay identifiers.
func Lookup(ident string) Token {
	if tok, ok := Keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token is a keyword.
func (tok Token) IsKeyword() bool {
	return tok > keyword_beg && tok < keyword_end
}

// Position represents a source position.
type Position struct {
	Offset int // byte offset
	Line   int // line number (1-based)
	Column int // column number (1-based)
}
