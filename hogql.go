// Package hogql turns query text in the HogQL dialect into the normalized
// AST consumed by query planning. Parsing is synchronous and pure: the two
// entry points share no state and are safe for concurrent use.
package hogql

import (
	"github.com/PostHog/posthog-sub001/ast"
	"github.com/PostHog/posthog-sub001/parser"
	"github.com/PostHog/posthog-sub001/transform"
)

// ParseExpr parses a single expression. The input must contain exactly one
// expression; trailing tokens are an error.
func ParseExpr(query string) (ast.Expr, error) {
	node, err := parser.ParseExpr(query)
	if err != nil {
		return nil, err
	}
	return transform.Expr(node)
}

// ParseSelect parses a SELECT statement, possibly a UNION ALL chain. The
// result is a *ast.SelectQuery, or a *ast.SelectSetQuery when more than one
// SELECT was combined.
func ParseSelect(query string) (ast.Statement, error) {
	node, err := parser.ParseSelect(query)
	if err != nil {
		return nil, err
	}
	return transform.Select(node)
}
