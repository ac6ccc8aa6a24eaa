package transform

import (
	"fmt"

	"github.com/PostHog/posthog-sub001/token"
)

// UnsupportedError reports a construct the grammar accepts but translation
// does not carry.
type UnsupportedError struct {
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.Construct)
}

// ValidationError reports input that parses but violates a semantic rule.
type ValidationError struct {
	Message string
	Pos     token.Position
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LiteralError reports a lexeme that could not be interpreted as a literal
// value.
type LiteralError struct {
	Lexeme string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("invalid literal: %s", e.Lexeme)
}
