package transform_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PostHog/posthog-sub001/transform"
)

func TestParseNumberIntegers(t *testing.T) {
	tests := []struct {
		lexeme string
		want   int64
	}{
		{"0", 0},
		{"42", 42},
		{"-1", -1},
		{"+7", 7},
	}

	for _, tt := range tests {
		t.Run(tt.lexeme, func(t *testing.T) {
			v, err := transform.ParseNumber(tt.lexeme)
			require.NoError(t, err)
			i, ok := v.(*big.Int)
			require.True(t, ok, "expected *big.Int, got %T", v)
			assert.Equal(t, tt.want, i.Int64())
		})
	}

	// Integers wider than 64 bits survive untouched
	v, err := transform.ParseNumber("123456789012345678901234567890")
	require.NoError(t, err)
	i, ok := v.(*big.Int)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", i.String())
}

func TestParseNumberFloats(t *testing.T) {
	tests := []struct {
		lexeme string
		want   float64
	}{
		{"3.14", 3.14},
		{".5", 0.5},
		{"1e10", 1e10},
		{"-2.5", -2.5},
		{"2E+4", 2e4},
	}

	for _, tt := range tests {
		t.Run(tt.lexeme, func(t *testing.T) {
			v, err := transform.ParseNumber(tt.lexeme)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	v, err := transform.ParseNumber("inf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.(float64), 1))

	v, err = transform.ParseNumber("-inf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.(float64), -1))

	v, err = transform.ParseNumber("nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.(float64)))

	// Signed NaN spellings fold into the lexeme upstream; the sign is a no-op
	v, err = transform.ParseNumber("-nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.(float64)))

	v, err = transform.ParseNumber("+nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.(float64)))
}

func TestParseNumberInvalid(t *testing.T) {
	for _, lexeme := range []string{"", "abc", "1.2.3", "1e"} {
		_, err := transform.ParseNumber(lexeme)
		assert.Error(t, err, lexeme)

		var litErr *transform.LiteralError
		assert.ErrorAs(t, err, &litErr)
	}
}

func TestUnquoteString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`'hello'`, "hello"},
		{`'it''s'`, "it's"},
		{`'a\'b'`, "a'b"},
		{`'line\nbreak'`, "line\nbreak"},
		{`'tab\tstop'`, "tab\tstop"},
		{`'back\\slash'`, `back\slash`},
		{`'unknown \q escape'`, "unknown q escape"},
		{`''`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := transform.UnquoteString(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestUnquoteStringInvalid(t *testing.T) {
	for _, raw := range []string{"", "'", `'open`, `'trailing\`} {
		_, err := transform.UnquoteString(raw)
		assert.Error(t, err, raw)
	}
}

func TestUnquoteIdentifier(t *testing.T) {
	s, err := transform.UnquoteIdentifier("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = transform.UnquoteIdentifier("`a b`")
	require.NoError(t, err)
	assert.Equal(t, "a b", s)

	s, err = transform.UnquoteIdentifier(`"c d"`)
	require.NoError(t, err)
	assert.Equal(t, "c d", s)

	s, err = transform.UnquoteIdentifier("`tick``inside`")
	require.NoError(t, err)
	assert.Equal(t, "tick`inside", s)
}

func TestIsReserved(t *testing.T) {
	for _, name := range []string{"true", "False", "NULL", "team_id"} {
		assert.True(t, transform.IsReserved(name), name)
	}
	assert.False(t, transform.IsReserved("event"))
}
