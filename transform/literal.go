package transform

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// reserved names may not be used as aliases or identifiers. Checked after
// unquoting, case-insensitively.
var reserved = map[string]struct{}{
	"true":    {},
	"false":   {},
	"null":    {},
	"team_id": {},
}

// IsReserved reports whether name is a reserved keyword.
func IsReserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

// ParseNumber interprets a raw numeric lexeme. The result is a float64 when
// the lexeme contains a decimal point or exponent or spells an infinity or
// NaN; otherwise it is an unbounded *big.Int. The lexeme may carry a leading
// sign.
func ParseNumber(lexeme string) (any, error) {
	lower := strings.ToLower(lexeme)
	unsigned := strings.TrimPrefix(strings.TrimPrefix(lower, "-"), "+")

	// Sign on NaN is a no-op, and ParseFloat rejects a signed spelling.
	if unsigned == "nan" {
		return math.NaN(), nil
	}

	float := strings.ContainsAny(lower, ".e") || unsigned == "inf"

	if float {
		f, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return nil, &LiteralError{Lexeme: lexeme}
		}
		return f, nil
	}

	i, ok := new(big.Int).SetString(lexeme, 10)
	if !ok {
		return nil, &LiteralError{Lexeme: lexeme}
	}
	return i, nil
}

// UnquoteString interprets a raw string lexeme, delimiters included, into
// its value. A backslash escapes the next character; a doubled delimiter is
// a literal delimiter.
func UnquoteString(raw string) (string, error) {
	if len(raw) < 2 {
		return "", &LiteralError{Lexeme: raw}
	}
	quote := raw[0]
	if raw[len(raw)-1] != quote {
		return "", &LiteralError{Lexeme: raw}
	}
	return unquote(raw[1:len(raw)-1], rune(quote))
}

// UnquoteIdentifier strips identifier quoting (backticks or double quotes)
// when present and resolves its escapes. Unquoted identifiers pass through.
func UnquoteIdentifier(raw string) (string, error) {
	if len(raw) >= 2 && (raw[0] == '`' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		return unquote(raw[1:len(raw)-1], rune(raw[0]))
	}
	return raw, nil
}

func unquote(body string, quote rune) (string, error) {
	var sb strings.Builder
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\\':
			if i+1 >= len(runes) {
				return "", &LiteralError{Lexeme: string(quote) + body + string(quote)}
			}
			i++
			switch runes[i] {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 'a':
				sb.WriteRune('\a')
			case 'v':
				sb.WriteRune('\v')
			default:
				sb.WriteRune(runes[i])
			}
		case ch == quote:
			// Doubled delimiter inside the body
			if i+1 < len(runes) && runes[i+1] == quote {
				sb.WriteRune(quote)
				i++
			} else {
				return "", &LiteralError{Lexeme: string(quote) + body + string(quote)}
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return sb.String(), nil
}
