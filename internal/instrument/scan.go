package instrument

import (
	"strings"

	"autograde/internal/assertion"
	"autograde/internal/domain"
)

// Marker is the assertion invocation recognised in code blocks.
const Marker = "CHECK("

// RenderFunc produces the instrumentation text that replaces one invocation.
type RenderFunc func(c *domain.Check) (string, error)

// Rewrite makes one left-to-right pass over code, replacing every CHECK(...)
// with the text produced by render. It returns the rewritten code and the
// checks in source order. Any definition error aborts the whole rewrite.
func Rewrite(code string, testID int, render RenderFunc) (string, []*domain.Check, error) {
	var out strings.Builder
	var checks []*domain.Check
	cursor := 0

	for {
		start := findMarker(code, cursor)
		if start < 0 {
			break
		}

		id := len(checks)
		label := domain.CheckLabel(testID, id)
		open := start + len(Marker) - 1

		end, err := MatchParen(code, open)
		if err != nil {
			return "", nil, assertion.NewDefinitionError(assertion.ErrUnbalancedParentheses, label, snippet(code[start:]))
		}

		// Untouched user code between the previous invocation and this one.
		out.WriteString(code[cursor:start])

		a, err := assertion.Parse(code[open+1:end], label)
		if err != nil {
			return "", nil, err
		}

		c := domain.NewCheck(id, label, strings.Count(code[:start], "\n"), a)
		text, err := render(c)
		if err != nil {
			return "", nil, err
		}
		checks = append(checks, c)
		out.WriteString(text)

		cursor = end + 1
		if cursor < len(code) && code[cursor] == ';' {
			cursor++
		}
	}

	out.WriteString(code[cursor:])
	return out.String(), checks, nil
}

// findMarker returns the index of the next Marker at or after from that is
// not the tail of a longer identifier (e.g. "MY_CHECK("), or -1. Markers
// inside string and character literals or comments are not invocations.
func findMarker(code string, from int) int {
	for i := from; i < len(code); i++ {
		rest := code[i:]
		switch {
		case code[i] == '"':
			i = skipLiteral(code, i, '"')
		case code[i] == '\'' && (i == 0 || !isIdentByte(code[i-1])):
			i = skipLiteral(code, i, '\'')
		case strings.HasPrefix(rest, "//"):
			nl := strings.IndexByte(rest, '\n')
			if nl < 0 {
				return -1
			}
			i += nl
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return -1
			}
			i += end + 3
		case strings.HasPrefix(rest, Marker) && (i == 0 || !isIdentByte(code[i-1])):
			return i
		}
	}
	return -1
}

// MatchParen returns the index of the ')' matching the '(' at open. String
// and character literals are skipped so their parentheses do not count.
func MatchParen(s string, open int) (int, error) {
	if open < 0 || open >= len(s) || s[open] != '(' {
		return -1, assertion.ErrUnbalancedParentheses
	}

	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"':
			i = skipLiteral(s, i, '"')
		case '\'':
			// 1'000'000 is a digit separator, not a character literal.
			if i > 0 && isIdentByte(s[i-1]) {
				continue
			}
			i = skipLiteral(s, i, '\'')
		}
	}
	return -1, assertion.ErrUnbalancedParentheses
}

// skipLiteral returns the index of the closing quote of the literal starting
// at start, or the last index if it is never closed.
func skipLiteral(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(s) - 1
}

func isIdentByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func snippet(s string) string {
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = line
	}
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return s
}
