package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariable and ErrUnterminatedVariable are returned by Expand.
var (
	ErrUnknownVariable      = errors.New("unknown variable")
	ErrUnterminatedVariable = errors.New("unterminated variable")
)

// Vars maps variable names to values. Names are case-insensitive.
type Vars map[string]string

// Set stores value under the lowercased name.
func (v Vars) Set(name, value string) {
	v[strings.ToLower(name)] = value
}

// Clone returns a copy of v.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// With returns a copy of v extended with extra.
func (v Vars) With(extra map[string]string) Vars {
	out := v.Clone()
	for k, val := range extra {
		out.Set(k, val)
	}
	return out
}

// Expand replaces every ${name} in s with its value. Substituted values are
// not expanded again.
func (v Vars) Expand(s string) (string, error) {
	var out strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			out.WriteString(s)
			return out.String(), nil
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w in %q", ErrUnterminatedVariable, s)
		}
		end += start

		name := strings.ToLower(s[start+2 : end])
		value, ok := v[name]
		if !ok {
			return "", fmt.Errorf("%w ${%s}", ErrUnknownVariable, name)
		}
		out.WriteString(s[:start])
		out.WriteString(value)
		s = s[end+1:]
	}
}
