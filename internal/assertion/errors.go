package assertion

import (
	"errors"
	"fmt"
)

// Definition errors. They are detected while a testcase is being set up and
// abort instrumentation for that testcase.
var (
	ErrMalformedAssertion    = errors.New("malformed assertion")
	ErrMultipleComparators   = errors.New("multiple comparators in assertion")
	ErrUnbalancedParentheses = errors.New("unbalanced parentheses")
	ErrMissingCodeSource     = errors.New("missing code source")
	ErrConflictingCodeSource = errors.New("conflicting code sources")
)

// DefinitionError wraps one of the definition sentinels with the location it
// was found at (e.g. "Test #3, Check #1").
type DefinitionError struct {
	Kind     error
	Location string
	Detail   string
}

// NewDefinitionError creates a DefinitionError
func NewDefinitionError(kind error, location, detail string) *DefinitionError {
	return &DefinitionError{Kind: kind, Location: location, Detail: detail}
}

func (e *DefinitionError) Error() string {
	msg := e.Kind.Error()
	if e.Location != "" {
		msg = fmt.Sprintf("%s: %s", e.Location, msg)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	return msg
}

func (e *DefinitionError) Unwrap() error {
	return e.Kind
}

// IsDefinitionError reports whether err carries a DefinitionError.
func IsDefinitionError(err error) bool {
	var defErr *DefinitionError
	return errors.As(err, &defErr)
}
