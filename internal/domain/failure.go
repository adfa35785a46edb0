package domain

// FailureReason says why a testcase did not pass. Reasons are ordered by
// reporting priority: when several hold, the lowest non-None value wins.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonDefinition
	ReasonNotRun
	ReasonCompileError
	ReasonTimeout
	ReasonOutputMismatch
	ReasonCheckFailed
)

var reasonNames = map[FailureReason]string{
	ReasonNone:           "none",
	ReasonDefinition:     "definition_error",
	ReasonNotRun:         "not_run",
	ReasonCompileError:   "compile_error",
	ReasonTimeout:        "timeout",
	ReasonOutputMismatch: "output_mismatch",
	ReasonCheckFailed:    "check_failed",
}

func (r FailureReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// Message is the human-readable outcome line for this reason.
func (r FailureReason) Message() string {
	switch r {
	case ReasonNone:
		return "PASSED!"
	case ReasonDefinition:
		return "FAILED due to an invalid testcase definition."
	case ReasonNotRun:
		return "NOT RUN."
	case ReasonCompileError:
		return "FAILED during compilation."
	case ReasonTimeout:
		return "FAILED due to timeout."
	case ReasonOutputMismatch:
		return "FAILED due to mis-matched output."
	case ReasonCheckFailed:
		return "FAILED due to unsuccessful check."
	}
	return "FAILED."
}
