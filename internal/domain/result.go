package domain

// CheckResult is the persisted form of a Check
type CheckResult struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Line       int    `json:"line"`
	Test       string `json:"test"`
	Left       string `json:"left"`
	Comparator string `json:"comparator,omitempty"`
	Right      string `json:"right,omitempty"`
	LeftValue  string `json:"left_value"`
	RightValue string `json:"right_value,omitempty"`
	Passed     bool   `json:"passed"`
	Resolved   bool   `json:"resolved"`
}

// TestcaseResult is the persisted outcome of one testcase
type TestcaseResult struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Suite        string        `json:"suite,omitempty"`
	Hidden       bool          `json:"hidden"`
	Points       float64       `json:"points"`
	Earned       float64       `json:"earned"`
	Passed       bool          `json:"passed"`
	Reason       string        `json:"reason"`
	Message      string        `json:"message"`
	CompileCode  int           `json:"compile_exit_code"`
	RunCode      int           `json:"run_exit_code"`
	TimedOut     bool          `json:"timed_out"`
	OutputMatch  bool          `json:"output_match"`
	Error        string        `json:"error,omitempty"`
	Checks       []CheckResult `json:"checks"`
	Code         []string      `json:"code,omitempty"`
	CompileNotes string        `json:"compile_output,omitempty"`
	Resolved     bool          `json:"resolved,omitempty"` // Marked as looked-at in the failure viewer
}

// SuiteResultsMeta contains metadata about a grading run
type SuiteResultsMeta struct {
	RunID           string  `json:"run_id"`
	TotalTestcases  int     `json:"total_testcases"`
	PassedTestcases int     `json:"passed_testcases"`
	FailedTestcases int     `json:"failed_testcases"`
	FailedChecks    int     `json:"failed_checks"`
	PointsEarned    float64 `json:"points_earned"`
	PointsTotal     float64 `json:"points_total"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// SuiteResults is the complete output structure for a grading run
type SuiteResults struct {
	Meta    SuiteResultsMeta `json:"meta"`
	Details []TestcaseResult `json:"details"`
}

// Failed returns the testcases that did not pass, in stored order.
func (r *SuiteResults) Failed() []TestcaseResult {
	var failed []TestcaseResult
	for _, d := range r.Details {
		if !d.Passed {
			failed = append(failed, d)
		}
	}
	return failed
}
