package domain

// CheckEvent is one resolved execution of a check, as reported by the
// instrumented program.
type CheckEvent struct {
	ID     int
	Passed bool
	Left   string
	Right  string
}

// RunReport is everything the instrumented program reported about itself.
// It replaces reading the result log inside the testcase.
type RunReport struct {
	TestcaseID int          // From the introduction line; -1 if missing
	Events     []CheckEvent // In the order the program executed them
	Score      float64      // From the trailing SCORE line
	HasScore   bool         // False if the program stopped before scoring
}
