package testcase

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Builder.Build for unusable settings.
var ErrInvalidConfig = errors.New("invalid testcase configuration")

// Default settings for a new testcase.
const (
	DefaultTimeout = 5 * time.Second
	DefaultDir     = ".autograde"
)

// Builder is the only way to configure a Testcase. It exposes the settings a
// suite loader legitimately sets; run state is changed only by the lifecycle
// methods.
type Builder struct {
	tc    *Testcase
	dir   string
	paths Paths
}

// NewBuilder starts a testcase with the given id and default settings.
func NewBuilder(id int) *Builder {
	return &Builder{
		tc: &Testcase{
			id:                  id,
			name:                fmt.Sprintf("Test %d", id),
			callsEntryPoint:     true,
			caseSensitive:       true,
			whitespaceSensitive: true,
			timeout:             DefaultTimeout,
			state:               StateDefined,
			compileExitCode:     NotRun,
			runExitCode:         NotRun,
			outputMatched:       true,
		},
		dir: DefaultDir,
	}
}

func (b *Builder) Name(name string) *Builder { b.tc.name = name; return b }
func (b *Builder) Suite(suite string) *Builder { b.tc.suite = suite; return b }
func (b *Builder) Points(points float64) *Builder { b.tc.points = points; return b }
func (b *Builder) InputFile(path string) *Builder { b.tc.inputFile = path; return b }
func (b *Builder) ExpectedOutputFile(path string) *Builder {
	b.tc.expectedFile = path
	return b
}
func (b *Builder) CodeFile(path string) *Builder { b.tc.codeFile = path; return b }

// Code sets inline code. Calling it with an empty string still counts as
// configuring inline code.
func (b *Builder) Code(code string) *Builder {
	b.tc.code = code
	b.tc.hasCode = true
	return b
}

func (b *Builder) Args(args ...string) *Builder {
	b.tc.args = append([]string(nil), args...)
	return b
}
func (b *Builder) CallsEntryPoint(v bool) *Builder { b.tc.callsEntryPoint = v; return b }
func (b *Builder) Hidden(v bool) *Builder { b.tc.hidden = v; return b }
func (b *Builder) CaseSensitive(v bool) *Builder { b.tc.caseSensitive = v; return b }
func (b *Builder) WhitespaceSensitive(v bool) *Builder { b.tc.whitespaceSensitive = v; return b }
func (b *Builder) Timeout(d time.Duration) *Builder { b.tc.timeout = d; return b }

// Dir sets the directory artifact paths are derived from.
func (b *Builder) Dir(dir string) *Builder { b.dir = dir; return b }

// ArtifactPaths overrides individual artifact paths; empty fields keep the
// derived default.
func (b *Builder) ArtifactPaths(p Paths) *Builder { b.paths = p; return b }

// Build validates the configuration and returns the testcase. The builder
// must not be used afterwards.
func (b *Builder) Build() (*Testcase, error) {
	tc := b.tc
	if tc == nil {
		return nil, fmt.Errorf("%w: builder already used", ErrInvalidConfig)
	}
	if tc.id < 0 {
		return nil, fmt.Errorf("%w: test %d: id must not be negative", ErrInvalidConfig, tc.id)
	}
	if tc.points < 0 {
		return nil, fmt.Errorf("%w: test %d: points must not be negative (got %g)", ErrInvalidConfig, tc.id, tc.points)
	}
	if tc.timeout <= 0 {
		return nil, fmt.Errorf("%w: test %d: timeout must be positive (got %s)", ErrInvalidConfig, tc.id, tc.timeout)
	}

	tc.paths = b.paths.WithDefaults(DerivePaths(b.dir, tc.id))
	b.tc = nil
	return tc, nil
}
