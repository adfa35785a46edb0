package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"autograde/internal/testcase"
)

// OutputSpec describes one report destination of a suite.
type OutputSpec struct {
	Filename string `yaml:"filename"` // Empty for standard output
	Type     string `yaml:"type"`     // html or txt; inferred from Filename when empty
	Detail   string `yaml:"detail"`
}

// Suite is a loaded suite file: its testcases plus the settings they share.
type Suite struct {
	Name      string
	Path      string
	Dir       string   // Build directory for artifacts
	Vars      Vars     // Suite variables, including dir
	Compile   []string // Compile command lines, before per-testcase expansion
	Header    string   // Shared code placed before every testcase
	Outputs   []OutputSpec
	Testcases []*testcase.Testcase
}

// TestcaseVars returns the variables available to one testcase of the suite.
func (s *Suite) TestcaseVars(tc *testcase.Testcase) Vars {
	v := s.Vars.With(tc.Paths().Vars())
	v.Set("#test", strconv.Itoa(tc.ID()))
	return v
}

// PointsTotal sums the points of every testcase.
func (s *Suite) PointsTotal() float64 {
	var total float64
	for _, tc := range s.Testcases {
		total += tc.Points()
	}
	return total
}

type suiteFile struct {
	Name       string            `yaml:"name"`
	Dir        string            `yaml:"dir"`
	Vars       map[string]string `yaml:"vars"`
	Compile    []string          `yaml:"compile"`
	Header     string            `yaml:"header"`
	HeaderFile string            `yaml:"header_file"`
	Outputs    []OutputSpec      `yaml:"outputs"`
	Testcases  []testcaseEntry   `yaml:"testcases"`
}

type testcaseEntry struct {
	Name       string  `yaml:"name"`
	Points     float64 `yaml:"points"`
	Code       *string `yaml:"code"`
	CodeFile   string  `yaml:"code_file"`
	Input      string  `yaml:"input"`
	Expected   string  `yaml:"expected"`
	Args       string  `yaml:"args"`
	Hidden     bool    `yaml:"hidden"`
	MatchCase  *bool   `yaml:"match_case"`
	MatchSpace *bool   `yaml:"match_space"`
	RunMain    *bool   `yaml:"run_main"`
	Timeout    float64 `yaml:"timeout"` // Seconds

	// Artifact path overrides
	CPP     string `yaml:"cpp"`
	Exe     string `yaml:"exe"`
	Compile string `yaml:"compile"`
	Out     string `yaml:"out"`
	Error   string `yaml:"error"`
	Results string `yaml:"results"`
}

// SuiteLoader reads YAML suite files into testcases.
type SuiteLoader struct {
	defaultDir string
	readFile   func(string) ([]byte, error)
}

// NewSuiteLoader creates a SuiteLoader. Suites without a dir setting write
// their artifacts to defaultDir.
func NewSuiteLoader(defaultDir string) *SuiteLoader {
	if defaultDir == "" {
		defaultDir = testcase.DefaultDir
	}
	return &SuiteLoader{defaultDir: defaultDir, readFile: os.ReadFile}
}

// LoadAll loads suite files in order, numbering testcases consecutively
// across all of them so artifact paths never collide.
func (l *SuiteLoader) LoadAll(paths []string) ([]*Suite, error) {
	var suites []*Suite
	nextID := 0
	for _, path := range paths {
		s, err := l.Load(path, nextID)
		if err != nil {
			return nil, err
		}
		nextID += len(s.Testcases)
		suites = append(suites, s)
	}
	return suites, nil
}

// Load reads one suite file. Its testcases are numbered from firstID.
func (l *SuiteLoader) Load(path string, firstID int) (*Suite, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading suite %s: %w", path, err)
	}
	return l.Parse(bytes.NewReader(data), path, firstID)
}

// Parse decodes a suite from r. Relative files named by the suite are taken
// from the directory of path.
func (l *SuiteLoader) Parse(r io.Reader, path string, firstID int) (*Suite, error) {
	var sf suiteFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing suite %s: %w", path, err)
	}

	base := filepath.Dir(path)
	s := &Suite{
		Name:    sf.Name,
		Path:    path,
		Dir:     l.defaultDir,
		Compile: sf.Compile,
		Outputs: sf.Outputs,
		Vars:    Vars{},
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if sf.Dir != "" {
		s.Dir = resolve(base, sf.Dir)
	}

	for k, v := range sf.Vars {
		s.Vars.Set(k, v)
	}
	s.Vars.Set("dir", s.Dir)

	header := sf.Header
	if sf.HeaderFile != "" {
		data, err := l.readFile(resolve(base, sf.HeaderFile))
		if err != nil {
			return nil, fmt.Errorf("error reading header for suite %s: %w", path, err)
		}
		header = string(data) + header
	}
	var err error
	if s.Header, err = s.Vars.Expand(header); err != nil {
		return nil, fmt.Errorf("suite %s header: %w", path, err)
	}

	for i, entry := range sf.Testcases {
		tc, err := l.buildTestcase(s, base, firstID+i, entry)
		if err != nil {
			return nil, fmt.Errorf("suite %s testcase %d: %w", path, i, err)
		}
		s.Testcases = append(s.Testcases, tc)
	}

	// Fail at load time rather than per testcase at compile time.
	probe := s.Vars.With(testcase.DerivePaths(s.Dir, firstID).Vars())
	probe.Set("#test", strconv.Itoa(firstID))
	for _, line := range s.Compile {
		if _, err := probe.Expand(line); err != nil {
			return nil, fmt.Errorf("suite %s compile command: %w", path, err)
		}
	}

	return s, nil
}

func (l *SuiteLoader) buildTestcase(s *Suite, base string, id int, e testcaseEntry) (*testcase.Testcase, error) {
	defaults := testcase.DerivePaths(s.Dir, id)
	vars := s.Vars.With(defaults.Vars())
	vars.Set("#test", strconv.Itoa(id))

	overrides := [...]*string{&e.CPP, &e.Exe, &e.Compile, &e.Out, &e.Error, &e.Results}
	for _, p := range overrides {
		expanded, err := vars.Expand(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}
	paths := testcase.Paths{
		Source:     e.CPP,
		CompileLog: e.Compile,
		Executable: e.Exe,
		Stdout:     e.Out,
		Stderr:     e.Error,
		ResultLog:  e.Results,
	}.WithDefaults(defaults)
	vars = vars.With(paths.Vars())

	b := testcase.NewBuilder(id).
		Suite(s.Name).
		Points(e.Points).
		Hidden(e.Hidden).
		Dir(s.Dir).
		Args(strings.Fields(e.Args)...).
		ArtifactPaths(paths)

	if e.Name != "" {
		b.Name(e.Name)
	}
	if e.Code != nil {
		code, err := vars.Expand(*e.Code)
		if err != nil {
			return nil, err
		}
		b.Code(code)
	}
	if e.CodeFile != "" {
		b.CodeFile(resolve(base, e.CodeFile))
	}
	if e.Input != "" {
		b.InputFile(resolve(base, e.Input))
	}
	if e.Expected != "" {
		b.ExpectedOutputFile(resolve(base, e.Expected))
	}
	if e.MatchCase != nil {
		b.CaseSensitive(*e.MatchCase)
	}
	if e.MatchSpace != nil {
		b.WhitespaceSensitive(*e.MatchSpace)
	}
	if e.RunMain != nil {
		b.CallsEntryPoint(*e.RunMain)
	}
	if e.Timeout != 0 {
		b.Timeout(time.Duration(e.Timeout * float64(time.Second)))
	}

	return b.Build()
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
