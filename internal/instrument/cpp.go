package instrument

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"autograde/internal/domain"
)

var cppProgram = template.Must(template.New("program").Parse(`// This is a test file autogenerated by autograde.

#include <cstdlib>
#include <fstream>
#include <iostream>
#include <sstream>
#include <string>

{{.Header}}

namespace _chk {
  template <typename T>
  std::string render(const T & value) {
    std::stringstream ss;
    ss << std::boolalpha << value;
    return ss.str();
  }

  inline std::string escape(const std::string & in) {
    std::string out;
    for (char c : in) {
      if (c == '\\') out += "\\\\";
      else if (c == '\n') out += "\\n";
      else if (c == '\r') out += "\\r";
      else out += c;
    }
    return out;
  }

  inline void record(std::ostream & out, size_t id, bool ok,
                     const std::string & lhs, const std::string & rhs) {
    out << "CHECK " << id << (ok ? " PASS" : " FAIL") << "\n"
        << "LHS " << id << " " << escape(lhs) << "\n"
        << "RHS " << id << " " << escape(rhs) << std::endl;
  }
}

void _chk_main() {
  std::ofstream _chk_results({{.ResultLog}});
  bool _chk_passed = true;
  _chk_results << "TESTCASE {{.TestcaseID}}" << std::endl;

{{.Body}}

  _chk_results << "SCORE " << (_chk_passed ? {{.Points}} : 0) << std::endl;
}

// Runs before main().
struct _chk_runner {
  _chk_runner() {
    _chk_main();
{{- if not .CallsEntryPoint}}
    std::exit(0);
{{- end}}
  }
};

static _chk_runner _chk_runner_instance;
`))

var cppCheck = template.Must(template.New("check").Parse(`{ // {{.Label}}
    auto && _chk_lhs = ({{.Left}});
{{- if .Comparator}}
    auto && _chk_rhs = ({{.Right}});
    const bool _chk_ok = (_chk_lhs {{.Comparator}} _chk_rhs);
    _chk::record(_chk_results, {{.ID}}, _chk_ok, _chk::render(_chk_lhs), _chk::render(_chk_rhs));
{{- else}}
    const bool _chk_ok = static_cast<bool>(_chk_lhs);
    _chk::record(_chk_results, {{.ID}}, _chk_ok, _chk::render(_chk_lhs), "");
{{- end}}
    if (!_chk_ok) _chk_passed = false;
  }`))

// CppGenerator emits C++ that runs the checks from a static initializer, so
// they execute before the program's own main().
type CppGenerator struct{}

// NewCppGenerator creates a new CppGenerator
func NewCppGenerator() *CppGenerator {
	return &CppGenerator{}
}

// Generate implements Generator.
func (g *CppGenerator) Generate(unit Unit) (*Program, error) {
	body, checks, err := Rewrite(unit.Code, unit.TestcaseID, g.renderCheck)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = cppProgram.Execute(&buf, struct {
		Header          string
		ResultLog       string
		TestcaseID      int
		Body            string
		Points          string
		CallsEntryPoint bool
	}{
		Header:          unit.Header,
		ResultLog:       cppQuote(unit.ResultLog),
		TestcaseID:      unit.TestcaseID,
		Body:            body,
		Points:          strconv.FormatFloat(unit.Points, 'g', -1, 64),
		CallsEntryPoint: unit.CallsEntryPoint,
	})
	if err != nil {
		return nil, fmt.Errorf("render program for test %d: %w", unit.TestcaseID, err)
	}

	return &Program{Source: buf.String(), Checks: checks}, nil
}

func (g *CppGenerator) renderCheck(c *domain.Check) (string, error) {
	var buf bytes.Buffer
	err := cppCheck.Execute(&buf, struct {
		ID         int
		Label      string
		Left       string
		Comparator string
		Right      string
	}{
		ID:         c.ID,
		Label:      c.Label,
		Left:       c.Assertion.Left(),
		Comparator: c.Assertion.Comparator(),
		Right:      c.Assertion.Right(),
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", c.Label, err)
	}
	return buf.String(), nil
}

// cppQuote renders s as a C++ string literal.
func cppQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
