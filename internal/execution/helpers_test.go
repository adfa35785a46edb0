package execution

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"autograde/internal/domain"
	"autograde/internal/instrument"
	"autograde/internal/testcase"
)

// shellGenerator instruments code blocks as /bin/sh scripts so the pipeline
// can be exercised without a C++ toolchain. CHECK(a == b) compares a and b as
// strings.
type shellGenerator struct{}

func (shellGenerator) Generate(u instrument.Unit) (*instrument.Program, error) {
	log := u.ResultLog
	body, checks, err := instrument.Rewrite(u.Code, u.TestcaseID, func(c *domain.Check) (string, error) {
		a := c.Assertion
		op := "="
		if a.Comparator() == "!=" {
			op = "!="
		}
		return fmt.Sprintf("if [ \"%s\" %s \"%s\" ]; then r=PASS; else r=FAIL; fi\n"+
			"echo \"CHECK %d $r\" >> %s\n"+
			"echo \"LHS %d %s\" >> %s\n"+
			"echo \"RHS %d %s\" >> %s\n",
			a.Left(), op, a.Right(), c.ID, log, c.ID, a.Left(), log, c.ID, a.Right(), log), nil
	})
	if err != nil {
		return nil, err
	}
	src := fmt.Sprintf("#!/bin/sh\necho \"TESTCASE %d\" > %s\n%s\n", u.TestcaseID, log, body)
	return &instrument.Program{Source: src, Checks: checks}, nil
}

const copyCompile = "cp ${cpp} ${exe} && chmod +x ${exe}"

func shellToolchain() testcase.Toolchain {
	return testcase.Toolchain{
		Generator: shellGenerator{},
		Compiler:  NewCommandBuilder([]string{copyCompile}, nil, nil),
		Executor:  NewProcessExecutor(nil, nil),
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
