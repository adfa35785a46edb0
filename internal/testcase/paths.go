package testcase

import (
	"fmt"
	"path/filepath"
)

// Paths are the files generated for one testcase. Every field is derived
// from the testcase id so concurrent testcases never share a file.
type Paths struct {
	Source     string // Generated program
	CompileLog string // Compiler diagnostics
	Executable string
	Stdout     string // Captured standard output
	Stderr     string // Captured standard error
	ResultLog  string // Written by the generated program
}

// DerivePaths returns the default artifact paths for testcase id under dir.
func DerivePaths(dir string, id int) Paths {
	base := filepath.Join(dir, fmt.Sprintf("Test%d", id))
	return Paths{
		Source:     base + ".cpp",
		CompileLog: base + "-compile.txt",
		Executable: base + ".exe",
		Stdout:     base + "-output.txt",
		Stderr:     base + "-errors.txt",
		ResultLog:  base + "-results.txt",
	}
}

// WithDefaults fills empty fields of p from defaults.
func (p Paths) WithDefaults(defaults Paths) Paths {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Paths{
		Source:     pick(p.Source, defaults.Source),
		CompileLog: pick(p.CompileLog, defaults.CompileLog),
		Executable: pick(p.Executable, defaults.Executable),
		Stdout:     pick(p.Stdout, defaults.Stdout),
		Stderr:     pick(p.Stderr, defaults.Stderr),
		ResultLog:  pick(p.ResultLog, defaults.ResultLog),
	}
}

// Vars exposes the paths as substitution variables for compile command lines.
func (p Paths) Vars() map[string]string {
	return map[string]string{
		"cpp":     p.Source,
		"compile": p.CompileLog,
		"exe":     p.Executable,
		"out":     p.Stdout,
		"error":   p.Stderr,
		"results": p.ResultLog,
	}
}
