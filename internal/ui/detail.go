package ui

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Detail is how much a report reveals. Each level includes everything below it.
type Detail int

const (
	DetailNone    Detail = iota + 1 // Nothing
	DetailPercent                   // Overall percentage
	DetailScore                     // Points earned of total
	DetailSummary                   // Pass/fail line for every testcase, hidden included
	DetailStudent                   // Results and failure details for visible testcases
	DetailTeacher                   // Failure details for hidden testcases too
	DetailFull                      // Source listings for passed testcases too
	DetailDebug                     // Testcase configuration dumps
)

var detailNames = map[string]Detail{
	"none":    DetailNone,
	"percent": DetailPercent,
	"score":   DetailScore,
	"summary": DetailSummary,
	"student": DetailStudent,
	"teacher": DetailTeacher,
	"full":    DetailFull,
	"debug":   DetailDebug,
}

// ParseDetail parses a detail level name, case-insensitively. An empty name
// is DetailStudent.
func ParseDetail(name string) (Detail, error) {
	if name == "" {
		return DetailStudent, nil
	}
	if d, ok := detailNames[strings.ToLower(name)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown detail level %q", name)
}

func (d Detail) String() string {
	for name, v := range detailNames {
		if v == d {
			return name
		}
	}
	return fmt.Sprintf("detail(%d)", int(d))
}

func (d Detail) HasPercent() bool       { return d >= DetailPercent }
func (d Detail) HasScore() bool         { return d >= DetailScore }
func (d Detail) HasSummary() bool       { return d >= DetailSummary }
func (d Detail) HasResults() bool       { return d >= DetailStudent }
func (d Detail) HasHiddenDetails() bool { return d >= DetailTeacher }
func (d Detail) HasPassedDetails() bool { return d >= DetailFull }
func (d Detail) HasDebug() bool         { return d >= DetailDebug }

// Heading is the title printed at the top of a report, or "" below summary.
func (d Detail) Heading() string {
	switch d {
	case DetailSummary:
		return "Autograde Summary"
	case DetailStudent:
		return "Autograde Results"
	case DetailTeacher:
		return "Autograde Results (Instructor Eyes Only)"
	case DetailFull:
		return "Autograde Results (All details)"
	case DetailDebug:
		return "Autograde Results (DEBUG mode)"
	}
	return ""
}

// Format is the encoding of a report.
type Format int

const (
	FormatText Format = iota
	FormatHTML
)

func (f Format) String() string {
	if f == FormatHTML {
		return "html"
	}
	return "txt"
}

// ParseFormat returns the format named by typ, or inferred from filename's
// extension when typ is empty. Unknown types fall back to text with
// known=false so the caller can warn.
func ParseFormat(typ, filename string) (f Format, known bool) {
	if typ == "" {
		if filename == "" {
			return FormatText, true
		}
		typ = strings.TrimPrefix(filepath.Ext(filename), ".")
	}
	switch strings.ToLower(typ) {
	case "html", "htm":
		return FormatHTML, true
	case "txt", "text":
		return FormatText, true
	}
	return FormatText, false
}
