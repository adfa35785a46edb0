package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"autograde/internal/domain"
)

var (
	testcaseLine = regexp.MustCompile(`^TESTCASE\s+(\d+)\s*$`)
	checkLine    = regexp.MustCompile(`^CHECK\s+(\d+)\s+(PASS|FAIL)\s*$`)
	valueLine    = regexp.MustCompile(`^(LHS|RHS) (\d+)(?: (.*))?$`)
	scoreLine    = regexp.MustCompile(`^SCORE\s+(\S+)\s*$`)
)

// maxLineSize bounds one rendered operand value.
const maxLineSize = 16 * 1024 * 1024

// ResultLogParser parses the line-oriented result log written by generated
// programs:
//
//	TESTCASE <id>
//	CHECK <check-id> PASS|FAIL
//	LHS <check-id> <escaped value>
//	RHS <check-id> <escaped value>
//	SCORE <points>
type ResultLogParser struct{}

var _ Parser = (*ResultLogParser)(nil)

// NewResultLogParser creates a new ResultLogParser
func NewResultLogParser() *ResultLogParser {
	return &ResultLogParser{}
}

// ParseFile parses the result log at path. A missing file is returned as an
// error wrapping os.ErrNotExist.
func (p *ResultLogParser) ParseFile(path string) (domain.RunReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RunReport{TestcaseID: -1}, fmt.Errorf("open result log: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads a result log. Lines it does not recognise are skipped so that
// a program writing to the log by mistake does not hide real results.
func (p *ResultLogParser) Parse(r io.Reader) (domain.RunReport, error) {
	report := domain.RunReport{TestcaseID: -1}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	// Index of the latest event per check id, for attaching LHS/RHS lines.
	latest := make(map[int]int)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if m := testcaseLine.FindStringSubmatch(line); m != nil {
			report.TestcaseID, _ = strconv.Atoi(m[1])
			continue
		}

		if m := checkLine.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return report, fmt.Errorf("line %d: bad check id %q: %w", lineNum, m[1], err)
			}
			report.Events = append(report.Events, domain.CheckEvent{ID: id, Passed: m[2] == "PASS"})
			latest[id] = len(report.Events) - 1
			continue
		}

		if m := valueLine.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[2])
			if err != nil {
				return report, fmt.Errorf("line %d: bad check id %q: %w", lineNum, m[2], err)
			}
			idx, ok := latest[id]
			if !ok {
				return report, fmt.Errorf("line %d: value for check %d before its result", lineNum, id)
			}
			if m[1] == "LHS" {
				report.Events[idx].Left = Unescape(m[3])
			} else {
				report.Events[idx].Right = Unescape(m[3])
			}
			continue
		}

		if m := scoreLine.FindStringSubmatch(line); m != nil {
			score, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return report, fmt.Errorf("line %d: bad score %q: %w", lineNum, m[1], err)
			}
			report.Score = score
			report.HasScore = true
		}
	}

	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read result log: %w", err)
	}
	return report, nil
}

// Unescape reverses the escaping the generated program applies to values:
// "\\" -> "\", "\n" -> newline, "\r" -> carriage return.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
