package parser

import (
	"io"

	"autograde/internal/domain"
)

// Parser turns what an instrumented program wrote about itself into a run report
type Parser interface {
	Parse(r io.Reader) (domain.RunReport, error)
	ParseFile(path string) (domain.RunReport, error)
}
