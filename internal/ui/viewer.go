package ui

import "autograde/internal/domain"

// Viewer displays a stored grading run interactively.
type Viewer interface {
	View(results *domain.SuiteResults) error
}
