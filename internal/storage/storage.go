package storage

import (
	"autograde/internal/config"
	"autograde/internal/domain"
)

// Storage persists and loads the last grading run (used by list --failed and
// the faills viewer).
type Storage interface {
	Save(results *domain.SuiteResults) error
	Load() (*domain.SuiteResults, error)
}

// JSONStorage stores results in a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage returns a Storage that reads/writes the config's results path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{path: cfg.GetOutputPath()}
}

// Path returns the results file location.
func (s *JSONStorage) Path() string { return s.path }
