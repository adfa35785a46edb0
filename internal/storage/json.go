package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"autograde/internal/discovery"
	"autograde/internal/domain"
)

// NewSuiteResults collects the outcome of a grading run into its persisted
// form. Each run gets a fresh RunID.
func NewSuiteResults(suites []*discovery.Suite, duration time.Duration, workers int) *domain.SuiteResults {
	results := &domain.SuiteResults{
		Meta: domain.SuiteResultsMeta{
			RunID:           uuid.NewString(),
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Workers:         workers,
			Timestamp:       time.Now().Format(time.RFC3339),
		},
		Details: []domain.TestcaseResult{},
	}

	for _, s := range suites {
		for _, tc := range s.Testcases {
			res := tc.Result()
			if res.Suite == "" {
				res.Suite = s.Name
			}
			results.Details = append(results.Details, res)

			results.Meta.TotalTestcases++
			results.Meta.PointsTotal += res.Points
			results.Meta.PointsEarned += res.Earned
			if res.Passed {
				results.Meta.PassedTestcases++
			} else {
				results.Meta.FailedTestcases++
			}
			for _, c := range res.Checks {
				if !c.Passed {
					results.Meta.FailedChecks++
				}
			}
		}
	}
	return results
}

// Save writes results to the JSON file, creating its directory if needed.
func (s *JSONStorage) Save(results *domain.SuiteResults) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last grading run from the JSON file.
func (s *JSONStorage) Load() (*domain.SuiteResults, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var results domain.SuiteResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &results, nil
}

// FailedKeys returns the keys (see Key) of testcases that failed in the
// stored run. A missing results file yields an empty set.
func (s *JSONStorage) FailedKeys() (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	results, err := s.Load()
	if err != nil {
		if _, statErr := os.Stat(s.path); os.IsNotExist(statErr) {
			return keys, nil
		}
		return nil, err
	}
	for _, d := range results.Failed() {
		keys[Key(d.Suite, d.Name)] = struct{}{}
	}
	return keys, nil
}

// Key identifies a testcase across runs by suite and testcase name. Ids are
// not stable when suites are filtered.
func Key(suite, name string) string {
	return suite + "::" + name
}
