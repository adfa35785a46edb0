package commands

import (
	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/storage"
	"autograde/internal/testcase"
)

// Discoverer finds, loads and filters the suites a command works on.
type Discoverer struct {
	config  *config.Config
	scanner *discovery.Scanner
	loader  *discovery.SuiteLoader
	filter  *discovery.Filter
}

// Discover returns the suites under the configured suite path, narrowed by
// the name filter.
func (d *Discoverer) Discover() ([]*discovery.Suite, error) {
	paths, err := d.scanner.Scan(d.config.GetSuitePath())
	if err != nil {
		return nil, err
	}
	suites, err := d.loader.LoadAll(paths)
	if err != nil {
		return nil, err
	}
	return d.filter.FilterSuites(suites, d.config.Flags.NameFilter), nil
}

// keepFailed narrows suites to the testcases whose storage.Key is in failed,
// dropping suites left empty.
func keepFailed(suites []*discovery.Suite, failed map[string]struct{}) []*discovery.Suite {
	kept := suites[:0]
	for _, s := range suites {
		var tcs []*testcase.Testcase
		for _, tc := range s.Testcases {
			if _, ok := failed[storage.Key(s.Name, tc.Name())]; ok {
				tcs = append(tcs, tc)
			}
		}
		if len(tcs) > 0 {
			s.Testcases = tcs
			kept = append(kept, s)
		}
	}
	return kept
}

func countTestcases(suites []*discovery.Suite) int {
	n := 0
	for _, s := range suites {
		n += len(s.Testcases)
	}
	return n
}
