package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner scans for suite files in a directory
type Scanner struct {
	skipDirs   map[string]bool
	extensions []string
}

// NewScanner creates a new Scanner with the given directories to skip and
// suite file extensions to accept
func NewScanner(skipDirs, extensions []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap, extensions: extensions}
}

// Scan finds all suite files under root, sorted by path. A root that is a
// single file is returned as is.
func (s *Scanner) Scan(root string) ([]string, error) {
	var suites []string

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("suite path does not exist: %s", root)
	}
	if !info.IsDir() {
		if !s.isSuite(root) {
			return nil, fmt.Errorf("not a suite file: %s", root)
		}
		return []string{root}, nil
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isSuite(d.Name()) {
			suites = append(suites, path)
		}
		return nil
	})

	sort.Strings(suites)
	return suites, err
}

func (s *Scanner) isSuite(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
