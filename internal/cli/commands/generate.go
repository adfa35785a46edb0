package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"autograde/internal/instrument"
)

// GenerateCommand writes instrumented sources without compiling them.
type GenerateCommand struct {
	discoverer *Discoverer
	generator  instrument.Generator
}

// NewGenerateCommand creates a new GenerateCommand
func NewGenerateCommand(discoverer *Discoverer) *GenerateCommand {
	return &GenerateCommand{discoverer: discoverer, generator: instrument.NewCppGenerator()}
}

// Execute runs the command
func (gc *GenerateCommand) Execute(cmd *cobra.Command, args []string) error {
	suites, err := gc.discoverer.Discover()
	if err != nil {
		return err
	}

	var errs []error
	written := 0
	for _, s := range suites {
		for _, tc := range s.Testcases {
			if err := tc.ResolveCode(nil); err != nil {
				errs = append(errs, err)
				color.Red("✗ Test %d: %v", tc.ID(), err)
				continue
			}
			if err := tc.Generate(gc.generator, s.Header); err != nil {
				errs = append(errs, err)
				color.Red("✗ Test %d: %v", tc.ID(), err)
				continue
			}

			path := tc.Paths().Source
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create build dir: %w", err)
			}
			if err := os.WriteFile(path, []byte(tc.Source()), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			written++
			color.Cyan("%s (%d checks)", path, tc.NumChecks())
		}
	}

	color.Green("Generated %d source file(s)", written)
	return errors.Join(errs...)
}
