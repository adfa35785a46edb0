package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"autograde/internal/config"
	"autograde/internal/storage"
	"autograde/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config     *config.Config
	discoverer *Discoverer
	formatter  *ui.Formatter
	storage    *storage.JSONStorage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	discoverer *Discoverer,
	formatter *ui.Formatter,
	st *storage.JSONStorage,
) *ListCommand {
	return &ListCommand{
		config:     cfg,
		discoverer: discoverer,
		formatter:  formatter,
		storage:    st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	suites, err := lc.discoverer.Discover()
	if err != nil {
		return err
	}

	if len(suites) == 0 {
		color.Yellow("No suites found")
		return nil
	}

	// Mark testcases that failed last time; a broken results file only loses the marks
	failed, err := lc.storage.FailedKeys()
	if err != nil {
		failed = nil
	}

	lc.formatter.PrintSuiteList(suites, lc.config.Flags.ShowTestcases, failed)
	return nil
}
