package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"autograde/internal/gradebook"
	"autograde/internal/storage"
)

var envLookup = os.Getenv

// GradebookCommand handles the gradebook subcommands
type GradebookCommand struct {
	storage   storage.Storage
	gradebook func() (gradebook.Gradebook, error)
}

// NewGradebookCommand creates a new GradebookCommand
func NewGradebookCommand(st storage.Storage, gb func() (gradebook.Gradebook, error)) *GradebookCommand {
	return &GradebookCommand{storage: st, gradebook: gb}
}

// Init creates the gradebook schema.
func (gc *GradebookCommand) Init(cmd *cobra.Command, args []string) error {
	gb, err := gc.gradebook()
	if err != nil {
		return err
	}
	if err := gb.EnsureSchema(cmd.Context()); err != nil {
		return err
	}
	color.Green("✓ Gradebook is ready")
	return nil
}

// Record stores the scores of the last run.
func (gc *GradebookCommand) Record(cmd *cobra.Command, args []string) error {
	results, err := gc.storage.Load()
	if err != nil {
		return err
	}
	gb, err := gc.gradebook()
	if err != nil {
		return err
	}
	if err := gb.Record(cmd.Context(), results); err != nil {
		return err
	}
	color.Green("Recorded %d score(s) for run %s", len(results.Details), results.Meta.RunID)
	return nil
}
