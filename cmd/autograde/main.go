package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"autograde/internal/cli"
	"autograde/internal/cli/commands"
	"autograde/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "autograde",
		Short: "Automated grading harness",
		Long: `Grade programming exercises: instrument CHECK(...) assertions in each testcase's code,
build and run them in parallel, score them and write reports at the chosen detail level.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Populated from .env, the environment and flags before any command runs
	cfg := config.New()

	var flags cli.Flags
	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
