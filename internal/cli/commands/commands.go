package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autograde/internal/cli"
	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/execution"
	"autograde/internal/gradebook"
	"autograde/internal/logging"
	"autograde/internal/storage"
	"autograde/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	config *config.Config

	Run       *RunCommand
	List      *ListCommand
	Generate  *GenerateCommand
	Faills    *FaillsCommand
	Gradebook *GradebookCommand
}

// NewCommands creates the command set. Dependencies are wired once flags are
// parsed, since logging depends on --verbose.
func NewCommands(cfg *config.Config) *Commands {
	return &Commands{config: cfg}
}

// wire creates all commands with their dependencies.
func (c *Commands) wire(logger *zap.Logger) {
	cfg := c.config
	logger = logging.OrNop(logger)

	discoverer := &Discoverer{
		config:  cfg,
		scanner: discovery.NewScanner(cfg.PathsToIgnore, cfg.SuiteExtensions),
		loader:  discovery.NewSuiteLoader(cfg.GetBuildDir()),
		filter:  discovery.NewFilter(),
	}
	runner := execution.NewRunner(logger)
	executor := execution.NewWorkerPool(cfg.Processors, runner, logger)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	errorViewer := ui.NewErrorViewer(jsonStorage)
	gradebookFactory := func() (gradebook.Gradebook, error) {
		gbCfg, err := gradebook.ConfigFromEnv(cfg.ProjectPath, envLookup)
		if err != nil {
			return nil, err
		}
		return gradebook.NewMySQLGradebook(gbCfg, logger), nil
	}

	c.Run = NewRunCommand(cfg, discoverer, executor, jsonStorage, formatter, errorViewer, gradebookFactory, logger)
	c.List = NewListCommand(cfg, discoverer, formatter, jsonStorage)
	c.Generate = NewGenerateCommand(discoverer)
	c.Faills = NewFaillsCommand(jsonStorage, errorViewer)
	c.Gradebook = NewGradebookCommand(jsonStorage, gradebookFactory)
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log diagnostics at debug level")
	rootCmd.PersistentFlags().StringVarP(&flags.SuitePath, "suite-path", "s", "", "Suite file or folder where suite discovery should start")
	rootCmd.PersistentFlags().StringVar(&flags.BuildDir, "build-dir", "", "Directory for generated sources, executables and logs")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*c.config = *loaded

		logger, err := logging.New(flags.Verbose)
		if err != nil {
			return err
		}
		c.wire(logger)
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Grade testcases in parallel",
		Long:  "Discover suites, build and run every testcase using parallel workers, then write the reports",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Run.Execute(cmd, args) },
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors to use (default from config)")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter testcases by name pattern (supports wildcards, e.g., '*vector*' or 'push?back')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first failed testcase")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only testcases that failed in the last run")
	runCmd.Flags().BoolVar(&flags.OpenFaills, "open-faills", false, "Open the faills viewer when the run finishes with failures")
	runCmd.Flags().StringArrayVarP(&flags.Outputs, "output", "o", nil, "Write the report to this file instead of the suite outputs ('-' for stdout, repeatable)")
	runCmd.Flags().StringVarP(&flags.Detail, "detail", "d", "", "Detail level for --output reports: none, percent, score, summary, student, teacher, full, debug")
	runCmd.Flags().BoolVar(&flags.Gradebook, "gradebook", false, "Record scores in the MySQL gradebook")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered suites",
		Long:  "Scan and list all suites without building or running them",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.List.Execute(cmd, args) },
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter testcases by name pattern (supports wildcards)")
	listCmd.Flags().BoolVarP(&flags.ShowTestcases, "testcases", "c", false, "List the testcases of every suite")
	rootCmd.AddCommand(listCmd)

	// Generate command
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Write instrumented sources without compiling",
		Long:  "Generate the program for every testcase into the build directory so it can be inspected",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Generate.Execute(cmd, args) },
	}
	generateCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter testcases by name pattern (supports wildcards)")
	rootCmd.AddCommand(generateCmd)

	// Faills command
	faillsCmd := &cobra.Command{
		Use:   "faills",
		Short: "View failed testcases interactively",
		Long:  "Display the failed testcases of the last run in an interactive viewer",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Faills.Execute(cmd, args) },
	}
	rootCmd.AddCommand(faillsCmd)

	// Gradebook commands
	gradebookCmd := &cobra.Command{
		Use:   "gradebook",
		Short: "Manage the MySQL gradebook",
	}
	gradebookCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the gradebook database and table",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Gradebook.Init(cmd, args) },
	})
	gradebookCmd.AddCommand(&cobra.Command{
		Use:   "record",
		Short: "Record the scores of the last run",
		RunE:  func(cmd *cobra.Command, args []string) error { return c.Gradebook.Record(cmd, args) },
	})
	rootCmd.AddCommand(gradebookCmd)
}
