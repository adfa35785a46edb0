package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	SuitePath   string
	BuildDir    string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Processors int

	// Scanning settings
	SuiteExtensions []string
	PathsToIgnore   []string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Processors int
	SuitePath  string
	BuildDir   string
	NameFilter string
	FailFast   bool
	OnlyFailed bool
	OpenFaills bool
	Verbose    bool
	// Listing
	ShowTestcases bool
	// Reporting
	Outputs   []string
	Detail    string
	Gradebook bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		SuitePath:      DefaultSuitePath,
		BuildDir:       DefaultBuildDir,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Flags:          Flags{Processors: DefaultProcessors},
	}
	cfg.SuiteExtensions = append([]string(nil), DefaultSuiteExtensions...)
	cfg.PathsToIgnore = append([]string(nil), DefaultPathsToIgnore...)
	return cfg
}

// Load creates a config from defaults, the project's .env file, the
// environment and finally flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()

	// A missing .env is fine; variables may come from the environment
	envPath := filepath.Join(cfg.ProjectPath, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	cfg.ApplyFlags(flags)
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if dir := getenv(EnvBuildDir); dir != "" {
		c.BuildDir = dir
	}
	if results := getenv(EnvResults); results != "" {
		c.OutputJSONDir, c.OutputJSONFile = filepath.Split(results)
	}
	if v := getenv(EnvProcessors); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvProcessors, v)
		}
		c.Processors = n
	}
	return nil
}

// ApplyFlags stores flags and applies their overrides.
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.BuildDir != "" {
		c.BuildDir = flags.BuildDir
	}
}

// GetSuitePath returns the suite search path, using the flag if provided
func (c *Config) GetSuitePath() string {
	if c.Flags.SuitePath != "" {
		// Relative flag values are taken from the project path
		if filepath.IsAbs(c.Flags.SuitePath) {
			return c.Flags.SuitePath
		}
		return filepath.Join(c.ProjectPath, c.Flags.SuitePath)
	}

	return filepath.Join(c.ProjectPath, c.SuitePath)
}

// GetBuildDir returns the directory for generated artifacts.
func (c *Config) GetBuildDir() string {
	if filepath.IsAbs(c.BuildDir) {
		return c.BuildDir
	}
	return filepath.Join(c.ProjectPath, c.BuildDir)
}

// GetOutputPath returns the full path to the results file.
// Resolves to an absolute path so run and faills always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.OutputJSONDir, c.OutputJSONFile)
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectPath, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
