package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_GetSuitePath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				SuitePath:   ".",
				Flags:       Flags{},
			},
			expected: ".",
		},
		{
			name: "with suite path flag",
			config: &Config{
				ProjectPath: "/project",
				SuitePath:   ".",
				Flags: Flags{
					SuitePath: "grading",
				},
			},
			expected: "/project/grading",
		},
		{
			name: "absolute suite path",
			config: &Config{
				ProjectPath: "/project",
				SuitePath:   ".",
				Flags: Flags{
					SuitePath: "/absolute/path",
				},
			},
			expected: "/absolute/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.GetSuitePath()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBuildDir:   "/tmp/grade",
		EnvProcessors: "8",
		EnvResults:    "out/results.json",
	}

	cfg := New()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BuildDir != "/tmp/grade" {
		t.Errorf("expected BuildDir /tmp/grade, got %s", cfg.BuildDir)
	}
	if cfg.Processors != 8 {
		t.Errorf("expected 8 processors, got %d", cfg.Processors)
	}
	if cfg.OutputJSONDir != "out/" || cfg.OutputJSONFile != "results.json" {
		t.Errorf("unexpected results location %s%s", cfg.OutputJSONDir, cfg.OutputJSONFile)
	}
	if cfg.GetBuildDir() != "/tmp/grade" {
		t.Errorf("absolute build dir should be kept, got %s", cfg.GetBuildDir())
	}
}

func TestConfig_ApplyEnvInvalidProcessors(t *testing.T) {
	for _, v := range []string{"zero", "0", "-3"} {
		cfg := New()
		err := cfg.ApplyEnv(func(k string) string {
			if k == EnvProcessors {
				return v
			}
			return ""
		})
		if err == nil {
			t.Errorf("expected error for %s=%q", EnvProcessors, v)
		}
	}
}

func TestConfig_ApplyFlags(t *testing.T) {
	cfg := New()
	cfg.ApplyFlags(Flags{Processors: 2, BuildDir: "work"})

	if cfg.Processors != 2 {
		t.Errorf("expected 2 processors, got %d", cfg.Processors)
	}
	if got, want := cfg.GetBuildDir(), filepath.Join(DefaultProjectPath, "work"); got != want {
		t.Errorf("expected build dir %s, got %s", want, got)
	}

	cfg.ApplyFlags(Flags{})
	if cfg.Processors != 2 {
		t.Errorf("zero flag must not reset processors, got %d", cfg.Processors)
	}
}

func TestConfig_GetOutputPath(t *testing.T) {
	cfg := New()
	path := cfg.GetOutputPath()

	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %s", path)
	}
	if filepath.Base(path) != DefaultOutputJSONFile {
		t.Errorf("expected file %s, got %s", DefaultOutputJSONFile, path)
	}
}

func TestLoad(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	// Registered for restore, then unset so the .env value applies
	t.Setenv(EnvProcessors, "")
	t.Setenv(EnvBuildDir, "")
	os.Unsetenv(EnvProcessors)
	os.Unsetenv(EnvBuildDir)
	if err := os.WriteFile(".env", []byte("AUTOGRADE_PROCESSORS=6\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(Flags{BuildDir: "out"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Processors != 6 {
		t.Errorf("expected processors from .env, got %d", cfg.Processors)
	}
	if cfg.BuildDir != "out" {
		t.Errorf("expected build dir from flags, got %s", cfg.BuildDir)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ProjectPath != DefaultProjectPath {
		t.Errorf("expected ProjectPath %s, got %s", DefaultProjectPath, cfg.ProjectPath)
	}

	if cfg.Processors != DefaultProcessors {
		t.Errorf("expected Processors %d, got %d", DefaultProcessors, cfg.Processors)
	}

	if cfg.BuildDir != DefaultBuildDir {
		t.Errorf("expected BuildDir %s, got %s", DefaultBuildDir, cfg.BuildDir)
	}

	if len(cfg.PathsToIgnore) != len(DefaultPathsToIgnore) {
		t.Errorf("expected %d paths to ignore, got %d", len(DefaultPathsToIgnore), len(cfg.PathsToIgnore))
	}
}
