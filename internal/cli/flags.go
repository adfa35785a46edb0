package cli

import "autograde/internal/config"

// Flags holds command-line flags
type Flags struct {
	Processors    int
	SuitePath     string
	BuildDir      string
	NameFilter    string
	FailFast      bool
	OnlyFailed    bool
	OpenFaills    bool
	Verbose       bool
	ShowTestcases bool
	Outputs       []string
	Detail        string
	Gradebook     bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:    f.Processors,
		SuitePath:     f.SuitePath,
		BuildDir:      f.BuildDir,
		NameFilter:    f.NameFilter,
		FailFast:      f.FailFast,
		OnlyFailed:    f.OnlyFailed,
		OpenFaills:    f.OpenFaills,
		Verbose:       f.Verbose,
		ShowTestcases: f.ShowTestcases,
		Outputs:       append([]string(nil), f.Outputs...),
		Detail:        f.Detail,
		Gradebook:     f.Gradebook,
	}
}
