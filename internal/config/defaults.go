package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultSuitePath is where suite files are searched, relative to the project
	DefaultSuitePath = "."
	// DefaultBuildDir is where generated sources and run artifacts are written
	DefaultBuildDir = ".autograde"
	// DefaultOutputJSONFile is the default results file name
	DefaultOutputJSONFile = "grade-results.json"
	// DefaultOutputJSONDir is the default results directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of testcases run at once
	DefaultProcessors = 4
)

// Environment variables read by Load.
const (
	EnvBuildDir   = "AUTOGRADE_DIR"
	EnvProcessors = "AUTOGRADE_PROCESSORS"
	EnvResults    = "AUTOGRADE_RESULTS"
)

// DefaultSuiteExtensions are the file extensions treated as suite files
var DefaultSuiteExtensions = []string{".yaml", ".yml"}

// DefaultPathsToIgnore are the default directories to ignore when scanning for suites
var DefaultPathsToIgnore = []string{
	".git",
	".autograde",
	"node_modules",
	"vendor",
	"storage",
	"build",
}
