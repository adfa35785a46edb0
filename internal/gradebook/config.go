package gradebook

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvHost     = "GRADEBOOK_HOST"
	EnvPort     = "GRADEBOOK_PORT"
	EnvUser     = "GRADEBOOK_USERNAME"
	EnvPassword = "GRADEBOOK_PASSWORD"
	EnvDatabase = "GRADEBOOK_DATABASE"
	EnvTable    = "GRADEBOOK_TABLE"
	EnvStudent  = "GRADEBOOK_STUDENT"
)

// Config holds the MySQL connection settings for the gradebook.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Table    string
	Student  string // Who the recorded scores belong to
}

// DefaultConfig returns settings for a local MySQL server.
func DefaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     "3306",
		User:     "root",
		Database: "autograde",
		Table:    "grades",
	}
}

// ConfigFromEnv loads projectPath/.env (if present) and reads the GRADEBOOK_*
// variables looked up with getenv over the defaults.
func ConfigFromEnv(projectPath string, getenv func(string) string) (Config, error) {
	envPath := filepath.Join(projectPath, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg := DefaultConfig()
	for name, field := range map[string]*string{
		EnvHost:     &cfg.Host,
		EnvPort:     &cfg.Port,
		EnvUser:     &cfg.User,
		EnvPassword: &cfg.Password,
		EnvDatabase: &cfg.Database,
		EnvTable:    &cfg.Table,
		EnvStudent:  &cfg.Student,
	} {
		if v := getenv(name); v != "" {
			*field = v
		}
	}

	if !isValidName(cfg.Database) {
		return Config{}, fmt.Errorf("invalid database name: %q", cfg.Database)
	}
	if !isValidName(cfg.Table) {
		return Config{}, fmt.Errorf("invalid table name: %q", cfg.Table)
	}
	return cfg, nil
}

// DSN returns the driver connection string. Without withDatabase it connects
// to the server only, which is needed to create the database.
func (c Config) DSN(withDatabase bool) string {
	m := mysql.NewConfig()
	m.User = c.User
	m.Passwd = c.Password
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Host, c.Port)
	m.ParseTime = true
	if withDatabase {
		m.DBName = c.Database
	}
	return m.FormatDSN()
}

// isValidName accepts identifiers that are safe to quote with backticks:
// letters, digits, underscore and dollar, at most 64 characters.
func isValidName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
		default:
			return false
		}
	}
	return true
}
