// Package gradebook exports per-testcase scores to a MySQL database.
package gradebook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autograde/internal/domain"
	"autograde/internal/logging"
)

// Gradebook records graded runs.
type Gradebook interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, results *domain.SuiteResults) error
}

// Row is one recorded testcase score.
type Row struct {
	RunID      string
	Student    string
	Suite      string
	TestcaseID int
	Name       string
	Points     float64
	Earned     float64
	Passed     bool
	Reason     string
	RecordedAt time.Time
}

// Rows flattens a run into gradebook rows, one per testcase.
func Rows(student string, results *domain.SuiteResults) []Row {
	recorded := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, results.Meta.Timestamp); err == nil {
		recorded = t.UTC()
	}

	rows := make([]Row, 0, len(results.Details))
	for _, d := range results.Details {
		rows = append(rows, Row{
			RunID:      results.Meta.RunID,
			Student:    student,
			Suite:      d.Suite,
			TestcaseID: d.ID,
			Name:       d.Name,
			Points:     d.Points,
			Earned:     d.Earned,
			Passed:     d.Passed,
			Reason:     d.Reason,
			RecordedAt: recorded,
		})
	}
	return rows
}

// MySQLGradebook stores scores in a MySQL table.
type MySQLGradebook struct {
	cfg    Config
	open   func(dsn string) (*sql.DB, error)
	logger *zap.Logger
}

// NewMySQLGradebook creates a gradebook. Connections are opened per call.
func NewMySQLGradebook(cfg Config, logger *zap.Logger) *MySQLGradebook {
	return &MySQLGradebook{
		cfg:    cfg,
		open:   func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) },
		logger: logging.OrNop(logger),
	}
}

func (g *MySQLGradebook) connect(ctx context.Context, withDatabase bool) (*sql.DB, error) {
	db, err := g.open(g.cfg.DSN(withDatabase))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the database and the scores table if they don't exist.
func (g *MySQLGradebook) EnsureSchema(ctx context.Context) error {
	server, err := g.connect(ctx, false)
	if err != nil {
		return err
	}
	defer server.Close()

	exists, err := databaseExists(ctx, server, g.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", g.cfg.Database, err)
	}
	if !exists {
		if _, err := server.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", g.cfg.Database)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", g.cfg.Database, err)
		}
		g.logger.Info("created gradebook database", zap.String("database", g.cfg.Database))
	}

	db, err := g.connect(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTableSQL(g.cfg.Table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", g.cfg.Table, err)
	}
	return nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

func createTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"id BIGINT AUTO_INCREMENT PRIMARY KEY, "+
		"run_id CHAR(36) NOT NULL, "+
		"student VARCHAR(255) NOT NULL, "+
		"suite VARCHAR(255) NOT NULL, "+
		"testcase_id INT NOT NULL, "+
		"name VARCHAR(255) NOT NULL, "+
		"points DOUBLE NOT NULL, "+
		"earned DOUBLE NOT NULL, "+
		"passed BOOLEAN NOT NULL, "+
		"reason VARCHAR(32) NOT NULL, "+
		"recorded_at DATETIME NOT NULL, "+
		"INDEX idx_run (run_id), "+
		"INDEX idx_student (student))", table)
}

func insertSQL(table string) string {
	return fmt.Sprintf("INSERT INTO `%s` "+
		"(run_id, student, suite, testcase_id, name, points, earned, passed, reason, recorded_at) "+
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", table)
}

// Record inserts one row per testcase of the run in a single transaction.
func (g *MySQLGradebook) Record(ctx context.Context, results *domain.SuiteResults) error {
	rows := Rows(g.cfg.Student, results)
	if len(rows) == 0 {
		return nil
	}

	db, err := g.connect(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(g.cfg.Table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Student, r.Suite, r.TestcaseID, r.Name,
			r.Points, r.Earned, r.Passed, r.Reason, r.RecordedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record test %d: %w", r.TestcaseID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scores: %w", err)
	}

	g.logger.Debug("recorded scores", zap.String("run_id", results.Meta.RunID), zap.Int("rows", len(rows)))
	return nil
}
