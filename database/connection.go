package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/shared"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

//go:embed schema/*.sql
var schemaFS embed.FS

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// requiredColumns are the columns the query and update paths read or write
var requiredColumns = []string{
	"id", "analysis_title", "name", "summary_snippet", "end_date",
	"subscription_total", "subscription_qib", "subscription_nii", "subscription_rii", "gmp",
	"recommendation", "apply_for_listing_gain",
}

// Connect opens the configured database, stores it in DB and returns it
func Connect(config *shared.DatabaseConfig) (*sql.DB, error) {
	db, err := Open(config)
	if err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Open establishes a pooled connection with the configured limits and pings it
func Open(config *shared.DatabaseConfig) (*sql.DB, error) {
	dialect, err := DialectFor(config.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName, config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == SQLite {
		// One connection keeps :memory: databases alive and serialises writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	pingTimeout := config.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dialect == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			logrus.WithError(err).Warn("Failed to set sqlite busy_timeout")
		}
	}

	logrus.WithFields(logrus.Fields{
		"driver":             dialect.Name,
		"max_open_conns":     config.MaxOpenConns,
		"max_idle_conns":     config.MaxIdleConns,
		"conn_max_lifetime":  config.ConnMaxLifetime,
		"conn_max_idle_time": config.ConnMaxIdleTime,
	}).Info("Connected to database successfully")

	return db, nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logrus.Info("Database connection closed")
	}
}

// Ping checks db with a bounded timeout and logs pool statistics
func Ping(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	stats := db.Stats()
	logrus.WithFields(logrus.Fields{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration,
	}).Debug("Database connection pool health check")

	return nil
}

// Migrate applies the embedded schema for the dialect. Failed statements are
// logged and the remaining ones still run; the first failure is returned.
func Migrate(db *sql.DB, dialect Dialect, table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	content, err := schemaFS.ReadFile("schema/" + dialect.Name + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	statements := parseSQLStatements(strings.ReplaceAll(string(content), "{{table}}", table))

	var firstErr error
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			logrus.Warnf("Migration statement failed (continuing): %v", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("migration failed: %w", err)
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}

	logrus.WithFields(logrus.Fields{
		"driver": dialect.Name,
		"table":  table,
	}).Info("Database migration completed successfully")
	return nil
}

// VerifySchema reports the required IPO columns missing from the table
func VerifySchema(ctx context.Context, db *sql.DB, dialect Dialect, table string) ([]string, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var (
		rows *sql.Rows
		err  error
	)
	if dialect == SQLite {
		rows, err = db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1`, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		existing[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range requiredColumns {
		if !existing[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		logrus.WithFields(logrus.Fields{
			"table":           table,
			"missing_columns": missing,
		}).Warn("Schema validation found issues")
	}
	return missing, nil
}

// parseSQLStatements parses SQL content into individual statements
// This handles multi-line statements and comments properly
func parseSQLStatements(content string) []string {
	var statements []string
	var currentStatement strings.Builder

	lines := strings.Split(content, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString(" ")
		}
		currentStatement.WriteString(line)

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSuffix(currentStatement.String(), ";")
			stmt = strings.TrimSpace(stmt)
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}
