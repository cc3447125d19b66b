// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
)

const Table = "ipo_status"

// NewSQLiteStore returns a store over a private in-memory SQLite database
func NewSQLiteStore(t testing.TB) (*database.IPOStore, *sql.DB) {
	t.Helper()

	cfg := shared.NewDefaultUnifiedConfiguration().Database
	cfg.Driver = "sqlite"
	cfg.URL = ":memory:"

	return newStore(t, &cfg, database.SQLite)
}

// NewPostgresStore returns a store over TEST_DATABASE_URL, skipping the test when
// the database is not reachable. The IPO table is emptied first.
func NewPostgresStore(t testing.TB) (*database.IPOStore, *sql.DB) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping postgres tests - TEST_DATABASE_URL not set")
	}

	cfg := shared.NewDefaultUnifiedConfiguration().Database
	cfg.Driver = "postgres"
	cfg.URL = dbURL
	cfg.PingTimeout = 5 * time.Second

	db, err := database.Open(&cfg)
	if err != nil {
		t.Skipf("Skipping postgres tests - database not available: %v", err)
	}
	db.Close()

	store, conn := newStore(t, &cfg, database.Postgres)
	if _, err := conn.Exec("DELETE FROM " + Table); err != nil {
		t.Fatalf("failed to reset %s: %v", Table, err)
	}
	if _, err := conn.Exec("DELETE FROM ipo_update_log"); err != nil {
		t.Fatalf("failed to reset ipo_update_log: %v", err)
	}
	return store, conn
}

func newStore(t testing.TB, cfg *shared.DatabaseConfig, dialect database.Dialect) (*database.IPOStore, *sql.DB) {
	t.Helper()

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db, dialect, Table); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store, err := database.NewIPOStore(db, dialect, Table, 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, db
}

// Seed inserts the records, assigning ids to those without one
func Seed(t testing.TB, store *database.IPOStore, ipos ...*models.IPO) {
	t.Helper()
	for _, ipo := range ipos {
		if err := store.Insert(context.Background(), ipo); err != nil {
			t.Fatalf("seed %q: %v", ipo.Name, err)
		}
	}
}

// NewIPO builds a record with the given name and end date
func NewIPO(name, endDate string) *models.IPO {
	return &models.IPO{
		AnalysisTitle: name + " IPO Analysis",
		Name:          name,
		Summary:       "Summary of " + name,
		ListingWindow: models.ListingWindow{EndDate: endDate},
		SubscriptionDetails: models.SubscriptionDetails{
			Total: "12.5",
			QIB:   "20.1",
			NII:   "8.3",
			RII:   "5.0",
			GMP:   "45 (12%)",
		},
	}
}
