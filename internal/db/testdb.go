package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns a migrated private in-memory database that is closed
// when tb finishes.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	database, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { database.Close() })

	if err := Migrate(database); err != nil {
		tb.Fatalf("migrating test database: %v", err)
	}
	return database
}
