package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory SQLite database with the full schema
// and migrations applied, closed automatically when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("preparing test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
