package database

import (
	"database/sql"
	"testing"
)

// OpenTest returns a fresh in-memory database with the full schema
// applied. The pool is pinned to one connection so every statement sees
// the same in-memory database.
func OpenTest(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		t.Fatalf("pragma foreign_keys: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
