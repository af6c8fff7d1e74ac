package dao

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB points the package at a fresh in-memory database with the
// tables the test needs.
func setupTestDB(t *testing.T, schemas ...string) {
	t.Helper()

	testDB, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// One connection, or every pool member gets its own empty memory DB.
	testDB.SetMaxOpenConns(1)

	for _, schema := range schemas {
		if _, err := testDB.Exec(schema); err != nil {
			t.Fatalf("create test schema: %v\n%s", err, schema)
		}
	}

	DB = testDB
	t.Cleanup(func() {
		_ = testDB.Close()
		DB = nil
	})
}

const trainingSchema = `CREATE TABLE training_examples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL DEFAULT 0,
	uuid VARCHAR(36) NOT NULL UNIQUE,
	conversation_id BIGINT NOT NULL,
	category VARCHAR(64) NOT NULL DEFAULT '',
	path VARCHAR(32) NOT NULL DEFAULT '',
	ticket_text TEXT NOT NULL,
	outcome VARCHAR(16) NOT NULL DEFAULT 'unknown',
	embedded_at BIGINT NOT NULL DEFAULT 0
)`

const decisionSchema = `CREATE TABLE routing_decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL DEFAULT 0,
	uuid VARCHAR(36) NOT NULL UNIQUE,
	conversation_id BIGINT NOT NULL,
	path VARCHAR(32) NOT NULL,
	computed_path VARCHAR(32) NOT NULL DEFAULT '',
	retrieval_score DOUBLE NOT NULL DEFAULT 0,
	phase VARCHAR(16) NOT NULL DEFAULT '',
	reason VARCHAR(32) NOT NULL DEFAULT '',
	category VARCHAR(64) NOT NULL DEFAULT '',
	entry_key VARCHAR(191) NOT NULL DEFAULT '',
	experiment BOOLEAN NOT NULL DEFAULT FALSE
)`
