package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/teranos/smolassistant/db"
)

// CreateTestDB creates a migrated SQLite test database in t.TempDir().
// A file is used rather than ":memory:" because every pooled connection
// would otherwise see its own empty database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "reminders.sqlite"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}
