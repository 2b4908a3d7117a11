// Package testdb provides migrated sqlite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mpapenbr/splash-track/pkg/db/migrate"
	"github.com/mpapenbr/splash-track/pkg/db/sqlite"
)

// InitTestDb opens a fresh database in a temp dir of t and applies all
// migrations. The database is closed when the test ends.
func InitTestDb(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("initTestDb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrate.MigrateDb(db); err != nil {
		t.Fatalf("initTestDb: %v", err)
	}
	return db
}
