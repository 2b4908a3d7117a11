package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/splash-track/pkg/db/sqlite"
)

func TestMigrateDb(t *testing.T) {
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "laps.db"))
	assert.NilError(t, err)
	defer db.Close()

	version, _, err := Version(db)
	assert.NilError(t, err)
	assert.Equal(t, uint(0), version)

	assert.NilError(t, MigrateDb(db))
	// applying again is a no-op
	assert.NilError(t, MigrateDb(db))

	version, dirty, err := Version(db)
	assert.NilError(t, err)
	assert.Equal(t, uint(1), version)
	assert.Assert(t, !dirty)

	var n int
	err = db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name='lap_record'").Scan(&n)
	assert.NilError(t, err)
	assert.Equal(t, 1, n)
}
