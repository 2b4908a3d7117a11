package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mpapenbr/splash-track/log"
)

//go:embed migrations
var migrations embed.FS

type migrateLogger struct {
	l *log.Logger
}

func (m migrateLogger) Printf(format string, v ...any) {
	m.l.Debug(fmt.Sprintf(format, v...))
}

func (m migrateLogger) Verbose() bool {
	return m.l.Enabled(log.DebugLevel)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, err
	}
	m.Log = migrateLogger{l: log.Default().Named("db.migrate")}
	return m, nil
}

// MigrateDb applies all pending migrations. The migrate instance is not
// closed since that would close db.
func MigrateDb(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version returns the applied schema version, 0 if none was applied.
func Version(db *sql.DB) (version uint, dirty bool, err error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
