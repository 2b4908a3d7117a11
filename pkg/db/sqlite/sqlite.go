// Package sqlite opens the embedded lap record database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mpapenbr/splash-track/log"
)

type (
	Option func(*config)
	config struct {
		pragmas []string
		log     *log.Logger
	}
)

// WithPragma adds a pragma applied to every connection of the pool, e.g.
// WithPragma("journal_mode", "WAL").
func WithPragma(name, value string) Option {
	return func(c *config) {
		c.pragmas = append(c.pragmas, fmt.Sprintf("%s(%s)", name, value))
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Open opens dsn (a file path or ":memory:") and checks the connection.
// Pragmas are passed as _pragma parameters, the driver runs them on each
// new connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*sql.DB, error) {
	cfg := &config{
		pragmas: []string{"foreign_keys(1)", "busy_timeout(5000)"},
		log:     log.Default().Named("db"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	db, err := sql.Open("sqlite", withPragmas(dsn, cfg.pragmas))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(dsn, ":memory:") {
		// every connection would get its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	cfg.log.Debug("database opened", log.String("dsn", dsn))
	return db, nil
}

func withPragmas(dsn string, pragmas []string) string {
	if len(pragmas) == 0 {
		return dsn
	}
	q := url.Values{"_pragma": pragmas}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + q.Encode()
}
