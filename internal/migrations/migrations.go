// Package migrations embeds the schema for the relational backends and
// applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Engine selects the SQL dialect directory.
type Engine string

const (
	Postgres Engine = "postgres"
	SQLite   Engine = "sqlite"
)

// Up applies every pending migration for engine. dsn is a postgres:// URL
// for Postgres and a file path (optionally with query options) for SQLite.
func Up(engine Engine, dsn string) error {
	databaseURL, err := databaseURL(engine, dsn)
	if err != nil {
		return err
	}

	src, err := iofs.New(files, string(engine))
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", engine, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init %s migrations: %w", engine, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply %s migrations: %w", engine, err)
	}

	return nil
}

// databaseURL rewrites dsn into the scheme the golang-migrate driver registers.
func databaseURL(engine Engine, dsn string) (string, error) {
	switch engine {
	case Postgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, prefix) {
				return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
			}
		}
		return "", fmt.Errorf("postgres migrations need a postgres:// URL, got %q", dsn)
	case SQLite:
		if dsn == "" {
			return "", errors.New("sqlite migrations need a database path")
		}
		return "sqlite3://" + dsn, nil
	default:
		return "", fmt.Errorf("unknown migration engine %q", engine)
	}
}
