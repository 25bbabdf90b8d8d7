// Package migrate provides database migration support using golang-migrate.
//
// Each dialect carries its own migration set under migrations/<dialect>; the
// versions of both sets are kept in lockstep.
package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/courtline/tennis-agent/pkg/database"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// migrator is the subset of *migrate.Migrate used by this package.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

// migratorFactory builds a migrator for db. Tests replace it.
var migratorFactory = newMigrator

func newMigrator(db *sql.DB, dialect database.Dialect) (migrator, error) {
	source, err := iofs.New(migrations, sourceDir(dialect))
	if err != nil {
		return nil, fmt.Errorf("creating migration source: %w", err)
	}

	var m *migrate.Migrate
	switch dialect {
	case database.Postgres:
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("creating postgres driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, dialect.Name(), driver)
		if err != nil {
			return nil, fmt.Errorf("creating migrator: %w", err)
		}
	case database.SQLite:
		driver, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, dialect.Name(), driver)
		if err != nil {
			return nil, fmt.Errorf("creating migrator: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, dialect.Name())
	}

	return m, nil
}

func sourceDir(dialect database.Dialect) string {
	return "migrations/" + dialect.Name()
}

// Run executes all pending database migrations.
// It applies migrations in order and is idempotent - already applied migrations are skipped.
func Run(db *sql.DB, dialect database.Dialect) error {
	m, err := migratorFactory(db, dialect)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("getting migration version: %w", err)
	}

	if dirty {
		slog.Warn("database migration state is dirty", "dialect", dialect.Name(), "version", version)
	} else {
		slog.Info("database migrations complete", "dialect", dialect.Name(), "version", version)
	}

	return nil
}

// Version returns the current migration version.
func Version(db *sql.DB, dialect database.Dialect) (uint, bool, error) {
	m, err := migratorFactory(db, dialect)
	if err != nil {
		return 0, false, err
	}

	return m.Version()
}

// Down rolls back all migrations.
// Use with caution - this will destroy all session history.
func Down(db *sql.DB, dialect database.Dialect) error {
	m, err := migratorFactory(db, dialect)
	if err != nil {
		return err
	}

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}

	return nil
}

// Steps applies n migrations (positive = up, negative = down).
func Steps(db *sql.DB, dialect database.Dialect, n int) error {
	m, err := migratorFactory(db, dialect)
	if err != nil {
		return err
	}

	if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("stepping migrations: %w", err)
	}

	return nil
}
