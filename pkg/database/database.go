// Package database opens the relational store shared by the session store and
// the player directory, and describes the SQL dialect in use.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"  // registers the "postgres" driver
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Driver names accepted in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	defaultSQLiteDSN     = "file:tennis-agent.db"
	defaultMaxOpenConns  = 25
	sqliteBusyTimeoutMS  = 5000
	defaultPingTimeout   = 5 * time.Second
	sqliteMaxConnections = 1
)

// ErrUnsupportedDriver is returned for drivers Open cannot handle.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config configures the database connection.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Dialect describes SQL differences between the supported engines.
type Dialect struct {
	name string
}

// Postgres is the PostgreSQL dialect.
var Postgres = Dialect{name: DriverPostgres}

// SQLite is the SQLite dialect.
var SQLite = Dialect{name: DriverSQLite}

// Name returns the driver name of the dialect.
func (d Dialect) Name() string {
	return d.name
}

// Builder returns a squirrel statement builder with the dialect's placeholders.
func (d Dialect) Builder() sq.StatementBuilderType {
	if d.name == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// LockSuffix returns the row-locking clause for read-modify-write selects.
// SQLite serialises writers itself, so it has none.
func (d Dialect) LockSuffix() string {
	if d.name == DriverPostgres {
		return "FOR UPDATE"
	}
	return ""
}

// UnicodeLower reports whether the engine's LOWER() folds non-ASCII letters.
// SQLite's built-in LOWER and LIKE only fold ASCII, so callers needing
// Unicode case-insensitive matching must filter in Go instead.
func (d Dialect) UnicodeLower() bool {
	return d.name == DriverPostgres
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgresql", "pgx":
		return Postgres, nil
	case DriverSQLite, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Open opens and pings the configured database.
func Open(ctx context.Context, cfg Config) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if dialect == SQLite {
		dsn = SQLiteDSN(dsn)
	}
	if dsn == "" {
		return nil, Dialect{}, errors.New("database dsn is required")
	}

	db, err := sql.Open(dialect.name, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("opening %s database: %w", dialect.name, err)
	}
	configurePool(db, dialect, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("pinging %s database: %w", dialect.name, err)
	}

	return db, dialect, nil
}

func configurePool(db *sql.DB, dialect Dialect, cfg Config) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	if dialect == SQLite {
		maxOpen = sqliteMaxConnections
	}
	db.SetMaxOpenConns(maxOpen)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// SQLiteDSN fills in the default file and the connection options the stores
// rely on: enforced foreign keys, a busy timeout and sortable timestamps.
func SQLiteDSN(dsn string) string {
	if dsn == "" {
		dsn = defaultSQLiteDSN
	}
	var pragmas []string
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", sqliteBusyTimeoutMS))
	}
	if !strings.Contains(dsn, "_time_format") {
		pragmas = append(pragmas, "_time_format=sqlite")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}
