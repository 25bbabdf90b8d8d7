package platform

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/player"
	"github.com/courtline/tennis-agent/pkg/session"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// DB is an open connection to use instead of opening one from config.
	// The platform does not close it.
	DB      *sql.DB
	Dialect database.Dialect

	// SessionStore (optional, will be created from config if not provided).
	SessionStore session.Store

	// Directory (optional, will be created from config if not provided).
	Directory player.Directory

	Logger *slog.Logger

	// Now overrides the clock used for stored timestamps.
	Now func() time.Time
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithDB sets an externally owned database connection.
func WithDB(db *sql.DB, dialect database.Dialect) Option {
	return func(o *Options) {
		o.DB = db
		o.Dialect = dialect
	}
}

// WithSessionStore sets the session store.
func WithSessionStore(store session.Store) Option {
	return func(o *Options) {
		o.SessionStore = store
	}
}

// WithDirectory sets the player directory.
func WithDirectory(dir player.Directory) Option {
	return func(o *Options) {
		o.Directory = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithClock sets the clock used for stored timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
