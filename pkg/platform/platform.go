package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/courtline/tennis-agent/pkg/admin"
	"github.com/courtline/tennis-agent/pkg/audit"
	auditsql "github.com/courtline/tennis-agent/pkg/audit/sqlstore"
	"github.com/courtline/tennis-agent/pkg/conversation"
	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/database/migrate"
	"github.com/courtline/tennis-agent/pkg/health"
	"github.com/courtline/tennis-agent/pkg/player"
	playersql "github.com/courtline/tennis-agent/pkg/player/sqlstore"
	"github.com/courtline/tennis-agent/pkg/predictions"
	"github.com/courtline/tennis-agent/pkg/session"
	sessionsql "github.com/courtline/tennis-agent/pkg/session/sqlstore"
)

// Platform is the main platform facade. It owns the database connection and
// every service built on it.
type Platform struct {
	config    *Config
	logger    *slog.Logger
	lifecycle *Lifecycle
	health    *health.Checker

	db      *sql.DB
	dialect database.Dialect

	sessions    *session.Service
	resolver    *player.Resolver
	predictions *predictions.Service
	recorder    *conversation.Recorder
	audit       audit.Logger
}

// New creates a new platform instance.
func New(ctx context.Context, opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Platform{
		config:    options.Config,
		logger:    logger,
		lifecycle: NewLifecycle(logger),
		health:    health.NewChecker(),
	}

	if err := p.initializeComponents(ctx, options); err != nil {
		_ = p.lifecycle.Stop(ctx)
		return nil, fmt.Errorf("initializing components: %w", err)
	}
	if err := p.lifecycle.Start(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// initializeComponents builds every component; start-up work is registered
// with the lifecycle.
func (p *Platform) initializeComponents(ctx context.Context, opts *Options) error {
	if err := p.initDatabase(ctx, opts); err != nil {
		return err
	}
	p.initSessions(opts)
	p.initAudit(opts)
	if err := p.initPlayers(opts); err != nil {
		return err
	}
	if err := p.initPredictions(); err != nil {
		return err
	}
	p.recorder = conversation.NewRecorder(p.sessions, conversation.Config{
		AppName: p.config.AppName,
		Now:     opts.Now,
		Logger:  p.logger,
	})
	return nil
}

func (p *Platform) initDatabase(ctx context.Context, opts *Options) error {
	switch {
	case opts.DB != nil:
		p.db, p.dialect = opts.DB, opts.Dialect
	case strings.EqualFold(p.config.Database.Driver, database.DriverMemory):
		return nil
	default:
		db, dialect, err := database.Open(ctx, database.Config{
			Driver:          p.config.Database.Driver,
			DSN:             p.config.Database.DSN,
			MaxOpenConns:    p.config.Database.MaxOpenConns,
			MaxIdleConns:    p.config.Database.MaxIdleConns,
			ConnMaxLifetime: p.config.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		p.db, p.dialect = db, dialect
		p.lifecycle.AppendCloser("database", db)
	}

	p.health.AddProbe("database", p.db.PingContext)
	if p.config.Database.AutoMigrate {
		p.lifecycle.Append("migrations", func(context.Context) error {
			return migrate.Run(p.db, p.dialect)
		}, nil)
	}
	return nil
}

func (p *Platform) initSessions(opts *Options) {
	store := opts.SessionStore
	switch {
	case store != nil:
	case p.db != nil:
		store = sessionsql.New(p.db, p.dialect, sessionsql.Config{Now: opts.Now})
	default:
		store = session.NewMemoryStore()
	}
	p.sessions = session.NewService(store, p.logger)
	p.lifecycle.AppendCloser("sessions", p.sessions)
}

func (p *Platform) initAudit(opts *Options) {
	cfg := p.config.Audit
	if !cfg.Enabled {
		return
	}
	if p.db == nil {
		p.audit = audit.NewMemoryLogger(0)
		return
	}
	store := auditsql.New(p.db, p.dialect, auditsql.Config{
		RetentionDays: cfg.RetentionDays,
		Now:           opts.Now,
	})
	p.audit = store
	p.lifecycle.Append("audit", func(context.Context) error {
		if cfg.CleanupInterval > 0 {
			store.StartCleanupRoutine(cfg.CleanupInterval)
		}
		return nil
	}, func(context.Context) error {
		return store.Close()
	})
}

func (p *Platform) initPlayers(opts *Options) error {
	dir := opts.Directory
	if dir == nil {
		if p.db != nil {
			sqlDir, err := playersql.New(p.db, p.dialect, playersql.Config{Table: p.config.Players.Table})
			if err != nil {
				return fmt.Errorf("creating player directory: %w", err)
			}
			dir = sqlDir
		} else {
			dir = player.NewMemoryDirectory(p.config.Players.Names...)
		}
	}
	p.resolver = player.NewResolver(dir, player.Config{
		DefaultMaxResults: p.config.Players.DefaultMaxResults,
		ExpandLimit:       p.config.Players.ExpandLimit,
		Logger:            p.logger,
	})
	return nil
}

func (p *Platform) initPredictions() error {
	table := p.config.Predictions.Table
	if table == "" {
		table = p.config.Players.Table
	}
	store, err := predictions.NewStore(p.db, p.dialect, predictions.Config{Table: table})
	if err != nil {
		return fmt.Errorf("creating predictions store: %w", err)
	}
	p.predictions = predictions.NewService(p.resolver, store, p.logger)
	return nil
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Logger returns the platform logger.
func (p *Platform) Logger() *slog.Logger {
	return p.logger
}

// DB returns the database connection, or nil for the memory driver.
func (p *Platform) DB() *sql.DB {
	return p.db
}

// Dialect returns the SQL dialect of DB.
func (p *Platform) Dialect() database.Dialect {
	return p.dialect
}

// Health returns the readiness checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// Sessions returns the session service.
func (p *Platform) Sessions() *session.Service {
	return p.sessions
}

// Resolver returns the player resolver.
func (p *Platform) Resolver() *player.Resolver {
	return p.resolver
}

// Predictions returns the predictions service.
func (p *Platform) Predictions() *predictions.Service {
	return p.predictions
}

// Recorder returns the conversation recorder.
func (p *Platform) Recorder() *conversation.Recorder {
	return p.recorder
}

// Audit returns the audit logger, or nil when auditing is disabled.
func (p *Platform) Audit() audit.Logger {
	return p.audit
}

// AdminHandler returns the admin API, guarded by the configured API keys.
func (p *Platform) AdminHandler() http.Handler {
	return admin.NewHandler(admin.Deps{
		Resolver:    p.resolver,
		Predictions: p.predictions,
		Sessions:    p.sessions,
		Audit:       p.audit,
	}, admin.AuthMiddleware(p.config.Server.APIKeys))
}

// Close releases every component in reverse start order.
func (p *Platform) Close() error {
	return p.lifecycle.Stop(context.Background())
}
