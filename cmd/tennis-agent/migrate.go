package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gomigrate "github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/database/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the session schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *sql.DB, dialect database.Dialect) error {
					return migrate.Run(db, dialect)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration, dropping all session data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *sql.DB, dialect database.Dialect) error {
					return migrate.Down(db, dialect)
				})
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations (negative N rolls back)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return withDB(cmd, func(db *sql.DB, dialect database.Dialect) error {
					return migrate.Steps(db, dialect, n)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *sql.DB, dialect database.Dialect) error {
					v, dirty, err := migrate.Version(db, dialect)
					if err != nil && !errors.Is(err, gomigrate.ErrNilVersion) {
						return fmt.Errorf("getting migration version: %w", err)
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"version": v, "dirty": dirty})
				})
			},
		},
	)
	return cmd
}

// withDB opens the configured SQL database without building the rest of the
// platform, so migrations run exactly once and on demand.
func withDB(cmd *cobra.Command, fn func(*sql.DB, database.Dialect) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if strings.EqualFold(cfg.Database.Driver, database.DriverMemory) {
		return errors.New("migrations need a postgres or sqlite database")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, dialect, err := database.Open(ctx, database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db, dialect)
}
