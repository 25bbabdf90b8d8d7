package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/courtline/tennis-agent/internal/server"
	"github.com/courtline/tennis-agent/pkg/platform"
)

const flagConfig = "config"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tennis-agent",
		Short:         "Tennis prediction agent: player resolution, sessions and admin API",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(flagConfig, "", "Path to configuration file (defaults plus environment when empty)")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPlayerCmd(),
		newSessionCmd(),
		newContextCmd(),
	)
	return cmd
}

// loadConfig reads --config, or builds the default configuration from the
// environment.
func loadConfig(cmd *cobra.Command) (*platform.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	var (
		cfg *platform.Config
		err error
	)
	if path == "" {
		cfg, err = platform.DefaultConfig()
	} else {
		cfg, err = platform.LoadConfig(path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openPlatform loads configuration and builds the platform with a logger
// writing to stderr.
func openPlatform(ctx context.Context, cmd *cobra.Command) (*platform.Platform, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := platform.NewLogger(cfg.Log, cmd.ErrOrStderr())
	p, err := platform.New(ctx, platform.WithConfig(cfg), platform.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating platform: %w", err)
	}
	return p, nil
}

// withPlatform runs fn against a platform that is closed afterwards.
func withPlatform(cmd *cobra.Command, fn func(ctx context.Context, p *platform.Platform) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := openPlatform(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	return fn(ctx, p)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
