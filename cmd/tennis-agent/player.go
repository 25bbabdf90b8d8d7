package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courtline/tennis-agent/pkg/platform"
	"github.com/courtline/tennis-agent/pkg/predictions"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Resolve players and read their predictions",
	}

	var limit int
	resolve := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Show how a name resolves and which players it matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				if limit == 0 {
					limit = p.Resolver().DefaultMaxResults()
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"resolution": p.Resolver().Resolve(ctx, name),
					"matches":    p.Resolver().FindPlayers(ctx, name, limit),
				})
			})
		},
	}
	resolve.Flags().IntVar(&limit, "limit", 0, "Maximum matches to list (default from config)")

	var matchupLimit int
	matchups := &cobra.Command{
		Use:   "matchups NAME...",
		Short: "List recent predictions involving a player",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				res, err := p.Predictions().Matchups(ctx, strings.Join(args, " "), matchupLimit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	matchups.Flags().IntVar(&matchupLimit, "limit", predictions.DefaultMatchupLimit, "Maximum predictions")

	var matchesBack int
	form := &cobra.Command{
		Use:   "form NAME...",
		Short: "Summarise a player's recent form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				res, err := p.Predictions().Form(ctx, strings.Join(args, " "), matchesBack)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	form.Flags().IntVar(&matchesBack, "matches", predictions.DefaultMatchesBack, "Number of recent predictions to analyse")

	cmd.AddCommand(resolve, matchups, form)
	return cmd
}
