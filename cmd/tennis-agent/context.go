package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courtline/tennis-agent/pkg/platform"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Inspect per-user context",
	}

	var flags userFlags
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a user's preferences and interaction stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				user, err := flags.key(p)
				if err != nil {
					return err
				}
				uc := p.Sessions().GetUserContext(ctx, user)
				if uc == nil {
					return fmt.Errorf("user context for %q: %w", user.UserID, errNotFound)
				}
				return printJSON(cmd.OutOrStdout(), uc)
			})
		},
	}
	flags.register(show)

	cmd.AddCommand(show)
	return cmd
}
