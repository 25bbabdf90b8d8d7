package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courtline/tennis-agent/pkg/audit"
	"github.com/courtline/tennis-agent/pkg/platform"
	"github.com/courtline/tennis-agent/pkg/session"
)

// errNotFound is returned when a requested session or user context is absent.
var errNotFound = errors.New("not found")

// userFlags holds the --app and --user flags shared by session and context
// commands.
type userFlags struct {
	app  string
	user string
}

func (f *userFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.app, "app", "", "App name (default from config)")
	cmd.Flags().StringVar(&f.user, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
}

func (f *userFlags) key(p *platform.Platform) (session.UserKey, error) {
	app := f.app
	if app == "" {
		app = p.Config().AppName
	}
	user := session.UserKey{AppName: app, UserID: f.user}
	if err := user.Validate(); err != nil {
		return session.UserKey{}, err
	}
	return user, nil
}

// sessionFlags adds --session, which defaults to the user ID.
type sessionFlags struct {
	userFlags
	session string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	f.userFlags.register(cmd)
	cmd.Flags().StringVar(&f.session, "session", "", "Session ID (defaults to the user ID)")
}

func (f *sessionFlags) key(p *platform.Platform) (session.Key, error) {
	user, err := f.userFlags.key(p)
	if err != nil {
		return session.Key{}, err
	}
	id := f.session
	if id == "" {
		id = user.UserID
	}
	key := session.Key{AppName: user.AppName, UserID: user.UserID, SessionID: id}
	if err := key.Validate(); err != nil {
		return session.Key{}, err
	}
	return key, nil
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and delete stored sessions",
	}
	cmd.AddCommand(
		newSessionListCmd(),
		newSessionShowCmd(),
		newSessionEventsCmd(),
		newSessionDeleteCmd(),
		newSessionPurgeCmd(),
	)
	return cmd
}

func newSessionListCmd() *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's session IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				user, err := flags.key(p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p.Sessions().ListSessions(ctx, user))
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				key, err := flags.key(p)
				if err != nil {
					return err
				}
				sess := p.Sessions().GetSession(ctx, key)
				if sess == nil {
					return fmt.Errorf("session %q: %w", key.SessionID, errNotFound)
				}
				return printJSON(cmd.OutOrStdout(), sess)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSessionEventsCmd() *cobra.Command {
	var (
		flags sessionFlags
		page  session.Page
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print a page of a session's event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				key, err := flags.key(p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p.Sessions().GetSessionEvents(ctx, key, page))
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&page.Limit, "limit", session.DefaultEventLimit, "Maximum events")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Events to skip")
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a session and its event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				key, err := flags.key(p)
				if err != nil {
					return err
				}
				deleted, err := p.Sessions().DeleteSession(ctx, key)
				if err != nil || deleted {
					recordAudit(ctx, p, audit.ActionDeleteSession, key.User(), key.SessionID, nil, err)
				}
				if err != nil {
					return fmt.Errorf("deleting session: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"deleted": deleted})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newSessionPurgeCmd() *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every session a user has",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				user, err := flags.key(p)
				if err != nil {
					return err
				}
				n, err := p.Sessions().DeleteUserSessions(ctx, user)
				recordAudit(ctx, p, audit.ActionDeleteUserSessions, user, "", map[string]any{"deleted": n}, err)
				if err != nil {
					return fmt.Errorf("purging sessions: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"deleted": n})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// recordAudit logs a command-line change under the system actor.
func recordAudit(ctx context.Context, p *platform.Platform, action audit.Action, user session.UserKey, sessionID string, params map[string]any, err error) {
	logger := p.Audit()
	if logger == nil {
		return
	}
	event := audit.NewEvent(action).
		WithTarget(user.AppName, user.UserID, sessionID).
		WithParameters(params).
		WithResult(err)
	if logErr := logger.Log(ctx, *event); logErr != nil {
		p.Logger().Warn("audit log failed", "action", string(action), "user_id", user.UserID, "error", logErr)
	}
}
