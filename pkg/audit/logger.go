// Package audit records administrative changes to user data: session
// deletions and user-context edits made through the admin API or CLI.
package audit

import (
	"context"
	"time"
)

// Action names an audited change.
type Action string

const (
	// ActionDeleteSession removes one session and its event log.
	ActionDeleteSession Action = "delete_session"

	// ActionDeleteUserSessions removes every session a user has.
	ActionDeleteUserSessions Action = "delete_user_sessions"

	// ActionPatchUserContext merges preferences or stats into a user context.
	ActionPatchUserContext Action = "patch_user_context"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event represents an auditable change.
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Actor        string         `json:"actor"`
	Action       Action         `json:"action"`
	AppName      string         `json:"app_name"`
	UserID       string         `json:"user_id"`
	SessionID    string         `json:"session_id,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Actor     string
	Action    Action
	AppName   string
	UserID    string
	Success   *bool
	Limit     int
	Offset    int
}

// Matches reports whether e satisfies every criterion set on f.
// Limit and Offset are ignored.
func (f QueryFilter) Matches(e Event) bool {
	switch {
	case f.StartTime != nil && e.Timestamp.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	case f.Actor != "" && e.Actor != f.Actor:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.AppName != "" && e.AppName != f.AppName:
		return false
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.Success != nil && e.Success != *f.Success:
		return false
	}
	return true
}

// Config configures audit logging.
type Config struct {
	Enabled         bool          `yaml:"enabled"`
	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}
