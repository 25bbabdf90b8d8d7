// Package conversation records chat turns into the session store.
//
// A turn starts with Begin, which loads (or creates) the user's session and
// hands back the state the reply should be based on. Complete appends the
// user's message and the agent's reply as session events and refreshes the
// user's interaction statistics.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/courtline/tennis-agent/pkg/session"
)

// Event types written by the recorder.
const (
	EventUserMessage   = "user_message"
	EventAgentResponse = "agent_response"
)

// Interaction stat keys maintained in the user context.
const (
	StatLastInteractionAt = "last_interaction_at"
	StatLastSessionID     = "last_session_id"
)

// DefaultAppName is used when Config.AppName is empty.
const DefaultAppName = "agents"

// Turn is one request/reply exchange in progress.
type Turn struct {
	ID    string
	Key   session.Key
	State session.Values
	// New reports whether Begin had to create the session.
	New bool
}

// Config configures a Recorder.
type Config struct {
	AppName string
	Now     func() time.Time
	Logger  *slog.Logger
}

// Recorder writes conversation turns through a session.Service.
type Recorder struct {
	sessions *session.Service
	appName  string
	now      func() time.Time
	logger   *slog.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(sessions *session.Service, cfg Config) *Recorder {
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Recorder{sessions: sessions, appName: cfg.AppName, now: cfg.Now, logger: cfg.Logger}
}

// Begin starts a turn for userID. The session id is the user id, so each
// user has one running conversation per app.
func (r *Recorder) Begin(ctx context.Context, userID string) (*Turn, error) {
	key := session.Key{AppName: r.appName, UserID: userID, SessionID: userID}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	turn := &Turn{ID: uuid.NewString(), Key: key, State: session.Values{}}
	sess := r.sessions.GetSession(ctx, key)
	if sess == nil {
		if err := r.sessions.CreateSession(ctx, key, session.Values{}, session.Values{"source": "conversation"}); err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		turn.New = true
		return turn, nil
	}
	if sess.State != nil {
		turn.State = sess.State.Clone()
	}
	return turn, nil
}

// Complete records the user's text and the reply as the turn's events and
// merges state into the session.
func (r *Recorder) Complete(ctx context.Context, turn *Turn, userText, reply string, state session.Values) error {
	now := r.now()
	ts := now.Format(time.RFC3339Nano)

	upd := session.Update{
		State: state,
		Events: []session.Event{
			session.NewEvent(EventUserMessage, map[string]any{"content": userText, "timestamp": ts, "turn_id": turn.ID}),
			session.NewEvent(EventAgentResponse, map[string]any{"content": reply, "timestamp": ts, "turn_id": turn.ID}),
		},
		AddConversation: true,
	}
	if err := r.sessions.UpdateSession(ctx, turn.Key, upd); err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}

	stats := session.Values{
		StatLastInteractionAt: ts,
		StatLastSessionID:     turn.Key.SessionID,
	}
	if err := r.sessions.UpdateUserContext(ctx, turn.Key.User(), nil, stats); err != nil {
		// The turn itself is stored; stale stats only affect reporting.
		r.logger.Warn("interaction stats not updated", "user", turn.Key.UserID, "turn", turn.ID, "error", err)
	}
	return nil
}
