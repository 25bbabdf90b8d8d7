package session

import (
	"context"
	"log/slog"
)

// slogKeyError is the slog attribute key for error values.
const slogKeyError = "error"

// Service is the session API used by the conversational layer. Reads degrade
// to absent or empty results when the store fails; writes log and return the
// error so a lost write is never silent.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService wraps store. A nil logger uses slog.Default().
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// CreateSession creates the session or touches it if it already exists.
func (s *Service) CreateSession(ctx context.Context, key Key, initialState, metadata Values) error {
	if err := s.store.Create(ctx, key, initialState, metadata); err != nil {
		s.logWrite("create_session", key, err)
		return err
	}
	return nil
}

// GetSession returns the session, or nil when it is absent or unreadable.
func (s *Service) GetSession(ctx context.Context, key Key) *Session {
	sess, err := s.store.Get(ctx, key)
	if err != nil {
		s.logRead("get_session", key, err)
		return nil
	}
	return sess
}

// ListSessions returns the user's session ids, most recently active first.
func (s *Service) ListSessions(ctx context.Context, user UserKey) []string {
	ids, err := s.store.List(ctx, user)
	if err != nil {
		s.logger.Warn("session read failed", "op", "list_sessions",
			"app", user.AppName, "user", user.UserID, slogKeyError, err)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// UpdateSession applies upd, creating the session if needed.
func (s *Service) UpdateSession(ctx context.Context, key Key, upd Update) error {
	if err := s.store.Update(ctx, key, upd); err != nil {
		s.logWrite("update_session", key, err)
		return err
	}
	return nil
}

// DeleteSession removes the session and reports whether it existed.
func (s *Service) DeleteSession(ctx context.Context, key Key) (bool, error) {
	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		s.logWrite("delete_session", key, err)
		return false, err
	}
	return deleted, nil
}

// DeleteUserSessions removes all of the user's sessions and returns how many
// were removed.
func (s *Service) DeleteUserSessions(ctx context.Context, user UserKey) (int, error) {
	n, err := s.store.DeleteUser(ctx, user)
	if err != nil {
		s.logger.Error("session write failed", "op", "delete_user_sessions",
			"app", user.AppName, "user", user.UserID, slogKeyError, err)
		return 0, err
	}
	return n, nil
}

// GetUserContext returns the user's context, or nil when absent or unreadable.
func (s *Service) GetUserContext(ctx context.Context, user UserKey) *UserContext {
	uc, err := s.store.UserContext(ctx, user)
	if err != nil {
		s.logger.Warn("session read failed", "op", "get_user_context",
			"app", user.AppName, "user", user.UserID, slogKeyError, err)
		return nil
	}
	return uc
}

// UpdateUserContext merges preferences and stats into the user's context.
func (s *Service) UpdateUserContext(ctx context.Context, user UserKey, preferences, stats Values) error {
	if err := s.store.UpdateUserContext(ctx, user, preferences, stats); err != nil {
		s.logger.Error("session write failed", "op", "update_user_context",
			"app", user.AppName, "user", user.UserID, slogKeyError, err)
		return err
	}
	return nil
}

// GetSessionEvents returns a page of the session's events, newest first.
func (s *Service) GetSessionEvents(ctx context.Context, key Key, page Page) []StoredEvent {
	events, err := s.store.Events(ctx, key, page)
	if err != nil {
		s.logRead("get_session_events", key, err)
		return []StoredEvent{}
	}
	if events == nil {
		return []StoredEvent{}
	}
	return events
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) logRead(op string, key Key, err error) {
	s.logger.Warn("session read failed", "op", op,
		"app", key.AppName, "user", key.UserID, "session", key.SessionID, slogKeyError, err)
}

func (s *Service) logWrite(op string, key Key, err error) {
	s.logger.Error("session write failed", "op", op,
		"app", key.AppName, "user", key.UserID, "session", key.SessionID, slogKeyError, err)
}
