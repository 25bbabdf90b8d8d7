package session

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory maps. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
	events   map[Key][]StoredEvent
	contexts map[UserKey]*UserContext
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[Key]*Session),
		events:   make(map[Key][]StoredEvent),
		contexts: make(map[UserKey]*UserContext),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts the session or refreshes its activity timestamps.
func (s *MemoryStore) Create(_ context.Context, key Key, state, metadata Values) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.createLocked(key, state, metadata)
	return nil
}

func (s *MemoryStore) createLocked(key Key, state, metadata Values) *Session {
	now := s.now()
	if sess, ok := s.sessions[key]; ok {
		sess.LastActivity = now
		sess.UpdatedAt = now
		return sess
	}

	sess := &Session{
		Key:          key,
		State:        state.Clone(),
		Metadata:     metadata.Clone(),
		Events:       []Event{},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}
	s.sessions[key] = sess

	if _, ok := s.contexts[key.User()]; !ok {
		s.contexts[key.User()] = &UserContext{
			UserKey:          key.User(),
			Preferences:      Values{},
			InteractionStats: Values{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}
	return sess
}

// Get retrieves a session. Returns nil, nil if not found.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return copySession(sess), nil
}

// List returns the user's session ids, most recently active first.
func (s *MemoryStore) List(_ context.Context, user UserKey) ([]string, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*Session
	for key, sess := range s.sessions {
		if key.User() == user {
			owned = append(owned, sess)
		}
	}
	slices.SortStableFunc(owned, func(a, b *Session) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})

	ids := make([]string, 0, len(owned))
	for _, sess := range owned {
		ids = append(ids, sess.SessionID)
	}
	return ids, nil
}

// Update applies upd, creating the session when it does not exist.
func (s *MemoryStore) Update(_ context.Context, key Key, upd Update) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.createLocked(key, nil, nil)
	now := s.now()

	if upd.State != nil {
		sess.State = sess.State.Merge(upd.State)
	}
	if upd.Metadata != nil {
		sess.Metadata = sess.Metadata.Merge(upd.Metadata)
	}
	for _, e := range upd.Events {
		sess.Events = append(sess.Events, copyEvent(e))
		s.nextID++
		s.events[key] = append(s.events[key], StoredEvent{
			ID:        s.nextID,
			Type:      e.Type(),
			Data:      copyEvent(e),
			Timestamp: now,
		})
	}
	if upd.AddConversation {
		sess.ConversationCount++
	}
	sess.TotalEvents += len(upd.Events)
	sess.LastActivity = now
	sess.UpdatedAt = now
	return nil
}

// Delete removes the session and its event rows.
func (s *MemoryStore) Delete(_ context.Context, key Key) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, key)
	if _, ok := s.sessions[key]; !ok {
		return false, nil
	}
	delete(s.sessions, key)
	return true, nil
}

// DeleteUser removes every session of the user.
func (s *MemoryStore) DeleteUser(_ context.Context, user UserKey) (int, error) {
	if err := user.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.sessions {
		if key.User() == user {
			delete(s.sessions, key)
			delete(s.events, key)
			n++
		}
	}
	return n, nil
}

// UserContext retrieves the user's context. Returns nil, nil if not found.
func (s *MemoryStore) UserContext(_ context.Context, user UserKey) (*UserContext, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	uc, ok := s.contexts[user]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	cp := *uc
	cp.Preferences = uc.Preferences.Clone()
	cp.InteractionStats = uc.InteractionStats.Clone()
	return &cp, nil
}

// UpdateUserContext merges preferences and stats, creating the row if absent.
func (s *MemoryStore) UpdateUserContext(_ context.Context, user UserKey, preferences, stats Values) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	uc, ok := s.contexts[user]
	if !ok {
		s.contexts[user] = &UserContext{
			UserKey:          user,
			Preferences:      preferences.Clone(),
			InteractionStats: stats.Clone(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return nil
	}
	uc.Preferences = uc.Preferences.Merge(preferences)
	uc.InteractionStats = uc.InteractionStats.Merge(stats)
	uc.UpdatedAt = now
	return nil
}

// Events returns the session's event rows, newest first.
func (s *MemoryStore) Events(_ context.Context, key Key, page Page) ([]StoredEvent, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.events[key]
	out := make([]StoredEvent, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		e.Data = copyEvent(e.Data)
		out = append(out, e)
	}

	offset := page.EffectiveOffset()
	if offset >= len(out) {
		return []StoredEvent{}, nil
	}
	out = out[offset:]
	if limit := page.EffectiveLimit(); limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Close releases nothing; it exists to satisfy Store.
func (*MemoryStore) Close() error {
	return nil
}

func copySession(sess *Session) *Session {
	cp := *sess
	cp.State = sess.State.Clone()
	cp.Metadata = sess.Metadata.Clone()
	cp.Events = make([]Event, 0, len(sess.Events))
	for _, e := range sess.Events {
		cp.Events = append(cp.Events, copyEvent(e))
	}
	return &cp
}

func copyEvent(e Event) Event {
	return maps.Clone(e)
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
