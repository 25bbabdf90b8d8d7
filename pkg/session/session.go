// Package session provides durable per-user conversation sessions for the
// tennis agent. It defines the Store interface for session persistence, the
// Session, Event and UserContext types, and a Service that applies the
// read-degrades / write-propagates failure policy on top of any Store.
package session

import (
	"context"
	"time"
)

// Key identifies a session.
type Key struct {
	AppName   string
	UserID    string
	SessionID string
}

// User returns the user half of the key.
func (k Key) User() UserKey {
	return UserKey{AppName: k.AppName, UserID: k.UserID}
}

// UserKey identifies a user within an app. UserContext rows and bulk
// deletion are keyed by it.
type UserKey struct {
	AppName string
	UserID  string
}

// Session is a conversation session.
type Session struct {
	Key

	// State is merged shallowly on every update.
	State Values

	// Metadata is merged the same way as State.
	Metadata Values

	// Events is the append-only event list stored on the session row.
	Events []Event

	// ConversationCount counts updates made with AddConversation.
	ConversationCount int

	// TotalEvents counts every event ever appended.
	TotalEvents int

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastActivity time.Time
}

// StoredEvent is one row of the per-session event log.
type StoredEvent struct {
	ID        int64
	Type      string
	Data      Event
	Timestamp time.Time
}

// UserContext holds preferences and interaction statistics that outlive
// individual sessions.
type UserContext struct {
	UserKey

	Preferences      Values
	InteractionStats Values

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update describes the changes applied by Store.Update. Nil fields leave the
// stored value untouched.
type Update struct {
	State           Values
	Events          []Event
	Metadata        Values
	AddConversation bool
}

// Page selects a window of the event log.
type Page struct {
	Limit  int
	Offset int
}

// DefaultEventLimit is used when Page.Limit is not positive.
const DefaultEventLimit = 100

// EffectiveLimit returns the limit to apply.
func (p Page) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultEventLimit
	}
	return p.Limit
}

// EffectiveOffset returns the offset to apply, never negative.
func (p Page) EffectiveOffset() int {
	if p.Offset < 0 {
		return 0
	}
	return p.Offset
}

// Store defines the interface for session persistence. Implementations return
// every failure; Service decides which ones the caller sees.
type Store interface {
	// Create inserts the session, or only refreshes its activity timestamps
	// when it already exists. Existing state and metadata are never replaced.
	// The user's context row is created if missing.
	Create(ctx context.Context, key Key, state, metadata Values) error

	// Get retrieves a session. Returns nil, nil if not found.
	Get(ctx context.Context, key Key) (*Session, error)

	// List returns the user's session ids, most recently active first.
	List(ctx context.Context, user UserKey) ([]string, error)

	// Update merges state and metadata, appends events and bumps counters,
	// creating the session first when it does not exist.
	Update(ctx context.Context, key Key, upd Update) error

	// Delete removes the session and its event rows. Reports whether the
	// session existed.
	Delete(ctx context.Context, key Key) (bool, error)

	// DeleteUser removes every session of the user along with their events and
	// returns the number of sessions removed. The user context is kept.
	DeleteUser(ctx context.Context, user UserKey) (int, error)

	// UserContext retrieves the user's context. Returns nil, nil if not found.
	UserContext(ctx context.Context, user UserKey) (*UserContext, error)

	// UpdateUserContext merges preferences and stats, creating the row if absent.
	UpdateUserContext(ctx context.Context, user UserKey, preferences, stats Values) error

	// Events returns the session's event rows, newest first.
	Events(ctx context.Context, key Key, page Page) ([]StoredEvent, error)

	// Close releases resources held by the store.
	Close() error
}
