// Package sqlstore provides PostgreSQL and SQLite storage for sessions,
// their event history and per-user context.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/session"
)

const tracerName = "github.com/courtline/tennis-agent/pkg/session/sqlstore"

// sessionColumns lists columns returned by session SELECT queries.
var sessionColumns = []string{
	"app_name", "user_id", "session_id", "state", "metadata", "events",
	"conversation_count", "total_events", "created_at", "updated_at", "last_activity",
}

var eventColumns = []string{"event_id", "event_type", "event_data", "timestamp"}

var userContextColumns = []string{
	"app_name", "user_id", "user_preferences", "interaction_stats", "created_at", "updated_at",
}

// Store implements session.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
	tracer  trace.Tracer
}

// Config configures the SQL session store.
type Config struct {
	// Now supplies timestamps. Defaults to the current UTC time.
	Now func() time.Time
}

// New creates a new SQL session store. The schema is provisioned by
// pkg/database/migrate.
func New(db *sql.DB, dialect database.Dialect, cfg Config) *Store {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	return &Store{
		db:      db,
		dialect: dialect,
		builder: dialect.Builder(),
		now:     now,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *Store) startSpan(ctx context.Context, op string, user session.UserKey, sessionID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("session.app_name", user.AppName),
		attribute.String("session.user_id", user.UserID),
	}
	if sessionID != "" {
		attrs = append(attrs, attribute.String("session.id", sessionID))
	}
	return s.tracer.Start(ctx, "session."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func keyWhere(key session.Key) sq.Eq {
	return sq.Eq{"app_name": key.AppName, "user_id": key.UserID, "session_id": key.SessionID}
}

func userWhere(user session.UserKey) sq.Eq {
	return sq.Eq{"app_name": user.AppName, "user_id": user.UserID}
}

// Create inserts the session or, when it exists, refreshes its activity
// timestamps and keeps its state and metadata.
func (s *Store) Create(ctx context.Context, key session.Key, state, metadata session.Values) (err error) {
	if err := key.Validate(); err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "Create", key.User(), key.SessionID)
	defer func() { endSpan(span, err) }()

	stateJSON, err := session.MarshalValues(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	metaJSON, err := session.MarshalValues(metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	now := s.now()
	query, args, err := s.builder.
		Insert("agent_sessions").
		Columns("app_name", "user_id", "session_id", "state", "metadata", "events",
			"conversation_count", "total_events", "created_at", "updated_at", "last_activity").
		Values(key.AppName, key.UserID, key.SessionID, string(stateJSON), string(metaJSON), "[]",
			0, 0, now, now, now).
		Suffix(`ON CONFLICT (app_name, user_id, session_id) DO UPDATE SET
			state = COALESCE(agent_sessions.state, '{}'),
			metadata = COALESCE(agent_sessions.metadata, '{}'),
			updated_at = ?,
			last_activity = ?`, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("building session insert: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		return s.ensureUserContext(ctx, tx, key.User(), now)
	})
}

// Get retrieves a session. Returns nil, nil if not found.
func (s *Store) Get(ctx context.Context, key session.Key) (sess *session.Session, err error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "Get", key.User(), key.SessionID)
	defer func() { endSpan(span, err) }()

	query, args, err := s.builder.Select(sessionColumns...).From("agent_sessions").Where(keyWhere(key)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session query: %w", err)
	}

	return scanSession(s.db.QueryRowContext(ctx, query, args...))
}

// List returns the user's session ids, most recently active first.
func (s *Store) List(ctx context.Context, user session.UserKey) (ids []string, err error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "List", user, "")
	defer func() { endSpan(span, err) }()

	query, args, err := s.builder.
		Select("session_id").
		From("agent_sessions").
		Where(userWhere(user)).
		OrderBy("last_activity DESC", "session_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}
	return ids, nil
}

// Update applies u to the session, creating it first when absent. The row
// update and the event rows are written in one transaction.
func (s *Store) Update(ctx context.Context, key session.Key, u session.Update) (err error) {
	if err := key.Validate(); err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "Update", key.User(), key.SessionID)
	span.SetAttributes(attribute.Int("session.event_count", len(u.Events)))
	defer func() { endSpan(span, err) }()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if err := s.ensureSession(ctx, tx, key, now); err != nil {
			return err
		}

		current, err := s.lockSession(ctx, tx, key)
		if err != nil {
			return err
		}

		state := current.State.Merge(u.State)
		metadata := current.Metadata.Merge(u.Metadata)
		events := append(current.Events, u.Events...)
		conversations := current.ConversationCount
		if u.AddConversation {
			conversations++
		}

		stateJSON, err := session.MarshalValues(state)
		if err != nil {
			return fmt.Errorf("marshaling state: %w", err)
		}
		metaJSON, err := session.MarshalValues(metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}
		eventsJSON, err := session.MarshalEvents(events)
		if err != nil {
			return fmt.Errorf("marshaling events: %w", err)
		}

		query, args, err := s.builder.
			Update("agent_sessions").
			SetMap(map[string]any{
				"state":              string(stateJSON),
				"metadata":           string(metaJSON),
				"events":             string(eventsJSON),
				"conversation_count": conversations,
				"total_events":       current.TotalEvents + len(u.Events),
				"updated_at":         now,
				"last_activity":      now,
			}).
			Where(keyWhere(key)).
			ToSql()
		if err != nil {
			return fmt.Errorf("building session update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating session: %w", err)
		}

		return s.insertEvents(ctx, tx, key, u.Events, now)
	})
}

// ensureSession inserts an empty session row when none exists. A new row also
// gets its user context.
func (s *Store) ensureSession(ctx context.Context, tx *sql.Tx, key session.Key, now time.Time) error {
	query, args, err := s.builder.
		Insert("agent_sessions").
		Columns("app_name", "user_id", "session_id", "state", "metadata", "events",
			"conversation_count", "total_events", "created_at", "updated_at", "last_activity").
		Values(key.AppName, key.UserID, key.SessionID, "{}", "{}", "[]", 0, 0, now, now, now).
		Suffix("ON CONFLICT (app_name, user_id, session_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building session insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return s.ensureUserContext(ctx, tx, key.User(), now)
	}
	return nil
}

func (s *Store) lockSession(ctx context.Context, tx *sql.Tx, key session.Key) (*session.Session, error) {
	qb := s.builder.Select(sessionColumns...).From("agent_sessions").Where(keyWhere(key))
	if suffix := s.dialect.LockSuffix(); suffix != "" {
		qb = qb.Suffix(suffix)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session lock query: %w", err)
	}

	sess, err := scanSession(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("locking session %s: %w", key.SessionID, sql.ErrNoRows)
	}
	return sess, nil
}

func (s *Store) insertEvents(ctx context.Context, tx *sql.Tx, key session.Key, events []session.Event, now time.Time) error {
	for _, event := range events {
		payload, err := session.MarshalEvent(event)
		if err != nil {
			return fmt.Errorf("marshaling event: %w", err)
		}

		query, args, err := s.builder.
			Insert("session_events").
			Columns("app_name", "user_id", "session_id", "event_type", "event_data", "timestamp").
			Values(key.AppName, key.UserID, key.SessionID, event.Type(), string(payload), now).
			ToSql()
		if err != nil {
			return fmt.Errorf("building event insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting session event: %w", err)
		}
	}
	return nil
}

// Delete removes the session and its event rows.
func (s *Store) Delete(ctx context.Context, key session.Key) (deleted bool, err error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	ctx, span := s.startSpan(ctx, "Delete", key.User(), key.SessionID)
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := s.deleteWhere(ctx, tx, keyWhere(key))
		deleted = n > 0
		return err
	})
	return deleted, err
}

// DeleteUser removes every session of the user and returns how many session
// rows were removed. The user's context is kept.
func (s *Store) DeleteUser(ctx context.Context, user session.UserKey) (count int, err error) {
	if err := user.Validate(); err != nil {
		return 0, err
	}
	ctx, span := s.startSpan(ctx, "DeleteUser", user, "")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := s.deleteWhere(ctx, tx, userWhere(user))
		count = int(n)
		return err
	})
	return count, err
}

func (s *Store) deleteWhere(ctx context.Context, tx *sql.Tx, where sq.Eq) (int64, error) {
	query, args, err := s.builder.Delete("session_events").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building event delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("deleting session events: %w", err)
	}

	query, args, err = s.builder.Delete("agent_sessions").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building session delete: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return n, nil
}

// UserContext retrieves the user's context. Returns nil, nil if not found.
func (s *Store) UserContext(ctx context.Context, user session.UserKey) (uc *session.UserContext, err error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "UserContext", user, "")
	defer func() { endSpan(span, err) }()

	query, args, err := s.builder.Select(userContextColumns...).From("user_context").Where(userWhere(user)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user context query: %w", err)
	}

	return scanUserContext(s.db.QueryRowContext(ctx, query, args...))
}

// UpdateUserContext merges preferences and stats into the user's context,
// creating it when absent.
func (s *Store) UpdateUserContext(ctx context.Context, user session.UserKey, preferences, stats session.Values) (err error) {
	if err := user.Validate(); err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "UpdateUserContext", user, "")
	defer func() { endSpan(span, err) }()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if err := s.ensureUserContext(ctx, tx, user, now); err != nil {
			return err
		}

		qb := s.builder.Select(userContextColumns...).From("user_context").Where(userWhere(user))
		if suffix := s.dialect.LockSuffix(); suffix != "" {
			qb = qb.Suffix(suffix)
		}
		query, args, err := qb.ToSql()
		if err != nil {
			return fmt.Errorf("building user context lock query: %w", err)
		}
		current, err := scanUserContext(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("locking user context: %w", sql.ErrNoRows)
		}

		prefsJSON, err := session.MarshalValues(current.Preferences.Merge(preferences))
		if err != nil {
			return fmt.Errorf("marshaling preferences: %w", err)
		}
		statsJSON, err := session.MarshalValues(current.InteractionStats.Merge(stats))
		if err != nil {
			return fmt.Errorf("marshaling interaction stats: %w", err)
		}

		query, args, err = s.builder.
			Update("user_context").
			Set("user_preferences", string(prefsJSON)).
			Set("interaction_stats", string(statsJSON)).
			Set("updated_at", now).
			Where(userWhere(user)).
			ToSql()
		if err != nil {
			return fmt.Errorf("building user context update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating user context: %w", err)
		}
		return nil
	})
}

func (s *Store) ensureUserContext(ctx context.Context, tx *sql.Tx, user session.UserKey, now time.Time) error {
	query, args, err := s.builder.
		Insert("user_context").
		Columns("app_name", "user_id", "user_preferences", "interaction_stats", "created_at", "updated_at").
		Values(user.AppName, user.UserID, "{}", "{}", now, now).
		Suffix("ON CONFLICT (app_name, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building user context insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting user context: %w", err)
	}
	return nil
}

// Events returns the session's event rows, newest first.
func (s *Store) Events(ctx context.Context, key session.Key, page session.Page) (events []session.StoredEvent, err error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "Events", key.User(), key.SessionID)
	defer func() { endSpan(span, err) }()

	query, args, err := s.builder.
		Select(eventColumns...).
		From("session_events").
		Where(keyWhere(key)).
		OrderBy("timestamp DESC", "event_id DESC").
		Limit(uint64(page.EffectiveLimit())).   //nolint:gosec // limit is positive
		Offset(uint64(page.EffectiveOffset())). //nolint:gosec // offset is non-negative
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building events query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events = make([]session.StoredEvent, 0, page.EffectiveLimit())
	for rows.Next() {
		var (
			ev   session.StoredEvent
			data []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &data, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		if ev.Data, err = session.UnmarshalEvent(data); err != nil {
			return nil, fmt.Errorf("decoding session event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session event rows: %w", err)
	}
	return events, nil
}

// Close is a no-op; the database handle belongs to the caller.
func (*Store) Close() error {
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func scanSession(row *sql.Row) (*session.Session, error) {
	var (
		sess                   session.Session
		state, meta, eventsRaw []byte
	)
	err := row.Scan(
		&sess.AppName, &sess.UserID, &sess.SessionID,
		&state, &meta, &eventsRaw,
		&sess.ConversationCount, &sess.TotalEvents,
		&sess.CreatedAt, &sess.UpdatedAt, &sess.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if sess.State, err = session.UnmarshalValues(state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if sess.Metadata, err = session.UnmarshalValues(meta); err != nil {
		return nil, fmt.Errorf("decoding session metadata: %w", err)
	}
	if sess.Events, err = session.UnmarshalEvents(eventsRaw); err != nil {
		return nil, fmt.Errorf("decoding session events: %w", err)
	}
	return &sess, nil
}

func scanUserContext(row *sql.Row) (*session.UserContext, error) {
	var (
		uc           session.UserContext
		prefs, stats []byte
	)
	err := row.Scan(&uc.AppName, &uc.UserID, &prefs, &stats, &uc.CreatedAt, &uc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user context: %w", err)
	}

	if uc.Preferences, err = session.UnmarshalValues(prefs); err != nil {
		return nil, fmt.Errorf("decoding user preferences: %w", err)
	}
	if uc.InteractionStats, err = session.UnmarshalValues(stats); err != nil {
		return nil, fmt.Errorf("decoding interaction stats: %w", err)
	}
	return &uc, nil
}

// Verify interface compliance.
var _ session.Store = (*Store)(nil)
