package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/tennis-agent/pkg/audit"
	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/database/migrate"
)

const (
	testFilterLimit  = 10
	testFilterOffset = 5
	testCountResult  = 42
)

var testTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestEvent() audit.Event {
	return audit.Event{
		ID:         "evt-123",
		Timestamp:  testTime,
		Actor:      "ops-key",
		Action:     audit.ActionDeleteSession,
		AppName:    "agents",
		UserID:     "42",
		SessionID:  "42",
		Parameters: map[string]any{"reason": "user request"},
		Success:    true,
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, database.Postgres, Config{
		RetentionDays: 30,
		Now:           func() time.Time { return testTime },
	}), mock
}

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	t.Run("custom retention", func(t *testing.T) {
		store := New(db, database.Postgres, Config{RetentionDays: 30})
		assert.Equal(t, 30, store.retentionDays)
		assert.Equal(t, db, store.db)
		assert.NotNil(t, store.now)
	})

	t.Run("default retention when zero", func(t *testing.T) {
		store := New(db, database.SQLite, Config{})
		assert.Equal(t, defaultRetentionDays, store.retentionDays)
	})
}

func TestLog_Success(t *testing.T) {
	store, mock := newMockStore(t)
	event := newTestEvent()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_audit_logs (id,timestamp,actor,action,app_name,user_id,session_id,parameters,success,error_message) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)")).
		WithArgs(
			event.ID,
			event.Timestamp,
			event.Actor,
			string(event.Action),
			event.AppName,
			event.UserID,
			event.SessionID,
			[]byte(`{"reason":"user request"}`),
			event.Success,
			event.ErrorMessage,
		).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_NilParameters(t *testing.T) {
	store, mock := newMockStore(t)
	event := newTestEvent()
	event.Parameters = nil

	mock.ExpectExec("INSERT INTO admin_audit_logs").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), []byte("{}"),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Log(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_DBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO admin_audit_logs").WillReturnError(errors.New("connection refused"))

	err := store.Log(context.Background(), newTestEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting audit log")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func testEventRows(mock sqlmock.Sqlmock, query string, events ...audit.Event) {
	rows := sqlmock.NewRows(auditColumns)
	for _, e := range events {
		rows.AddRow(e.ID, e.Timestamp, e.Actor, string(e.Action), e.AppName, e.UserID,
			e.SessionID, []byte(`{"reason":"user request"}`), e.Success, e.ErrorMessage)
	}
	mock.ExpectQuery(query).WillReturnRows(rows)
}

func TestQuery_NoFilter(t *testing.T) {
	store, mock := newMockStore(t)
	event := newTestEvent()

	testEventRows(mock, regexp.QuoteMeta("FROM admin_audit_logs ORDER BY timestamp DESC"), event)

	results, err := store.Query(context.Background(), audit.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, event, results[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_AllFilters(t *testing.T) {
	store, mock := newMockStore(t)
	start := testTime.Add(-time.Hour)
	end := testTime.Add(time.Hour)
	success := true

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE timestamp >= $1 AND timestamp <= $2 AND actor = $3 AND action = $4 AND app_name = $5 AND user_id = $6 AND success = $7 ORDER BY timestamp DESC LIMIT 10 OFFSET 5",
	)).
		WithArgs(start, end, "ops-key", "delete_session", "agents", "42", true).
		WillReturnRows(sqlmock.NewRows(auditColumns))

	results, err := store.Query(context.Background(), audit.QueryFilter{
		StartTime: &start,
		EndTime:   &end,
		Actor:     "ops-key",
		Action:    audit.ActionDeleteSession,
		AppName:   "agents",
		UserID:    "42",
		Success:   &success,
		Limit:     testFilterLimit,
		Offset:    testFilterOffset,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_DBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("query failed"))

	_, err := store.Query(context.Background(), audit.QueryFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying audit logs")
}

func TestQuery_ScanError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("only-one"))

	_, err := store.Query(context.Background(), audit.QueryFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning audit log row")
}

func TestCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admin_audit_logs WHERE user_id = $1")).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(testCountResult))

	n, err := store.Count(context.Background(), audit.QueryFilter{UserID: "42"})
	require.NoError(t, err)
	assert.Equal(t, testCountResult, n)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("count failed"))
	_, err = store.Count(context.Background(), audit.QueryFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting audit logs")
}

func TestCleanup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM admin_audit_logs WHERE timestamp < $1")).
			WithArgs(testTime.AddDate(0, 0, -30)).
			WillReturnResult(sqlmock.NewResult(0, 5))

		require.NoError(t, store.Cleanup(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM admin_audit_logs").WillReturnError(errors.New("cleanup failed"))

		err := store.Cleanup(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cleaning up audit logs")
	})
}

func TestClose_NilCancel_NoPanic(t *testing.T) {
	store, _ := newMockStore(t)
	assert.NoError(t, store.Close())
}

func TestStartCleanupRoutine(t *testing.T) {
	store, mock := newMockStore(t)

	mock.MatchExpectationsInOrder(false)
	for range 10 {
		mock.ExpectExec("DELETE FROM admin_audit_logs").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	store.StartCleanupRoutine(10 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "second close is a no-op")
}

func TestStore_SQLite(t *testing.T) {
	db, dialect, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "audit.db"),
	})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, migrate.Run(db, dialect))

	store := New(db, dialect, Config{RetentionDays: 30, Now: func() time.Time { return testTime }})
	ctx := context.Background()

	old := newTestEvent()
	old.ID = "old"
	old.Timestamp = testTime.AddDate(0, 0, -60)

	failed := newTestEvent()
	failed.ID = "failed"
	failed.Action = audit.ActionDeleteUserSessions
	failed.SessionID = ""
	failed.Parameters = nil
	failed.Success = false
	failed.ErrorMessage = "boom"

	for _, e := range []audit.Event{old, newTestEvent(), failed} {
		require.NoError(t, store.Log(ctx, e))
	}

	all, err := store.Query(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "old", all[2].ID)

	success := false
	got, err := store.Query(ctx, audit.QueryFilter{Success: &success})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "failed", got[0].ID)
	assert.Equal(t, audit.ActionDeleteUserSessions, got[0].Action)
	assert.Equal(t, "boom", got[0].ErrorMessage)
	assert.Nil(t, got[0].Parameters)

	got, err = store.Query(ctx, audit.QueryFilter{Action: audit.ActionDeleteSession, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "evt-123", got[0].ID)
	assert.Equal(t, map[string]any{"reason": "user request"}, got[0].Parameters)
	assert.True(t, got[0].Timestamp.Equal(testTime))

	require.NoError(t, store.Cleanup(ctx))
	n, err := store.Count(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
