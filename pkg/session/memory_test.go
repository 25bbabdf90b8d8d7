package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memTestApp        = "agents"
	memTestUser       = "user-42"
	memTestSess1      = "sess-1"
	memTestSess2      = "sess-2"
	memTestGoroutines = 10
	memTestIterations = 20
)

var memTestKey = Key{AppName: memTestApp, UserID: memTestUser, SessionID: memTestSess1}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	s.now = steppingClock()
	return s
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, memTestKey, Values{"lang": "en"}, Values{"source": "telegram"}))

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, memTestKey, got.Key)
	assert.Equal(t, Values{"lang": "en"}, got.State)
	assert.Equal(t, Values{"source": "telegram"}, got.Metadata)
	assert.Empty(t, got.Events)
	assert.Zero(t, got.ConversationCount)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := newTestMemoryStore()

	got, err := store.Get(context.Background(), memTestKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_CreateIsATouch(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, memTestKey, Values{"v": "first"}, nil))
	first, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, memTestKey, Values{"v": "second"}, Values{"m": 1}))
	second, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)

	assert.Equal(t, Values{"v": "first"}, second.State)
	assert.Equal(t, Values{}, second.Metadata)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.LastActivity.After(first.LastActivity))
}

func TestMemoryStore_CreateInitializesUserContext(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.UpdateUserContext(ctx, memTestKey.User(), Values{"odds": "decimal"}, nil))
	require.NoError(t, store.Create(ctx, memTestKey, nil, nil))

	uc, err := store.UserContext(ctx, memTestKey.User())
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, Values{"odds": "decimal"}, uc.Preferences, "existing context must not be overwritten")
}

func TestMemoryStore_UpdateMergesState(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, memTestKey, Update{State: Values{"a": 1}}))
	require.NoError(t, store.Update(ctx, memTestKey, Update{State: Values{"b": 2}, Metadata: Values{"m": "x"}}))
	require.NoError(t, store.Update(ctx, memTestKey, Update{State: Values{"a": 3}}))

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	assert.Equal(t, Values{"a": 3, "b": 2}, got.State)
	assert.Equal(t, Values{"m": "x"}, got.Metadata)
}

func TestMemoryStore_UpdateCreatesMissingSession(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	err := store.Update(ctx, memTestKey, Update{
		State:           Values{"x": 1},
		Events:          []Event{NewEvent("user_message", map[string]any{"content": "hi"})},
		AddConversation: true,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Values{"x": 1}, got.State)
	assert.Equal(t, 1, got.ConversationCount)
	assert.Equal(t, 1, got.TotalEvents)
	assert.Len(t, got.Events, 1)

	uc, err := store.UserContext(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.NotNil(t, uc)
}

func TestMemoryStore_EventAccumulation(t *testing.T) {
	const calls, perCall = 4, 3

	store := newTestMemoryStore()
	ctx := context.Background()

	for i := range calls {
		events := make([]Event, 0, perCall)
		for j := range perCall {
			events = append(events, NewEvent("user_message", map[string]any{"n": i*perCall + j}))
		}
		require.NoError(t, store.Update(ctx, memTestKey, Update{Events: events, AddConversation: true}))
	}

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	assert.Equal(t, calls*perCall, got.TotalEvents)
	assert.Len(t, got.Events, calls*perCall)
	assert.Equal(t, calls, got.ConversationCount)

	rows, err := store.Events(ctx, memTestKey, Page{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, rows, calls*perCall)
	assert.Equal(t, calls*perCall-1, rows[0].Data["n"], "newest first")
}

func TestMemoryStore_EventTypeDefaultsToUnknown(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, memTestKey, Update{Events: []Event{{"content": "no type"}}}))

	rows, err := store.Events(ctx, memTestKey, Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, UnknownEventType, rows[0].Type)
}

func TestMemoryStore_EventsPagination(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Update(ctx, memTestKey, Update{Events: []Event{NewEvent("tick", map[string]any{"i": i})}}))
	}

	page, err := store.Events(ctx, memTestKey, Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3, page[0].Data["i"])
	assert.Equal(t, 2, page[1].Data["i"])

	past, err := store.Events(ctx, memTestKey, Page{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryStore_ListOrdersByLastActivity(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	k2 := memTestKey
	k2.SessionID = memTestSess2
	other := Key{AppName: memTestApp, UserID: "someone-else", SessionID: "sess-x"}

	require.NoError(t, store.Create(ctx, memTestKey, nil, nil))
	require.NoError(t, store.Create(ctx, k2, nil, nil))
	require.NoError(t, store.Create(ctx, other, nil, nil))

	ids, err := store.List(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.Equal(t, []string{memTestSess2, memTestSess1}, ids)

	require.NoError(t, store.Update(ctx, memTestKey, Update{}))
	ids, err = store.List(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.Equal(t, []string{memTestSess1, memTestSess2}, ids)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, memTestKey, Update{Events: []Event{NewEvent("e", nil)}}))

	deleted, err := store.Delete(ctx, memTestKey)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	assert.Nil(t, got)

	rows, err := store.Events(ctx, memTestKey, Page{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	deleted, err = store.Delete(ctx, memTestKey)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryStore_DeleteUserKeepsContext(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	k2 := memTestKey
	k2.SessionID = memTestSess2
	require.NoError(t, store.Create(ctx, memTestKey, nil, nil))
	require.NoError(t, store.Create(ctx, k2, nil, nil))

	n, err := store.DeleteUser(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := store.List(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.Empty(t, ids)

	uc, err := store.UserContext(ctx, memTestKey.User())
	require.NoError(t, err)
	assert.NotNil(t, uc)
}

func TestMemoryStore_UpdateUserContext(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()
	user := memTestKey.User()

	require.NoError(t, store.UpdateUserContext(ctx, user, Values{"tz": "UTC"}, Values{"turns": 1}))
	require.NoError(t, store.UpdateUserContext(ctx, user, Values{"lang": "en"}, nil))

	uc, err := store.UserContext(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, Values{"tz": "UTC", "lang": "en"}, uc.Preferences)
	assert.Equal(t, Values{"turns": 1}, uc.InteractionStats)
}

func TestMemoryStore_InvalidKey(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	err := store.Create(ctx, Key{AppName: memTestApp, UserID: " ", SessionID: memTestSess1}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.List(ctx, UserKey{UserID: memTestUser})
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryStore_ReturnedSessionIsACopy(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, memTestKey, Values{"a": 1}, nil))
	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	got.State["a"] = 99

	again, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	assert.Equal(t, 1, again.State["a"])
}

func TestMemoryStore_ConcurrentUpdatesKeepAllEvents(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := range memTestGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range memTestIterations {
				e := NewEvent("tick", map[string]any{"id": fmt.Sprintf("%d-%d", g, i)})
				_ = store.Update(ctx, memTestKey, Update{Events: []Event{e}})
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, memTestKey)
	require.NoError(t, err)
	assert.Equal(t, memTestGoroutines*memTestIterations, got.TotalEvents)
	assert.Len(t, got.Events, memTestGoroutines*memTestIterations)
}
