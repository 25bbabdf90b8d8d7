package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stateNameStarting = "starting"
	stateNameReady    = "ready"
	stateNameDraining = "draining"
	goroutineCount    = 100
)

func TestStateTransitions(t *testing.T) {
	hc := NewChecker()
	assert.Equal(t, stateNameStarting, hc.State())
	assert.False(t, hc.IsReady())

	hc.SetReady()
	assert.Equal(t, stateNameReady, hc.State())
	assert.True(t, hc.IsReady())

	hc.SetDraining()
	assert.Equal(t, stateNameDraining, hc.State())
	assert.False(t, hc.IsReady())

	hc.SetReady()
	assert.Equal(t, stateNameReady, hc.State())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var resp healthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	hc := NewChecker()
	hc.AddProbe("database", func(context.Context) error { return errors.New("down") })

	for _, setup := range []func(){func() {}, hc.SetReady, hc.SetDraining} {
		setup()
		w := httptest.NewRecorder()
		hc.LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "ok", decode(t, w).Status)
	}
}

func TestReadinessHandler_StatusCodes(t *testing.T) {
	hc := NewChecker()

	tests := []struct {
		name       string
		setup      func()
		wantCode   int
		wantStatus string
	}{
		{stateNameStarting, func() { hc.state.Store(stateStarting) }, http.StatusServiceUnavailable, stateNameStarting},
		{stateNameReady, hc.SetReady, http.StatusOK, stateNameReady},
		{stateNameDraining, hc.SetDraining, http.StatusServiceUnavailable, stateNameDraining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			w := httptest.NewRecorder()
			hc.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantStatus, decode(t, w).Status)
		})
	}
}

func TestReadinessHandler_Probes(t *testing.T) {
	hc := NewChecker()
	hc.SetReady()

	var dbErr error
	hc.AddProbe("database", func(context.Context) error { return dbErr })
	hc.AddProbe("cache", func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	hc.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	dbErr = errors.New("connection refused")
	w = httptest.NewRecorder()
	hc.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, map[string]string{"database": "connection refused"}, resp.Checks)
}

func TestCheck_ProbeTimeout(t *testing.T) {
	hc := NewChecker()
	hc.timeout = 10 * time.Millisecond
	hc.AddProbe("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	failures := hc.Check(context.Background())
	assert.Equal(t, context.DeadlineExceeded.Error(), failures["slow"])
}

func TestConcurrentAccess(t *testing.T) {
	hc := NewChecker()

	var wg sync.WaitGroup
	wg.Add(goroutineCount * 3)
	for range goroutineCount {
		go func() {
			defer wg.Done()
			hc.SetReady()
		}()
		go func() {
			defer wg.Done()
			hc.SetDraining()
			hc.AddProbe("p", func(context.Context) error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = hc.IsReady()
			_ = hc.Check(context.Background())
		}()
	}
	wg.Wait()

	assert.Contains(t, []string{stateNameStarting, stateNameReady, stateNameDraining}, hc.State())
}
