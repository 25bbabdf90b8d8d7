// Package admin provides REST API endpoints for inspecting players,
// predictions and conversation sessions.
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/courtline/tennis-agent/pkg/audit"
	"github.com/courtline/tennis-agent/pkg/player"
	"github.com/courtline/tennis-agent/pkg/predictions"
	"github.com/courtline/tennis-agent/pkg/session"
)

// Deps holds the services exposed by the admin API. Nil services leave their
// routes unregistered.
type Deps struct {
	Resolver    *player.Resolver
	Predictions *predictions.Service
	Sessions    *session.Service
	Audit       audit.Logger
}

// Handler provides admin REST API endpoints.
type Handler struct {
	mux        *http.ServeMux
	players    *PlayerHandler
	sessions   *SessionHandler
	audit      *AuditHandler
	authMiddle func(http.Handler) http.Handler
}

// NewHandler creates a new admin API handler.
func NewHandler(deps Deps, authMiddle func(http.Handler) http.Handler) *Handler {
	h := &Handler{
		mux:        http.NewServeMux(),
		authMiddle: authMiddle,
	}
	if deps.Resolver != nil {
		h.players = NewPlayerHandler(deps.Resolver, deps.Predictions)
	}
	if deps.Sessions != nil {
		h.sessions = NewSessionHandler(deps.Sessions, deps.Audit)
	}
	if deps.Audit != nil {
		h.audit = NewAuditHandler(deps.Audit)
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authMiddle != nil {
		h.authMiddle(h.mux).ServeHTTP(w, r)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all admin API routes.
func (h *Handler) registerRoutes() {
	if h.players != nil {
		h.mux.HandleFunc("GET /api/v1/admin/players/resolve", h.players.Resolve)
		if h.players.predictions != nil {
			h.mux.HandleFunc("GET /api/v1/admin/players/{name}/matchups", h.players.Matchups)
			h.mux.HandleFunc("GET /api/v1/admin/players/{name}/form", h.players.Form)
		}
	}
	if h.sessions != nil {
		const user = "/api/v1/admin/apps/{app}/users/{user}"
		h.mux.HandleFunc("GET "+user+"/sessions", h.sessions.List)
		h.mux.HandleFunc("DELETE "+user+"/sessions", h.sessions.DeleteAll)
		h.mux.HandleFunc("GET "+user+"/sessions/{session}", h.sessions.Get)
		h.mux.HandleFunc("DELETE "+user+"/sessions/{session}", h.sessions.Delete)
		h.mux.HandleFunc("GET "+user+"/sessions/{session}/events", h.sessions.Events)
		h.mux.HandleFunc("GET "+user+"/context", h.sessions.GetContext)
		h.mux.HandleFunc("PATCH "+user+"/context", h.sessions.PatchContext)
	}
	if h.audit != nil {
		h.mux.HandleFunc("GET /api/v1/admin/audit", h.audit.List)
	}

	h.mux.Handle("GET /api/v1/admin/docs/", httpSwagger.WrapHandler)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
