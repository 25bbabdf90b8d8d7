package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/courtline/tennis-agent/pkg/audit"
	"github.com/courtline/tennis-agent/pkg/session"
)

const (
	pathParamApp     = "app"
	pathParamUser    = "user"
	pathParamSession = "session"
)

// SessionHandler exposes sessions and user contexts. Mutations are recorded
// to the audit logger when one is set.
type SessionHandler struct {
	sessions *session.Service
	audit    audit.Logger
}

// NewSessionHandler creates a session handler. auditLogger may be nil.
func NewSessionHandler(sessions *session.Service, auditLogger audit.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, audit: auditLogger}
}

// record writes an audit event for a mutation. Audit failures are logged and
// never fail the request.
func (h *SessionHandler) record(ctx context.Context, action audit.Action, user session.UserKey, sessionID string, params map[string]any, err error) {
	if h.audit == nil {
		return
	}
	actor := ""
	if u := GetUser(ctx); u != nil {
		actor = u.Name
	}
	event := audit.NewEvent(action).
		WithActor(actor).
		WithTarget(user.AppName, user.UserID, sessionID).
		WithParameters(params).
		WithResult(err)
	if logErr := h.audit.Log(context.WithoutCancel(ctx), *event); logErr != nil {
		slog.Warn("audit log failed", "action", string(action), "user_id", user.UserID, "error", logErr)
	}
}

type sessionResponse struct {
	AppName           string          `json:"app_name"`
	UserID            string          `json:"user_id"`
	SessionID         string          `json:"session_id"`
	State             session.Values  `json:"state"`
	Metadata          session.Values  `json:"metadata"`
	Events            []session.Event `json:"events"`
	ConversationCount int             `json:"conversation_count"`
	TotalEvents       int             `json:"total_events"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	LastActivity      time.Time       `json:"last_activity"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	events := s.Events
	if events == nil {
		events = []session.Event{}
	}
	return sessionResponse{
		AppName:           s.AppName,
		UserID:            s.UserID,
		SessionID:         s.SessionID,
		State:             s.State.Clone(),
		Metadata:          s.Metadata.Clone(),
		Events:            events,
		ConversationCount: s.ConversationCount,
		TotalEvents:       s.TotalEvents,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		LastActivity:      s.LastActivity,
	}
}

type eventResponse struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Data      session.Event `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

type eventListResponse struct {
	Data   []eventResponse `json:"data"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type userContextResponse struct {
	AppName          string         `json:"app_name"`
	UserID           string         `json:"user_id"`
	Preferences      session.Values `json:"preferences"`
	InteractionStats session.Values `json:"interaction_stats"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// userContextPatch is the body of PATCH /context. Both maps are merged into
// the stored values.
type userContextPatch struct {
	Preferences      session.Values `json:"preferences"`
	InteractionStats session.Values `json:"interaction_stats"`
}

type sessionListResponse struct {
	Data []string `json:"data"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

func userKey(r *http.Request) session.UserKey {
	return session.UserKey{AppName: r.PathValue(pathParamApp), UserID: r.PathValue(pathParamUser)}
}

func sessionKey(r *http.Request) session.Key {
	u := userKey(r)
	return session.Key{AppName: u.AppName, UserID: u.UserID, SessionID: r.PathValue(pathParamSession)}
}

// List handles GET /apps/{app}/users/{user}/sessions.
//
// @Summary      List sessions
// @Description  Returns the user's session IDs, most recently active first.
// @Tags         Sessions
// @Produce      json
// @Param        app   path  string  true  "App name"
// @Param        user  path  string  true  "User ID"
// @Success      200  {object}  sessionListResponse
// @Failure      400  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/sessions [get]
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Data: h.sessions.ListSessions(r.Context(), user)})
}

// DeleteAll handles DELETE /apps/{app}/users/{user}/sessions.
//
// @Summary      Delete all sessions of a user
// @Description  Deletes every session and event of the user. The user context is kept.
// @Tags         Sessions
// @Produce      json
// @Param        app   path  string  true  "App name"
// @Param        user  path  string  true  "User ID"
// @Success      200  {object}  deleteResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/sessions [delete]
func (h *SessionHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.sessions.DeleteUserSessions(r.Context(), user)
	h.record(r.Context(), audit.ActionDeleteUserSessions, user, "", map[string]any{"deleted": n}, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deleting sessions failed")
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}

// Get handles GET /apps/{app}/users/{user}/sessions/{session}.
//
// @Summary      Get a session
// @Tags         Sessions
// @Produce      json
// @Param        app      path  string  true  "App name"
// @Param        user     path  string  true  "User ID"
// @Param        session  path  string  true  "Session ID"
// @Success      200  {object}  sessionResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/sessions/{session} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := h.sessions.GetSession(r.Context(), key)
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// Delete handles DELETE /apps/{app}/users/{user}/sessions/{session}.
//
// @Summary      Delete a session
// @Description  Deletes the session and its event log.
// @Tags         Sessions
// @Produce      json
// @Param        app      path  string  true  "App name"
// @Param        user     path  string  true  "User ID"
// @Param        session  path  string  true  "Session ID"
// @Success      200  {object}  deleteResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/sessions/{session} [delete]
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	deleted, err := h.sessions.DeleteSession(r.Context(), key)
	if err != nil || deleted {
		h.record(r.Context(), audit.ActionDeleteSession, key.User(), key.SessionID, nil, err)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deleting session failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: 1})
}

// Events handles GET /apps/{app}/users/{user}/sessions/{session}/events.
//
// @Summary      List session events
// @Description  Returns a page of the session's event log, newest first.
// @Tags         Sessions
// @Produce      json
// @Param        app      path   string   true   "App name"
// @Param        user     path   string   true   "User ID"
// @Param        session  path   string   true   "Session ID"
// @Param        limit    query  integer  false  "Page size (default: 100)"
// @Param        offset   query  integer  false  "Events to skip"
// @Success      200  {object}  eventListResponse
// @Failure      400  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/sessions/{session}/events [get]
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, okLimit := queryInt(r, "limit", session.DefaultEventLimit)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset {
		writeError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}

	page := session.Page{Limit: limit, Offset: offset}
	rows := h.sessions.GetSessionEvents(r.Context(), key, page)
	out := eventListResponse{
		Data:   make([]eventResponse, 0, len(rows)),
		Limit:  page.EffectiveLimit(),
		Offset: page.EffectiveOffset(),
	}
	for _, e := range rows {
		out.Data = append(out.Data, eventResponse{ID: e.ID, Type: e.Type, Data: e.Data, Timestamp: e.Timestamp})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetContext handles GET /apps/{app}/users/{user}/context.
//
// @Summary      Get a user context
// @Tags         Context
// @Produce      json
// @Param        app   path  string  true  "App name"
// @Param        user  path  string  true  "User ID"
// @Success      200  {object}  userContextResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/context [get]
func (h *SessionHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	uc := h.sessions.GetUserContext(r.Context(), user)
	if uc == nil {
		writeError(w, http.StatusNotFound, "user context not found")
		return
	}
	writeJSON(w, http.StatusOK, newUserContextResponse(uc))
}

// PatchContext handles PATCH /apps/{app}/users/{user}/context.
//
// @Summary      Update a user context
// @Description  Shallow-merges preferences and interaction stats into the stored context, creating it when absent.
// @Tags         Context
// @Accept       json
// @Produce      json
// @Param        app   path  string            true  "App name"
// @Param        user  path  string            true  "User ID"
// @Param        body  body  userContextPatch  true  "Values to merge"
// @Success      200  {object}  userContextResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /apps/{app}/users/{user}/context [patch]
func (h *SessionHandler) PatchContext(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch userContextPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.sessions.UpdateUserContext(r.Context(), user, patch.Preferences, patch.InteractionStats)
	h.record(r.Context(), audit.ActionPatchUserContext, user, "", patchParams(patch), err)
	if err != nil {
		if errors.Is(err, session.ErrInvalidKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "updating user context failed")
		return
	}

	uc := h.sessions.GetUserContext(r.Context(), user)
	if uc == nil {
		writeError(w, http.StatusInternalServerError, "reading user context failed")
		return
	}
	writeJSON(w, http.StatusOK, newUserContextResponse(uc))
}

// patchParams lists the keys a context patch touched. Values are left out of
// the audit trail.
func patchParams(patch userContextPatch) map[string]any {
	params := map[string]any{}
	if len(patch.Preferences) > 0 {
		params["preferences"] = slices.Sorted(maps.Keys(patch.Preferences))
	}
	if len(patch.InteractionStats) > 0 {
		params["interaction_stats"] = slices.Sorted(maps.Keys(patch.InteractionStats))
	}
	return params
}

func newUserContextResponse(uc *session.UserContext) userContextResponse {
	return userContextResponse{
		AppName:          uc.AppName,
		UserID:           uc.UserID,
		Preferences:      uc.Preferences.Clone(),
		InteractionStats: uc.InteractionStats.Clone(),
		CreatedAt:        uc.CreatedAt,
		UpdatedAt:        uc.UpdatedAt,
	}
}
