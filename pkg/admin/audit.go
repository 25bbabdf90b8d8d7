package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courtline/tennis-agent/pkg/audit"
)

const defaultAuditLimit = 50

// AuditHandler lists recorded admin changes.
type AuditHandler struct {
	logger audit.Logger
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(logger audit.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

type auditListResponse struct {
	Data   []audit.Event `json:"data"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List handles GET /audit. Supported filters: actor, action, app, user,
// success, since and until (RFC 3339), limit and offset.
//
// @Summary      List audit events
// @Description  Returns recorded admin changes, newest first.
// @Tags         Audit
// @Produce      json
// @Param        actor    query  string   false  "API key name, or system"
// @Param        action   query  string   false  "delete_session, delete_user_sessions or patch_user_context"
// @Param        app      query  string   false  "App name"
// @Param        user     query  string   false  "User ID"
// @Param        success  query  boolean  false  "Filter by outcome"
// @Param        since    query  string   false  "Events at or after this time (RFC 3339)"
// @Param        until    query  string   false  "Events at or before this time (RFC 3339)"
// @Param        limit    query  integer  false  "Page size (default: 50)"
// @Param        offset   query  integer  false  "Events to skip"
// @Success      200  {object}  auditListResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseAuditFilter(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid audit filter")
		return
	}

	events, err := h.logger.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying audit log failed")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, auditListResponse{Data: events, Limit: filter.Limit, Offset: filter.Offset})
}

func parseAuditFilter(r *http.Request) (audit.QueryFilter, bool) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Actor:   q.Get("actor"),
		Action:  audit.Action(q.Get("action")),
		AppName: q.Get("app"),
		UserID:  q.Get("user"),
	}

	var ok bool
	if filter.Limit, ok = queryInt(r, "limit", defaultAuditLimit); !ok {
		return filter, false
	}
	if filter.Offset, ok = queryInt(r, "offset", 0); !ok {
		return filter, false
	}
	if raw := q.Get("success"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, false
		}
		filter.Success = &b
	}
	for name, dst := range map[string]**time.Time{"since": &filter.StartTime, "until": &filter.EndTime} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, false
		}
		*dst = &ts
	}
	return filter, true
}
