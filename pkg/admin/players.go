package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/courtline/tennis-agent/pkg/player"
	"github.com/courtline/tennis-agent/pkg/predictions"
)

// PlayerHandler serves player resolution and prediction lookups.
type PlayerHandler struct {
	resolver    *player.Resolver
	predictions *predictions.Service
}

// NewPlayerHandler creates a player handler. predictions may be nil.
func NewPlayerHandler(resolver *player.Resolver, preds *predictions.Service) *PlayerHandler {
	return &PlayerHandler{resolver: resolver, predictions: preds}
}

// resolveResponse is the body of GET /players/resolve.
type resolveResponse struct {
	Resolution player.Resolution `json:"resolution"`
	Matches    []player.Match    `json:"matches"`
}

// Resolve handles GET /api/v1/admin/players/resolve?q=&limit=.
//
// @Summary      Resolve a player name
// @Description  Resolves a free-text name to a canonical player, or lists the candidates when it is ambiguous.
// @Tags         Players
// @Produce      json
// @Param        q      query  string   true   "Name as typed by the user"
// @Param        limit  query  integer  false  "Maximum matches (default: players.default_max_results)"
// @Success      200  {object}  resolveResponse
// @Failure      400  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /players/resolve [get]
func (h *PlayerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, ok := queryInt(r, "limit", h.resolver.DefaultMaxResults())
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Resolution: h.resolver.Resolve(r.Context(), q),
		Matches:    h.resolver.FindPlayers(r.Context(), q, limit),
	})
}

// Matchups handles GET /api/v1/admin/players/{name}/matchups?limit=.
//
// @Summary      List a player's predictions
// @Description  Resolves name and returns the most recent predictions involving the player. Ambiguous names return the candidates and no predictions.
// @Tags         Players
// @Produce      json
// @Param        name   path   string   true   "Player name"
// @Param        limit  query  integer  false  "Maximum predictions (default: 20)"
// @Success      200  {object}  predictions.MatchupsResult
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  predictions.MatchupsResult
// @Failure      500  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /players/{name}/matchups [get]
func (h *PlayerHandler) Matchups(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", predictions.DefaultMatchupLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	res, err := h.predictions.Matchups(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, resolutionStatus(res.Resolution), res)
}

// Form handles GET /api/v1/admin/players/{name}/form?matches=.
//
// @Summary      Get a player's form
// @Description  Resolves name and computes win rate and prediction accuracy over the player's recent predictions.
// @Tags         Players
// @Produce      json
// @Param        name     path   string   true   "Player name"
// @Param        matches  query  integer  false  "Predictions to analyze (default: 10)"
// @Success      200  {object}  predictions.FormResult
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  predictions.FormResult
// @Failure      500  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /players/{name}/form [get]
func (h *PlayerHandler) Form(w http.ResponseWriter, r *http.Request) {
	matches, ok := queryInt(r, "matches", predictions.DefaultMatchesBack)
	if !ok {
		writeError(w, http.StatusBadRequest, "matches must be a non-negative integer")
		return
	}
	res, err := h.predictions.Form(r.Context(), r.PathValue("name"), matches)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, resolutionStatus(res.Resolution), res)
}

// resolutionStatus maps an unresolved input to 404; ambiguous input is a
// normal answer listing the candidates.
func resolutionStatus(res player.Resolution) int {
	if res.Status == player.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, predictions.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "prediction lookup failed")
}
