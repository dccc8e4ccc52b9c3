package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/wishlist-watcher/internal/api/middleware"
	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

// SettingsHandler manages per-streamer notification preferences and tiers.
type SettingsHandler struct {
	recipients repository.RecipientRepository
	streamers  repository.StreamerRepository
	logger     *zap.Logger
}

func NewSettingsHandler(
	recipients repository.RecipientRepository,
	streamers repository.StreamerRepository,
	logger *zap.Logger,
) *SettingsHandler {
	return &SettingsHandler{recipients: recipients, streamers: streamers, logger: logger}
}

type userSettingsResponse struct {
	domain.UserSettings
	Default bool `json:"default"`
}

type groupSettingsResponse struct {
	domain.GroupSettings
	Default bool `json:"default"`
}

// GetUser handles GET /api/v1/users/{userID}/streamers/{streamerID}/settings
// A user without a record gets the defaults, flagged as such.
func (h *SettingsHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	s, err := h.recipients.GetUserSettings(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "streamerID"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusOK, userSettingsResponse{UserSettings: domain.DefaultUserSettings(), Default: true})
	case err != nil:
		h.fail(w, r, "get user settings", err)
	default:
		respondJSON(w, http.StatusOK, userSettingsResponse{UserSettings: s})
	}
}

// PutUser handles PUT /api/v1/users/{userID}/streamers/{streamerID}/settings
func (h *SettingsHandler) PutUser(w http.ResponseWriter, r *http.Request) {
	var s domain.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.recipients.SetUserSettings(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "streamerID"), s); err != nil {
		h.fail(w, r, "set user settings", err)
		return
	}
	respondJSON(w, http.StatusOK, userSettingsResponse{UserSettings: s})
}

// GetGroup handles GET /api/v1/groups/{groupID}/streamers/{streamerID}/settings
func (h *SettingsHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	s, err := h.recipients.GetGroupSettings(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "streamerID"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusOK, groupSettingsResponse{GroupSettings: domain.DefaultGroupSettings(), Default: true})
	case err != nil:
		h.fail(w, r, "get group settings", err)
	default:
		respondJSON(w, http.StatusOK, groupSettingsResponse{GroupSettings: s})
	}
}

// PutGroup handles PUT /api/v1/groups/{groupID}/streamers/{streamerID}/settings
func (h *SettingsHandler) PutGroup(w http.ResponseWriter, r *http.Request) {
	var s domain.GroupSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.recipients.SetGroupSettings(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "streamerID"), s); err != nil {
		h.fail(w, r, "set group settings", err)
		return
	}
	respondJSON(w, http.StatusOK, groupSettingsResponse{GroupSettings: s})
}

// PutPriority handles PUT /api/v1/streamers/{streamerID}/priority
// with body {"priority": 1|2|3}. The new tier applies from the next tick.
func (h *SettingsHandler) PutPriority(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority int `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := domain.ParsePriority(body.Priority)
	if err != nil {
		mapError(w, err)
		return
	}
	if err := h.streamers.SetPriority(r.Context(), chi.URLParam(r, "streamerID"), p); err != nil {
		h.fail(w, r, "set priority", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"priority": p.String()})
}

func (h *SettingsHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error(op+" failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
	}
	mapError(w, err)
}
