package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/service"
)

// SteamHandler exposes the Steam data endpoints.
type SteamHandler struct {
	summaries *service.SummaryService
	dev       bool
	logger    *slog.Logger
}

func NewSteamHandler(summaries *service.SummaryService, dev bool, logger *slog.Logger) *SteamHandler {
	return &SteamHandler{summaries: summaries, dev: dev, logger: logger}
}

// resolveSteamID picks the target Steam ID: path parameter first, then the
// steamid query parameter, then the authenticated session.
func resolveSteamID(r *http.Request) (string, error) {
	if id := chi.URLParam(r, "steamID"); id != "" {
		return id, nil
	}
	if id := r.URL.Query().Get("steamid"); id != "" {
		return id, nil
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.SteamID != "" {
		return identity.SteamID, nil
	}
	return "", domain.ErrValidation("no Steam ID provided: use the path, the steamid query parameter, or sign in with Steam")
}

// AuthURL returns the absolute URL that starts the Steam OpenID handshake.
// The handshake itself is handled by the frontend proxy; this just points
// the client at it.
func (h *SteamHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     scheme + "://" + r.Host + "/auth/steam",
	})
}

// GetProfile returns the public profile.
func (h *SteamHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	profile, err := h.summaries.GetProfile(r.Context(), steamID)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, profile)
}

// GetUserSummary returns the composite dashboard view.
func (h *SteamHandler) GetUserSummary(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	summary, err := h.summaries.GetUserSummary(r.Context(), steamID)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, summary)
}

// GetGames returns the owned games, sorted and optionally truncated.
func (h *SteamHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondError(w, domain.ErrValidation("limit must be a non-negative integer"), h.dev)
			return
		}
	}

	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = r.URL.Query().Get("sort")
	}

	library, err := h.summaries.GetGames(r.Context(), steamID, limit, sortBy)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, library)
}

// GetRecentGames returns the two-week activity window.
func (h *SteamHandler) GetRecentGames(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 0 {
			RespondError(w, domain.ErrValidation("count must be a non-negative integer"), h.dev)
			return
		}
	}

	recent, err := h.summaries.GetRecentGames(r.Context(), steamID, count)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, recent)
}

// GetGameStats returns per-game stats for one app.
func (h *SteamHandler) GetGameStats(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	stats, err := h.summaries.GetGameStats(r.Context(), steamID, chi.URLParam(r, "appID"))
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, stats)
}

// GetAchievements returns achievement completion for one app.
func (h *SteamHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	achievements, err := h.summaries.GetAchievements(r.Context(), steamID, chi.URLParam(r, "appID"))
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, achievements)
}

// GetParentalStats returns the supervisor-facing activity view. Players may
// only read their own; supervisors may read any player.
func (h *SteamHandler) GetParentalStats(w http.ResponseWriter, r *http.Request) {
	steamID, err := resolveSteamID(r)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrNotAuthenticated("authentication required"), h.dev)
		return
	}
	if identity.Role != domain.RoleSupervisor && identity.SteamID != steamID {
		RespondError(w, domain.ErrNotAuthorized("you may only view your own activity"), h.dev)
		return
	}

	stats, err := h.summaries.GetParentalStats(r.Context(), steamID)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, stats)
}

// Health probes the upstream Steam API.
func (h *SteamHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.summaries.CheckHealth(r.Context())
	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	RespondData(w, status, health)
}
