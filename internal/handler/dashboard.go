package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/service"
)

// alertDailyHours is the daily average above which a supervised player is
// flagged on the overview.
const alertDailyHours = 6.0

// DashboardHandler exposes the player and supervisor dashboard views.
type DashboardHandler struct {
	accounts  *service.AccountService
	summaries *service.SummaryService
	dev       bool
	logger    *slog.Logger
}

func NewDashboardHandler(accounts *service.AccountService, summaries *service.SummaryService, dev bool, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{accounts: accounts, summaries: summaries, dev: dev, logger: logger}
}

// Player renders the dashboard for the authenticated player's own library.
func (h *DashboardHandler) Player(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrNotAuthenticated("authentication required"), h.dev)
		return
	}
	if identity.SteamID == "" {
		RespondError(w, domain.ErrValidation("no Steam account linked to this profile"), h.dev)
		return
	}

	summary, err := h.summaries.GetUserSummary(r.Context(), identity.SteamID)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, summary)
}

// SupervisedPlayer is one row on the supervisor overview. Stats are absent
// when the player has no Steam link or the upstream fetch failed.
type SupervisedPlayer struct {
	Account domain.Account        `json:"account"`
	Stats   *domain.ParentalStats `json:"stats,omitempty"`
	Alert   bool                  `json:"alert"`
	Error   string                `json:"error,omitempty"`
}

// SupervisorOverview is the fleet view across all active players.
type SupervisorOverview struct {
	Players            []SupervisedPlayer `json:"players"`
	ActivePlayers      int                `json:"activePlayers"`
	TotalRecentMinutes int                `json:"totalRecentMinutes"`
	AlertCount         int                `json:"alertCount"`
}

// Supervisor renders the overview of all active players. Per-player stats are
// fetched concurrently and failures are reported inline so one private
// profile cannot blank the whole page.
func (h *DashboardHandler) Supervisor(w http.ResponseWriter, r *http.Request) {
	players, err := h.accounts.ListPlayers(r.Context())
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	rows := make([]SupervisedPlayer, len(players))
	var wg sync.WaitGroup
	for i, player := range players {
		rows[i] = SupervisedPlayer{Account: player}
		if !player.HasSteam() {
			rows[i].Error = "no Steam account linked"
			continue
		}

		wg.Add(1)
		go func(i int, steamID string) {
			defer wg.Done()
			stats, err := h.summaries.GetParentalStats(r.Context(), steamID)
			if err != nil {
				h.logger.Warn("supervisor overview: stats unavailable",
					"steam_id", steamID, "error", err)
				rows[i].Error = errorMessage(err)
				return
			}
			rows[i].Stats = stats
			rows[i].Alert = stats.DailyAverageHours > alertDailyHours
		}(i, *player.SteamID)
	}
	wg.Wait()

	overview := SupervisorOverview{Players: rows, ActivePlayers: len(rows)}
	for _, row := range rows {
		if row.Alert {
			overview.AlertCount++
		}
		if row.Stats != nil {
			overview.TotalRecentMinutes += row.Stats.RecentPlaytimeMinutes
		}
	}
	RespondData(w, http.StatusOK, overview)
}

func errorMessage(err error) string {
	if appErr, ok := err.(*domain.AppError); ok {
		return appErr.Message
	}
	return "activity data unavailable"
}
