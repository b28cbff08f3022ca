package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/safeplay/platform/internal/domain"
)

const (
	// Bucket thresholds in lifetime minutes.
	intensiveThresholdMin = 6000
	moderateThresholdMin  = 600

	// Recent playtime covers a rolling two-week window.
	recentWindowDays = 14

	topGamesCount    = 5
	recentHighlight  = 3
	recentStatsCount = 10
)

// SteamAPI is the slice of the Steam client the services consume.
type SteamAPI interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*domain.PlayerProfile, error)
	GetOwnedGames(ctx context.Context, steamID string, includeAppInfo, includeFreeGames bool) (*domain.GameLibrary, error)
	GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) (*domain.RecentGames, error)
	GetPlayerStatsForGame(ctx context.Context, steamID, appID string) (*domain.GameStats, error)
	GetPlayerAchievements(ctx context.Context, steamID, appID string) (*domain.PlayerAchievements, error)
	CheckHealth(ctx context.Context) *domain.APIHealth
}

// SummaryService computes the read-only dashboard views over the Steam API.
// Nothing here is persisted; every call recomputes from upstream data.
type SummaryService struct {
	steam  SteamAPI
	logger *slog.Logger
}

func NewSummaryService(steam SteamAPI, logger *slog.Logger) *SummaryService {
	return &SummaryService{steam: steam, logger: logger}
}

// GetProfile returns the public profile for one Steam ID.
func (s *SummaryService) GetProfile(ctx context.Context, steamID string) (*domain.PlayerProfile, error) {
	return s.steam.GetPlayerSummary(ctx, steamID)
}

// GetRecentGames returns the rolling two-week activity for one Steam ID.
func (s *SummaryService) GetRecentGames(ctx context.Context, steamID string, count int) (*domain.RecentGames, error) {
	return s.steam.GetRecentlyPlayedGames(ctx, steamID, count)
}

// GetGameStats returns per-game stats for one Steam ID and app.
func (s *SummaryService) GetGameStats(ctx context.Context, steamID, appID string) (*domain.GameStats, error) {
	return s.steam.GetPlayerStatsForGame(ctx, steamID, appID)
}

// GetAchievements returns achievement completion for one game.
func (s *SummaryService) GetAchievements(ctx context.Context, steamID, appID string) (*domain.PlayerAchievements, error) {
	return s.steam.GetPlayerAchievements(ctx, steamID, appID)
}

// CheckHealth probes the upstream API.
func (s *SummaryService) CheckHealth(ctx context.Context) *domain.APIHealth {
	return s.steam.CheckHealth(ctx)
}

// GetGames returns the library sorted and truncated for display. sortBy is
// one of playtime (default, lifetime minutes desc), name (asc) or recent
// (two-week minutes desc). limit <= 0 returns everything.
func (s *SummaryService) GetGames(ctx context.Context, steamID string, limit int, sortBy string) (*domain.SortedGames, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	library, err := s.steam.GetOwnedGames(ctx, steamID, true, true)
	if err != nil {
		return nil, err
	}

	games := make([]domain.OwnedGame, len(library.Games))
	copy(games, library.Games)

	switch sortBy {
	case "name":
		sort.SliceStable(games, func(i, j int) bool {
			return strings.ToLower(games[i].Name) < strings.ToLower(games[j].Name)
		})
	case "recent":
		sort.SliceStable(games, func(i, j int) bool {
			return games[i].Playtime2Weeks > games[j].Playtime2Weeks
		})
	default:
		sort.SliceStable(games, func(i, j int) bool {
			return games[i].PlaytimeForever > games[j].PlaytimeForever
		})
	}

	if limit > 0 && limit < len(games) {
		games = games[:limit]
	}
	return &domain.SortedGames{
		TotalCount:    library.GameCount,
		ReturnedCount: len(games),
		Games:         games,
	}, nil
}

// GetUserSummary builds the composite dashboard view. The three upstream
// fetches run concurrently; the profile is required, while games and recent
// activity degrade to empty sections on failure.
func (s *SummaryService) GetUserSummary(ctx context.Context, steamID string) (*domain.UserSummary, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	type profileResult struct {
		profile *domain.PlayerProfile
		err     error
	}
	type libraryResult struct {
		library *domain.GameLibrary
		err     error
	}
	type recentResult struct {
		recent *domain.RecentGames
		err    error
	}

	profileCh := make(chan profileResult, 1)
	libraryCh := make(chan libraryResult, 1)
	recentCh := make(chan recentResult, 1)

	go func() {
		p, err := s.steam.GetPlayerSummary(ctx, steamID)
		profileCh <- profileResult{p, err}
	}()
	go func() {
		l, err := s.steam.GetOwnedGames(ctx, steamID, true, true)
		libraryCh <- libraryResult{l, err}
	}()
	go func() {
		r, err := s.steam.GetRecentlyPlayedGames(ctx, steamID, recentHighlight)
		recentCh <- recentResult{r, err}
	}()

	pr := <-profileCh
	lr := <-libraryCh
	rr := <-recentCh

	if pr.err != nil {
		return nil, pr.err
	}

	games := []domain.OwnedGame{}
	totalGames := 0
	if lr.err != nil {
		s.logger.Warn("user summary: game library unavailable", "steam_id", steamID, "error", lr.err)
	} else {
		games = lr.library.Games
		totalGames = lr.library.GameCount
	}

	recentGames := []domain.OwnedGame{}
	if rr.err != nil {
		s.logger.Warn("user summary: recent games unavailable", "steam_id", steamID, "error", rr.err)
	} else {
		recentGames = rr.recent.Games
	}

	return &domain.UserSummary{
		DisplayName: pr.profile.PersonaName,
		Avatar:      pr.profile.BestAvatar(),
		Profile:     pr.profile,
		Games:       games,
		Statistics:  computeStatistics(totalGames, games),
		RecentGames: recentGames,
		TopGames:    topGames(games, topGamesCount),
	}, nil
}

// GetParentalStats builds the supervisor-facing activity view. Both fetches
// run concurrently and both degrade to empty on failure, so a private library
// still yields a stats page rather than an error.
func (s *SummaryService) GetParentalStats(ctx context.Context, steamID string) (*domain.ParentalStats, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	type libraryResult struct {
		library *domain.GameLibrary
		err     error
	}
	type recentResult struct {
		recent *domain.RecentGames
		err    error
	}

	libraryCh := make(chan libraryResult, 1)
	recentCh := make(chan recentResult, 1)

	go func() {
		l, err := s.steam.GetOwnedGames(ctx, steamID, true, true)
		libraryCh <- libraryResult{l, err}
	}()
	go func() {
		r, err := s.steam.GetRecentlyPlayedGames(ctx, steamID, recentStatsCount)
		recentCh <- recentResult{r, err}
	}()

	lr := <-libraryCh
	rr := <-recentCh

	library := &domain.GameLibrary{Games: []domain.OwnedGame{}}
	if lr.err != nil {
		s.logger.Warn("parental stats: game library unavailable", "steam_id", steamID, "error", lr.err)
	} else {
		library = lr.library
	}

	recent := &domain.RecentGames{Games: []domain.OwnedGame{}}
	if rr.err != nil {
		s.logger.Warn("parental stats: recent games unavailable", "steam_id", steamID, "error", rr.err)
	} else {
		recent = rr.recent
	}

	categories := domain.GameCategories{}
	for _, g := range library.Games {
		switch {
		case g.PlaytimeForever > intensiveThresholdMin:
			categories.Intensive++
		case g.PlaytimeForever > moderateThresholdMin:
			categories.Moderate++
		default:
			categories.Casual++
		}
	}

	recentMinutes := 0
	recentView := make([]domain.RecentGameHours, 0, len(recent.Games))
	for _, g := range recent.Games {
		recentMinutes += g.Playtime2Weeks
		recentView = append(recentView, domain.RecentGameHours{
			Name:                 g.Name,
			Playtime2WeeksHours:  roundMinutesToHours(g.Playtime2Weeks),
			PlaytimeForeverHours: roundMinutesToHours(g.PlaytimeForever),
		})
	}

	dailyAverage := math.Round(float64(recentMinutes)/60/recentWindowDays*100) / 100

	return &domain.ParentalStats{
		TotalGames:            library.GameCount,
		RecentPlaytimeMinutes: recentMinutes,
		RecentPlaytimeHours:   roundMinutesToHours(recentMinutes),
		DailyAverageHours:     dailyAverage,
		GameCategories:        categories,
		RecentGames:           recentView,
		Recommendations:       buildRecommendations(dailyAverage, library.GameCount),
	}, nil
}

func computeStatistics(totalGames int, games []domain.OwnedGame) domain.LibraryStatistics {
	totalMinutes := 0
	mostPlayed := domain.MostPlayedGame{Name: "none"}
	for _, g := range games {
		totalMinutes += g.PlaytimeForever
		if g.PlaytimeForever > mostPlayed.Playtime {
			mostPlayed = domain.MostPlayedGame{
				Name:          g.Name,
				Playtime:      g.PlaytimeForever,
				PlaytimeHours: roundMinutesToHours(g.PlaytimeForever),
			}
		}
	}
	return domain.LibraryStatistics{
		TotalGames:           totalGames,
		TotalPlaytimeMinutes: totalMinutes,
		TotalPlaytimeHours:   roundMinutesToHours(totalMinutes),
		MostPlayedGame:       mostPlayed,
	}
}

// topGames returns the n most played games. The sort is stable so ties keep
// the library order and repeated calls produce identical output.
func topGames(games []domain.OwnedGame, n int) []domain.OwnedGame {
	sorted := make([]domain.OwnedGame, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlaytimeForever > sorted[j].PlaytimeForever
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func buildRecommendations(dailyAverageHours float64, totalGames int) []domain.Recommendation {
	var recs []domain.Recommendation
	switch {
	case dailyAverageHours > 4:
		recs = append(recs, domain.Recommendation{
			Type:    "warning",
			Message: "Recent play averages more than 4 hours per day. Consider agreeing on daily limits.",
		})
	case dailyAverageHours > 2:
		recs = append(recs, domain.Recommendation{
			Type:    "caution",
			Message: "Recent play averages more than 2 hours per day. Keep an eye on session length.",
		})
	default:
		recs = append(recs, domain.Recommendation{
			Type:    "good",
			Message: "Recent play time is within a healthy range.",
		})
	}
	if totalGames > 100 {
		recs = append(recs, domain.Recommendation{
			Type:    "info",
			Message: "The library holds more than 100 games. Reviewing new purchases together may help.",
		})
	}
	return recs
}

func roundMinutesToHours(minutes int) int {
	return int(math.Round(float64(minutes) / 60))
}
