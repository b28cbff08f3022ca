package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/safeplay/platform/internal/domain"
)

// Steam Web API endpoint paths.
const (
	pathPlayerSummaries = "/ISteamUser/GetPlayerSummaries/v0002/"
	pathOwnedGames      = "/IPlayerService/GetOwnedGames/v0001/"
	pathRecentGames     = "/IPlayerService/GetRecentlyPlayedGames/v0001/"
	pathGameStats       = "/ISteamUserStats/GetUserStatsForGame/v0002/"
	pathAchievements    = "/ISteamUserStats/GetPlayerAchievements/v0001/"
)

// healthProbeSteamID is a well-known public account used for the health probe.
const healthProbeSteamID = "76561197960435530"

const (
	maxAttempts       = 3
	defaultRetryDelay = time.Second
)

// SteamClient issues authenticated calls against the Steam Web API and maps
// upstream failures to the domain error taxonomy.
type SteamClient struct {
	apiKey     string
	baseURL    string
	logger     *slog.Logger
	client     *http.Client
	retryDelay time.Duration
}

// NewSteamClient creates a Steam Web API client. baseURL defaults to the
// public API host when empty.
func NewSteamClient(apiKey, baseURL string, logger *slog.Logger) *SteamClient {
	if baseURL == "" {
		baseURL = "https://api.steampowered.com"
	}
	return &SteamClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
		retryDelay: defaultRetryDelay,
	}
}

// KeyPrefix returns a short, loggable prefix of the API key. The full key
// must never appear in diagnostic output.
func (c *SteamClient) KeyPrefix() string {
	if c.apiKey == "" {
		return ""
	}
	if len(c.apiKey) <= 8 {
		return c.apiKey[:2] + "..."
	}
	return c.apiKey[:8] + "..."
}

// get performs one authenticated GET against the Steam API. Network-level
// failures are retried with a fixed delay; HTTP-level failures are terminal
// and classified immediately.
func (c *SteamClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, domain.ErrSteamUnauthorized("Steam API key not configured")
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.apiKey)
	q.Set("format", "json")
	fullURL := c.baseURL + path + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, domain.ErrInternal("build steam request", err)
		}
		req.Header.Set("User-Agent", "SafePlay/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("steam api network error, retrying",
				"path", path, "attempt", attempt, "error", err)
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
				case <-time.After(c.retryDelay):
				}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		c.logger.Debug("steam api request", "path", path, "status", resp.StatusCode)

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, domain.ErrSteamUnauthorized("Steam API key invalid or unauthorized")
		case resp.StatusCode == http.StatusForbidden:
			return nil, domain.ErrSteamForbidden("access denied: private profile or data unavailable")
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, domain.ErrSteamRateLimited()
		case resp.StatusCode >= 500:
			return nil, domain.ErrSteamUpstream(
				fmt.Sprintf("Steam API returned %d", resp.StatusCode), nil)
		case resp.StatusCode != http.StatusOK:
			return nil, domain.ErrSteamUpstream(
				fmt.Sprintf("Steam API returned unexpected status %d", resp.StatusCode), nil)
		}

		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
			return nil, domain.ErrSteamUpstream("Steam API returned a non-JSON response", nil)
		}
		return body, nil
	}

	return nil, domain.ErrSteamUpstream("Steam API unreachable", lastErr)
}

// GetPlayerSummary fetches the public profile for one Steam ID. An empty
// players array is treated as forbidden/not-available, matching how Steam
// hides non-queryable accounts.
func (c *SteamClient) GetPlayerSummary(ctx context.Context, steamID string) (*domain.PlayerProfile, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	body, err := c.get(ctx, pathPlayerSummaries, url.Values{"steamids": {steamID}})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response struct {
			Players []domain.PlayerProfile `json:"players"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.ErrSteamUpstream("malformed player summary response", err)
	}
	if len(payload.Response.Players) == 0 {
		return nil, domain.ErrSteamForbidden("player not found or profile not available")
	}

	profile := payload.Response.Players[0]
	if profile.PersonaName == "" {
		profile.PersonaName = "Steam user"
	}
	return &profile, nil
}

// GetOwnedGames fetches the game library for one Steam ID. Steam omits the
// game_count field entirely for private libraries; an empty list with no
// count is therefore forbidden, while a defined count of zero is a valid
// empty library.
func (c *SteamClient) GetOwnedGames(ctx context.Context, steamID string, includeAppInfo, includeFreeGames bool) (*domain.GameLibrary, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	params := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {boolParam(includeAppInfo)},
		"include_played_free_games": {boolParam(includeFreeGames)},
	}
	body, err := c.get(ctx, pathOwnedGames, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response struct {
			GameCount *int               `json:"game_count"`
			Games     []domain.OwnedGame `json:"games"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.ErrSteamUpstream("malformed owned games response", err)
	}

	if len(payload.Response.Games) == 0 && payload.Response.GameCount == nil {
		return nil, domain.ErrSteamForbidden("game list not available: the profile may be private")
	}

	library := &domain.GameLibrary{Games: payload.Response.Games}
	if payload.Response.GameCount != nil {
		library.GameCount = *payload.Response.GameCount
	}
	if library.Games == nil {
		library.Games = []domain.OwnedGame{}
	}
	for i := range library.Games {
		if library.Games[i].Name == "" {
			library.Games[i].Name = fmt.Sprintf("Game %d", library.Games[i].AppID)
		}
	}
	return library, nil
}

// GetRecentlyPlayedGames fetches games played in the last two weeks. Recent
// activity is best-effort: any upstream failure degrades to an empty result
// instead of propagating. An invalid Steam ID still errors.
func (c *SteamClient) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) (*domain.RecentGames, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}

	params := url.Values{"steamid": {steamID}}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}
	body, err := c.get(ctx, pathRecentGames, params)
	if err != nil {
		c.logger.Warn("recent games unavailable, returning empty result",
			"steam_id", steamID, "error", err)
		return &domain.RecentGames{Games: []domain.OwnedGame{}}, nil
	}

	var payload struct {
		Response struct {
			TotalCount int                `json:"total_count"`
			Games      []domain.OwnedGame `json:"games"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("recent games response malformed, returning empty result",
			"steam_id", steamID, "error", err)
		return &domain.RecentGames{Games: []domain.OwnedGame{}}, nil
	}

	recent := &domain.RecentGames{
		TotalCount: payload.Response.TotalCount,
		Games:      payload.Response.Games,
	}
	if recent.Games == nil {
		recent.Games = []domain.OwnedGame{}
	}
	for i := range recent.Games {
		if recent.Games[i].Name == "" {
			recent.Games[i].Name = fmt.Sprintf("Game %d", recent.Games[i].AppID)
		}
	}
	return recent, nil
}

// GetPlayerStatsForGame fetches per-game stats for one Steam ID and app.
func (c *SteamClient) GetPlayerStatsForGame(ctx context.Context, steamID, appID string) (*domain.GameStats, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}
	id, err := domain.ParseAppID(appID)
	if err != nil {
		return nil, domain.ErrInvalidAppID(appID)
	}

	body, err := c.get(ctx, pathGameStats, url.Values{
		"steamid": {steamID},
		"appid":   {strconv.Itoa(id)},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response domain.GameStats `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.ErrSteamUpstream("malformed game stats response", err)
	}

	stats := payload.Response
	if stats.GameName == "" {
		stats.GameName = fmt.Sprintf("Game %d", id)
	}
	if stats.Stats == nil {
		stats.Stats = []domain.GameStatEntry{}
	}
	if stats.Achievements == nil {
		stats.Achievements = []domain.AchievementFlag{}
	}
	return &stats, nil
}

// GetPlayerAchievements fetches achievement completion for one game.
func (c *SteamClient) GetPlayerAchievements(ctx context.Context, steamID, appID string) (*domain.PlayerAchievements, error) {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return nil, domain.ErrInvalidSteamID(steamID)
	}
	id, err := domain.ParseAppID(appID)
	if err != nil {
		return nil, domain.ErrInvalidAppID(appID)
	}

	body, err := c.get(ctx, pathAchievements, url.Values{
		"steamid": {steamID},
		"appid":   {strconv.Itoa(id)},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response domain.PlayerAchievements `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.ErrSteamUpstream("malformed achievements response", err)
	}

	achievements := payload.Response
	if achievements.GameName == "" {
		achievements.GameName = fmt.Sprintf("Game %d", id)
	}
	if achievements.Achievements == nil {
		achievements.Achievements = []domain.AchievementFlag{}
	}
	return &achievements, nil
}

// CheckHealth probes the Steam API with a lookup of a known public account
// and reports status plus response latency.
func (c *SteamClient) CheckHealth(ctx context.Context) *domain.APIHealth {
	if c.apiKey == "" {
		return &domain.APIHealth{
			Status:           "unhealthy",
			APIKeyConfigured: false,
			Error:            "API key not configured",
		}
	}

	start := time.Now()
	_, err := c.GetPlayerSummary(ctx, healthProbeSteamID)
	if err != nil {
		c.logger.Warn("steam api health probe failed", "key_prefix", c.KeyPrefix(), "error", err)
		return &domain.APIHealth{
			Status:           "unhealthy",
			APIKeyConfigured: true,
			Error:            err.Error(),
		}
	}

	return &domain.APIHealth{
		Status:           "healthy",
		APIKeyConfigured: true,
		ResponseTimeMs:   time.Since(start).Milliseconds(),
	}
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
