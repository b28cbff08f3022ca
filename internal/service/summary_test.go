package service

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeplay/platform/internal/domain"
)

const testSteamID = "76561198000000001"

type fakeSteam struct {
	profile    *domain.PlayerProfile
	profileErr error
	library    *domain.GameLibrary
	libraryErr error
	recent     *domain.RecentGames
	recentErr  error

	calls atomic.Int32
}

func (f *fakeSteam) GetPlayerSummary(ctx context.Context, steamID string) (*domain.PlayerProfile, error) {
	f.calls.Add(1)
	return f.profile, f.profileErr
}

func (f *fakeSteam) GetOwnedGames(ctx context.Context, steamID string, a, b bool) (*domain.GameLibrary, error) {
	f.calls.Add(1)
	return f.library, f.libraryErr
}

func (f *fakeSteam) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) (*domain.RecentGames, error) {
	f.calls.Add(1)
	if f.recent == nil && f.recentErr == nil {
		return &domain.RecentGames{Games: []domain.OwnedGame{}}, nil
	}
	return f.recent, f.recentErr
}

func (f *fakeSteam) GetPlayerStatsForGame(ctx context.Context, steamID, appID string) (*domain.GameStats, error) {
	return nil, nil
}

func (f *fakeSteam) GetPlayerAchievements(ctx context.Context, steamID, appID string) (*domain.PlayerAchievements, error) {
	return nil, nil
}

func (f *fakeSteam) CheckHealth(ctx context.Context) *domain.APIHealth {
	return &domain.APIHealth{Status: "healthy", APIKeyConfigured: true}
}

// recentCountSteam records the count passed to the recent-games fetch.
type recentCountSteam struct {
	fakeSteam
	lastCount atomic.Int32
}

func (f *recentCountSteam) GetRecentlyPlayedGames(ctx context.Context, steamID string, count int) (*domain.RecentGames, error) {
	f.lastCount.Store(int32(count))
	return &domain.RecentGames{Games: []domain.OwnedGame{}}, nil
}

func newSummaryService(steam SteamAPI) *SummaryService {
	return NewSummaryService(steam, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testProfile() *domain.PlayerProfile {
	return &domain.PlayerProfile{
		SteamID:     testSteamID,
		PersonaName: "gabe",
		AvatarFull:  "https://example.com/full.jpg",
	}
}

func TestGetUserSummary(t *testing.T) {
	t.Run("aggregates profile, library and recent games", func(t *testing.T) {
		steam := &fakeSteam{
			profile: testProfile(),
			library: &domain.GameLibrary{GameCount: 3, Games: []domain.OwnedGame{
				{AppID: 1, Name: "Alpha", PlaytimeForever: 100},
				{AppID: 2, Name: "Beta", PlaytimeForever: 6500},
				{AppID: 3, Name: "Gamma", PlaytimeForever: 300},
			}},
			recent: &domain.RecentGames{TotalCount: 1, Games: []domain.OwnedGame{
				{AppID: 2, Name: "Beta", Playtime2Weeks: 120},
			}},
		}

		summary, err := newSummaryService(steam).GetUserSummary(context.Background(), testSteamID)
		require.NoError(t, err)

		assert.Equal(t, "gabe", summary.DisplayName)
		assert.Equal(t, "https://example.com/full.jpg", summary.Avatar)
		assert.Equal(t, 3, summary.Statistics.TotalGames)
		assert.Equal(t, 6900, summary.Statistics.TotalPlaytimeMinutes)
		assert.Equal(t, 115, summary.Statistics.TotalPlaytimeHours)
		assert.Equal(t, "Beta", summary.Statistics.MostPlayedGame.Name)
		assert.Equal(t, 108, summary.Statistics.MostPlayedGame.PlaytimeHours)
		require.Len(t, summary.RecentGames, 1)

		require.Len(t, summary.TopGames, 3)
		assert.Equal(t, "Beta", summary.TopGames[0].Name)
		assert.Equal(t, "Gamma", summary.TopGames[1].Name)
		assert.Equal(t, "Alpha", summary.TopGames[2].Name)
	})

	t.Run("top games capped at five with stable ordering", func(t *testing.T) {
		games := []domain.OwnedGame{
			{AppID: 1, Name: "A", PlaytimeForever: 50},
			{AppID: 2, Name: "B", PlaytimeForever: 50},
			{AppID: 3, Name: "C", PlaytimeForever: 900},
			{AppID: 4, Name: "D", PlaytimeForever: 50},
			{AppID: 5, Name: "E", PlaytimeForever: 700},
			{AppID: 6, Name: "F", PlaytimeForever: 50},
		}
		steam := &fakeSteam{
			profile: testProfile(),
			library: &domain.GameLibrary{GameCount: len(games), Games: games},
		}
		svc := newSummaryService(steam)

		first, err := svc.GetUserSummary(context.Background(), testSteamID)
		require.NoError(t, err)
		second, err := svc.GetUserSummary(context.Background(), testSteamID)
		require.NoError(t, err)

		require.Len(t, first.TopGames, 5)
		assert.Equal(t, "C", first.TopGames[0].Name)
		assert.Equal(t, "E", first.TopGames[1].Name)
		// ties keep library order
		assert.Equal(t, "A", first.TopGames[2].Name)
		assert.Equal(t, "B", first.TopGames[3].Name)
		assert.Equal(t, first.TopGames, second.TopGames)
	})

	t.Run("empty library uses the sentinel most played game", func(t *testing.T) {
		steam := &fakeSteam{
			profile: testProfile(),
			library: &domain.GameLibrary{GameCount: 0, Games: []domain.OwnedGame{}},
		}

		summary, err := newSummaryService(steam).GetUserSummary(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, "none", summary.Statistics.MostPlayedGame.Name)
		assert.Equal(t, 0, summary.Statistics.MostPlayedGame.Playtime)
		assert.Empty(t, summary.TopGames)
	})

	t.Run("library failure degrades to empty sections", func(t *testing.T) {
		steam := &fakeSteam{
			profile:    testProfile(),
			libraryErr: domain.ErrSteamForbidden("private"),
		}

		summary, err := newSummaryService(steam).GetUserSummary(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.NotNil(t, summary.Games)
		assert.Empty(t, summary.Games)
		assert.Equal(t, 0, summary.Statistics.TotalGames)
		assert.Equal(t, "none", summary.Statistics.MostPlayedGame.Name)
	})

	t.Run("profile failure propagates", func(t *testing.T) {
		steam := &fakeSteam{
			profileErr: domain.ErrSteamForbidden("not available"),
			library:    &domain.GameLibrary{GameCount: 1, Games: []domain.OwnedGame{{AppID: 1, Name: "A"}}},
		}

		_, err := newSummaryService(steam).GetUserSummary(context.Background(), testSteamID)
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "STEAM_FORBIDDEN", appErr.Code)
	})

	t.Run("invalid steam id fails before any fetch", func(t *testing.T) {
		steam := &fakeSteam{}
		_, err := newSummaryService(steam).GetUserSummary(context.Background(), "not-an-id")
		require.Error(t, err)
		assert.Equal(t, int32(0), steam.calls.Load())
	})
}

func TestGetParentalStats(t *testing.T) {
	t.Run("buckets library by lifetime playtime", func(t *testing.T) {
		steam := &fakeSteam{
			library: &domain.GameLibrary{GameCount: 2, Games: []domain.OwnedGame{
				{AppID: 1, Name: "Deep", PlaytimeForever: 6500},
				{AppID: 2, Name: "Light", PlaytimeForever: 100},
			}},
		}

		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.GameCategories.Intensive)
		assert.Equal(t, 0, stats.GameCategories.Moderate)
		assert.Equal(t, 1, stats.GameCategories.Casual)
		assert.Equal(t, 2, stats.TotalGames)
	})

	t.Run("bucket boundaries are inclusive where stated", func(t *testing.T) {
		steam := &fakeSteam{
			library: &domain.GameLibrary{GameCount: 4, Games: []domain.OwnedGame{
				{AppID: 1, PlaytimeForever: 600},  // casual upper bound
				{AppID: 2, PlaytimeForever: 601},  // moderate lower bound
				{AppID: 3, PlaytimeForever: 6000}, // moderate upper bound
				{AppID: 4, PlaytimeForever: 6001}, // intensive lower bound
			}},
		}

		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.GameCategories.Casual)
		assert.Equal(t, 2, stats.GameCategories.Moderate)
		assert.Equal(t, 1, stats.GameCategories.Intensive)
	})

	t.Run("daily average rounds to two decimals", func(t *testing.T) {
		steam := &fakeSteam{
			library: &domain.GameLibrary{GameCount: 1, Games: []domain.OwnedGame{{AppID: 1, Name: "A"}}},
			recent: &domain.RecentGames{Games: []domain.OwnedGame{
				{AppID: 1, Name: "A", Playtime2Weeks: 1000, PlaytimeForever: 3000},
			}},
		}

		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, 1000, stats.RecentPlaytimeMinutes)
		assert.Equal(t, 17, stats.RecentPlaytimeHours)
		assert.InDelta(t, 1.19, stats.DailyAverageHours, 0.001)
		require.Len(t, stats.RecentGames, 1)
		assert.Equal(t, 17, stats.RecentGames[0].Playtime2WeeksHours)
		assert.Equal(t, 50, stats.RecentGames[0].PlaytimeForeverHours)
	})

	t.Run("advisory levels track the daily average", func(t *testing.T) {
		cases := []struct {
			name          string
			recentMinutes int
			wantType      string
		}{
			{"over four hours a day warns", 4000, "warning"},  // 4.76 h/day
			{"over two hours a day cautions", 2000, "caution"}, // 2.38 h/day
			{"low usage is good", 500, "good"},                 // 0.6 h/day
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				steam := &fakeSteam{
					library: &domain.GameLibrary{GameCount: 1, Games: []domain.OwnedGame{{AppID: 1}}},
					recent: &domain.RecentGames{Games: []domain.OwnedGame{
						{AppID: 1, Playtime2Weeks: tc.recentMinutes},
					}},
				}

				stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
				require.NoError(t, err)
				require.NotEmpty(t, stats.Recommendations)
				assert.Equal(t, tc.wantType, stats.Recommendations[0].Type)
			})
		}
	})

	t.Run("large libraries add an info note", func(t *testing.T) {
		steam := &fakeSteam{
			library: &domain.GameLibrary{GameCount: 150, Games: []domain.OwnedGame{{AppID: 1}}},
		}

		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		require.Len(t, stats.Recommendations, 2)
		assert.Equal(t, "good", stats.Recommendations[0].Type)
		assert.Equal(t, "info", stats.Recommendations[1].Type)
	})

	t.Run("recent failure degrades to empty activity", func(t *testing.T) {
		steam := &fakeSteam{
			library:   &domain.GameLibrary{GameCount: 1, Games: []domain.OwnedGame{{AppID: 1}}},
			recentErr: domain.ErrSteamUpstream("down", nil),
		}
		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalGames)
		assert.Zero(t, stats.RecentPlaytimeMinutes)
		assert.Empty(t, stats.RecentGames)
	})

	t.Run("private library degrades instead of failing", func(t *testing.T) {
		steam := &fakeSteam{
			libraryErr: domain.ErrSteamForbidden("private library"),
			recent: &domain.RecentGames{Games: []domain.OwnedGame{
				{AppID: 1, Name: "Portal", Playtime2Weeks: 120},
			}},
		}
		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalGames)
		assert.Zero(t, stats.GameCategories.Intensive+stats.GameCategories.Moderate+stats.GameCategories.Casual)
		assert.Equal(t, 120, stats.RecentPlaytimeMinutes)
		require.Len(t, stats.RecentGames, 1)
		require.NotEmpty(t, stats.Recommendations)
	})

	t.Run("both failing still yields an empty stats view", func(t *testing.T) {
		steam := &fakeSteam{
			libraryErr: domain.ErrSteamForbidden("private library"),
			recentErr:  domain.ErrSteamUpstream("down", nil),
		}
		stats, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalGames)
		assert.Zero(t, stats.RecentPlaytimeMinutes)
	})

	t.Run("requests the ten most recent games", func(t *testing.T) {
		steam := &recentCountSteam{fakeSteam: fakeSteam{
			library: &domain.GameLibrary{Games: []domain.OwnedGame{}},
		}}
		_, err := newSummaryService(steam).GetParentalStats(context.Background(), testSteamID)
		require.NoError(t, err)
		assert.Equal(t, int32(10), steam.lastCount.Load())
	})
}

func TestGetGames(t *testing.T) {
	library := &domain.GameLibrary{GameCount: 3, Games: []domain.OwnedGame{
		{AppID: 1, Name: "zulu", PlaytimeForever: 10, Playtime2Weeks: 90},
		{AppID: 2, Name: "Alpha", PlaytimeForever: 300, Playtime2Weeks: 0},
		{AppID: 3, Name: "mike", PlaytimeForever: 200, Playtime2Weeks: 30},
	}}

	t.Run("defaults to lifetime playtime descending", func(t *testing.T) {
		got, err := newSummaryService(&fakeSteam{library: library}).GetGames(context.Background(), testSteamID, 0, "")
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 1}, appIDs(got.Games))
		assert.Equal(t, 3, got.TotalCount)
	})

	t.Run("sorts by name case-insensitively", func(t *testing.T) {
		got, err := newSummaryService(&fakeSteam{library: library}).GetGames(context.Background(), testSteamID, 0, "name")
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 1}, appIDs(got.Games))
	})

	t.Run("sorts by recent playtime", func(t *testing.T) {
		got, err := newSummaryService(&fakeSteam{library: library}).GetGames(context.Background(), testSteamID, 0, "recent")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 2}, appIDs(got.Games))
	})

	t.Run("applies limit after sorting", func(t *testing.T) {
		got, err := newSummaryService(&fakeSteam{library: library}).GetGames(context.Background(), testSteamID, 2, "")
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, appIDs(got.Games))
		assert.Equal(t, 3, got.TotalCount)
		assert.Equal(t, 2, got.ReturnedCount)
	})

	t.Run("rejects a malformed id without calling upstream", func(t *testing.T) {
		fake := &fakeSteam{library: library}
		_, err := newSummaryService(fake).GetGames(context.Background(), "not-an-id", 0, "")
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_STEAM_ID", appErr.Code)
		assert.Equal(t, int32(0), fake.calls.Load())
	})

	t.Run("does not reorder the upstream slice", func(t *testing.T) {
		_, err := newSummaryService(&fakeSteam{library: library}).GetGames(context.Background(), testSteamID, 0, "")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, appIDs(library.Games))
	})
}

func appIDs(games []domain.OwnedGame) []int {
	ids := make([]int, len(games))
	for i, g := range games {
		ids[i] = g.AppID
	}
	return ids
}
