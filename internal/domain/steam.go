package domain

// Views over the Steam Web API. All of these are recomputed per request and
// never persisted.

// PlayerProfile is the normalized result of GetPlayerSummaries for one ID.
type PlayerProfile struct {
	SteamID        string `json:"steamid"`
	PersonaName    string `json:"personaname"`
	ProfileURL     string `json:"profileurl"`
	Avatar         string `json:"avatar"`
	AvatarMedium   string `json:"avatarmedium"`
	AvatarFull     string `json:"avatarfull"`
	PersonaState   int    `json:"personastate"`
	Visibility     int    `json:"communityvisibilitystate"`
	ProfileState   int    `json:"profilestate"`
	LastLogoff     int64  `json:"lastlogoff,omitempty"`
	RealName       string `json:"realname,omitempty"`
	TimeCreated    int64  `json:"timecreated,omitempty"`
	GameID         string `json:"gameid,omitempty"`
	GameExtraInfo  string `json:"gameextrainfo,omitempty"`
	CountryCode    string `json:"loccountrycode,omitempty"`
}

// BestAvatar returns the largest avatar URL available.
func (p *PlayerProfile) BestAvatar() string {
	if p.AvatarFull != "" {
		return p.AvatarFull
	}
	if p.AvatarMedium != "" {
		return p.AvatarMedium
	}
	return p.Avatar
}

// OwnedGame is one entry from GetOwnedGames. Playtimes are in minutes.
type OwnedGame struct {
	AppID                  int    `json:"appid"`
	Name                   string `json:"name"`
	PlaytimeForever        int    `json:"playtime_forever"`
	PlaytimeWindowsForever int    `json:"playtime_windows_forever"`
	PlaytimeMacForever     int    `json:"playtime_mac_forever"`
	PlaytimeLinuxForever   int    `json:"playtime_linux_forever"`
	Playtime2Weeks         int    `json:"playtime_2weeks"`
	ImgIconURL             string `json:"img_icon_url,omitempty"`
	ImgLogoURL             string `json:"img_logo_url,omitempty"`
}

// GameLibrary is the owned-games result. GameCount comes from the upstream
// game_count field; a defined zero is a real empty library, an absent field
// is a private profile and never reaches this struct.
type GameLibrary struct {
	GameCount int         `json:"game_count"`
	Games     []OwnedGame `json:"games"`
}

// RecentGames is the recently-played result (rolling two-week window).
// SortedGames is the games endpoint payload: the full library size plus the
// sorted, possibly truncated slice actually returned.
type SortedGames struct {
	TotalCount    int         `json:"total_count"`
	ReturnedCount int         `json:"returned_count"`
	Games         []OwnedGame `json:"games"`
}

type RecentGames struct {
	TotalCount int         `json:"total_count"`
	Games      []OwnedGame `json:"games"`
}

// GameStats is the per-game stats/achievements result.
type GameStats struct {
	SteamID      string            `json:"steamID"`
	GameName     string            `json:"gameName"`
	Stats        []GameStatEntry   `json:"stats"`
	Achievements []AchievementFlag `json:"achievements"`
}

type GameStatEntry struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type AchievementFlag struct {
	Name       string `json:"name,omitempty"`
	APIName    string `json:"apiname,omitempty"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime,omitempty"`
}

// PlayerAchievements is the GetPlayerAchievements result.
type PlayerAchievements struct {
	SteamID      string            `json:"steamID"`
	GameName     string            `json:"gameName"`
	Achievements []AchievementFlag `json:"achievements"`
	Success      bool              `json:"success"`
}

// MostPlayedGame names the game with the highest lifetime playtime.
type MostPlayedGame struct {
	Name          string `json:"name"`
	Playtime      int    `json:"playtime"`
	PlaytimeHours int    `json:"playtimeHours"`
}

// LibraryStatistics are the derived numbers on a user summary.
type LibraryStatistics struct {
	TotalGames           int            `json:"totalGames"`
	TotalPlaytimeMinutes int            `json:"totalPlaytimeMinutes"`
	TotalPlaytimeHours   int            `json:"totalPlaytimeHours"`
	MostPlayedGame       MostPlayedGame `json:"mostPlayedGame"`
}

// UserSummary is the composite dashboard view for one Steam identity.
// Profile is required; Games, RecentGames and TopGames degrade to empty when
// their fetches fail independently.
type UserSummary struct {
	DisplayName string            `json:"displayName"`
	Avatar      string            `json:"avatar"`
	Profile     *PlayerProfile    `json:"profile"`
	Games       []OwnedGame       `json:"games"`
	Statistics  LibraryStatistics `json:"statistics"`
	RecentGames []OwnedGame       `json:"recentGames"`
	TopGames    []OwnedGame       `json:"topGames"`
}

// GameCategories buckets a library by lifetime playtime.
type GameCategories struct {
	Intensive int `json:"intensive"` // > 100h
	Moderate  int `json:"moderate"`  // 10h–100h
	Casual    int `json:"casual"`    // <= 10h
}

// Recommendation is a non-binding advisory line on the parental view.
type Recommendation struct {
	Type    string `json:"type"` // warning, caution, good, info
	Message string `json:"message"`
}

// RecentGameHours is a recent game rendered in hours for the parental view.
type RecentGameHours struct {
	Name                 string `json:"name"`
	Playtime2WeeksHours  int    `json:"playtime_2weeks_hours"`
	PlaytimeForeverHours int    `json:"playtime_forever_hours"`
}

// ParentalStats is the supervisor-facing heuristic view of recent activity.
type ParentalStats struct {
	TotalGames            int               `json:"totalGames"`
	RecentPlaytimeMinutes int               `json:"recentPlaytimeMinutes"`
	RecentPlaytimeHours   int               `json:"recentPlaytimeHours"`
	DailyAverageHours     float64           `json:"dailyAverageHours"`
	GameCategories        GameCategories    `json:"gameCategories"`
	RecentGames           []RecentGameHours `json:"recentGames"`
	Recommendations       []Recommendation  `json:"recommendations"`
}

// APIHealth is the result of the Steam API health probe.
type APIHealth struct {
	Status           string `json:"status"` // healthy or unhealthy
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	ResponseTimeMs   int64  `json:"responseTime,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (h *APIHealth) Healthy() bool { return h.Status == "healthy" }
