package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/guard"
	"github.com/safeplay/platform/internal/handler"
	"github.com/safeplay/platform/internal/infra"
	"github.com/safeplay/platform/internal/provider"
	"github.com/safeplay/platform/internal/repository"
	"github.com/safeplay/platform/internal/service"
)

// steamRateLimit caps Steam data requests per client per minute so one
// dashboard cannot burn the upstream API quota.
const steamRateLimit = 60

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool     *pgxpool.Pool
	JWTMgr   *auth.JWTManager
	Producer *infra.KafkaProducer
	Logger   *slog.Logger

	SteamAPIKey  string
	SteamBaseURL string

	CORSAllowedOrigins string
	Dev                bool
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	// Repositories
	accountRepo := repository.NewAccountRepository()

	// External providers
	steamClient := provider.NewSteamClient(deps.SteamAPIKey, deps.SteamBaseURL, logger)

	// Services
	summarySvc := service.NewSummaryService(steamClient, logger)
	accountSvc := service.NewAccountService(deps.Pool, accountRepo, deps.JWTMgr, deps.Producer, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(accountSvc, deps.Dev, logger)
	steamHandler := handler.NewSteamHandler(summarySvc, deps.Dev, logger)
	dashboardHandler := handler.NewDashboardHandler(accountSvc, summarySvc, deps.Dev, logger)
	healthHandler := handler.NewHealthHandler(deps.Pool, summarySvc)

	authMw := auth.NewMiddleware(deps.JWTMgr, func(w http.ResponseWriter, r *http.Request, err *domain.AppError) {
		handler.RespondError(w, err, deps.Dev)
	})
	steamLimiter := guard.NewRateLimiter(steamRateLimit, time.Minute)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)
	r.Use(authMw.Authenticate)

	// Health (no auth)
	r.Get("/health", healthHandler.Health)

	// Session endpoints (no auth)
	r.Post("/registro", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/auth/steam/session", authHandler.SteamSession)

	r.Route("/api", func(r chi.Router) {
		r.Post("/logout", authHandler.Logout)
		r.With(authMw.RequireAuth).Get("/me", authHandler.Me)
		r.With(authMw.RequireAuth).Post("/steam/link", authHandler.LinkSteam)

		// Steam data. The target ID resolves from the path, the steamid
		// query parameter, or the session, in that order.
		r.Route("/steam", func(r chi.Router) {
			r.Use(handler.RateLimit(steamLimiter, deps.Dev))

			r.Get("/health", steamHandler.Health)
			r.Get("/auth-url", steamHandler.AuthURL)

			r.Get("/profile", steamHandler.GetProfile)
			r.Get("/profile/{steamID}", steamHandler.GetProfile)
			r.Get("/summary", steamHandler.GetUserSummary)
			r.Get("/summary/{steamID}", steamHandler.GetUserSummary)
			r.Get("/games", steamHandler.GetGames)
			r.Get("/games/{steamID}", steamHandler.GetGames)
			r.Get("/recent", steamHandler.GetRecentGames)
			r.Get("/recent/{steamID}", steamHandler.GetRecentGames)
			r.Get("/stats/{steamID}/{appID}", steamHandler.GetGameStats)
			r.Get("/achievements/{steamID}/{appID}", steamHandler.GetAchievements)
			r.Get("/parental-stats", steamHandler.GetParentalStats)
			r.Get("/parental-stats/{steamID}", steamHandler.GetParentalStats)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.With(authMw.RequireAuth).Get("/player", dashboardHandler.Player)
			r.With(authMw.RequireSupervisor).Get("/supervisor", dashboardHandler.Supervisor)
		})
	})

	return r
}
