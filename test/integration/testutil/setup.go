//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safeplay/platform/internal/app"
	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/infra"
)

const (
	TestJWTSecret   = "integration-test-secret-with-enough-length"
	TestSteamAPIKey = "integration-test-steam-key"
	TestDBHost      = "localhost"
	TestDBPort      = 5435
	TestDBUser      = "safeplay"
	TestDBPass      = "safeplay"
	TestDBName      = "safeplay_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server    *httptest.Server
	SteamStub *httptest.Server
	Pool      *pgxpool.Pool
	JWTMgr    *auth.JWTManager
	t         *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "safeplay")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func runMigrations() error {
	projectRoot := findProjectRoot()
	migratePath := fmt.Sprintf("file://%s/db/migrations", projectRoot)

	m, err := newMigrate(migratePath, testDSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err.Error() != "no change" {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(dir + "/go.mod"); err == nil {
			return dir
		}
		parent := dir[:max(0, len(dir)-1)]
		for parent != "" && parent[len(parent)-1] != '/' {
			parent = parent[:len(parent)-1]
		}
		if parent == "" || parent == "/" {
			break
		}
		dir = parent[:len(parent)-1]
	}
	return "."
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// defaultSteamStub serves canned Steam Web API responses: a two-game library
// with one heavy title and recent activity on the lighter one.
func defaultSteamStub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/ISteamUser/GetPlayerSummaries/v0002/":
			steamID := r.URL.Query().Get("steamids")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"response": map[string]interface{}{
					"players": []map[string]interface{}{
						{"steamid": steamID, "personaname": "StubPlayer", "avatarfull": "https://stub/avatar.jpg"},
					},
				},
			})
		case r.URL.Path == "/IPlayerService/GetOwnedGames/v0001/":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"response": map[string]interface{}{
					"game_count": 2,
					"games": []map[string]interface{}{
						{"appid": 10, "name": "Heavy Game", "playtime_forever": 6500},
						{"appid": 20, "name": "Light Game", "playtime_forever": 100, "playtime_2weeks": 300},
					},
				},
			})
		case r.URL.Path == "/IPlayerService/GetRecentlyPlayedGames/v0001/":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"response": map[string]interface{}{
					"total_count": 1,
					"games": []map[string]interface{}{
						{"appid": 20, "name": "Light Game", "playtime_2weeks": 300, "playtime_forever": 100},
					},
				},
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"response": map[string]interface{}{}})
		}
	}
}

// NewTestEnv creates a test environment with an httptest.Server backed by the
// real router, the test DB and a stubbed Steam API.
func NewTestEnv(t *testing.T) *TestEnv {
	return NewTestEnvWithSteam(t, defaultSteamStub())
}

// NewTestEnvWithSteam is NewTestEnv with a custom Steam API stub.
func NewTestEnvWithSteam(t *testing.T, steamHandler http.HandlerFunc) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	steamStub := httptest.NewServer(steamHandler)

	jwtMgr := auth.NewJWTManager(TestJWTSecret, 24*time.Hour, 8*time.Hour)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := app.NewRouter(app.RouterDeps{
		Pool:               pool,
		JWTMgr:             jwtMgr,
		Producer:           infra.NewKafkaProducer("", false, logger),
		Logger:             logger,
		SteamAPIKey:        TestSteamAPIKey,
		SteamBaseURL:       steamStub.URL,
		CORSAllowedOrigins: "*",
		Dev:                false,
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:    server,
		SteamStub: steamStub,
		Pool:      pool,
		JWTMgr:    jwtMgr,
		t:         t,
	}

	t.Cleanup(func() {
		server.Close()
		steamStub.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
