package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"safeplay"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"safeplay"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"safeplay"`
	PGMaxConns  int32  `env:"PG_MAX_CONNS" envDefault:"20"`
	PGMinConns  int32  `env:"PG_MIN_CONNS" envDefault:"2"`

	// MigrationsDir overrides the default db/migrations discovery.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// Steam Web API
	SteamAPIKey  string `env:"STEAM_API_KEY"`
	SteamBaseURL string `env:"STEAM_API_BASE_URL" envDefault:"https://api.steampowered.com"`

	// JWT
	JWTSecret           string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTPlayerExpiry     string `env:"JWT_PLAYER_EXPIRY" envDefault:"24h"`
	JWTSupervisorExpiry string `env:"JWT_SUPERVISOR_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3000"`

	// Kafka (audit events)
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	DevMode               bool `env:"DEV_MODE" envDefault:"false"`
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// ErrSteamKeyMissing is returned by Validate when no Steam API key is set.
var ErrSteamKeyMissing = fmt.Errorf("STEAM_API_KEY is not set")

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure or incomplete configuration that must not run
// in production. Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.SteamAPIKey == "" {
		return ErrSteamKeyMissing
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
