package infra

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending schema migrations. The migration
// directory comes from MIGRATIONS_DIR when set, otherwise db/migrations is
// located by walking up from the working directory.
func RunMigrations(cfg *Config, logger *slog.Logger) error {
	dir := cfg.MigrationsDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		dir = locateMigrationsDir(cwd)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", dir), cfg.DSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied", "version", version, "dirty", dirty)

	return nil
}

// locateMigrationsDir walks up from start looking for a db/migrations
// directory, so the server can start from the repo root or from cmd/api.
func locateMigrationsDir(start string) string {
	dir := start
	for {
		candidate := filepath.Join(dir, "db", "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Join(start, "db", "migrations")
		}
		dir = parent
	}
}
