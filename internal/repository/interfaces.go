package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/safeplay/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to the accounts table.
type AccountRepository interface {
	// FindByField looks an account up by one of the allow-listed columns
	// (username, email, steam_id, national_id). Any other field name returns
	// (nil, nil) without touching the database.
	FindByField(ctx context.Context, db DBTX, field, value string) (*domain.Account, error)

	// FindByID returns an account by primary key, or nil if not found.
	FindByID(ctx context.Context, db DBTX, id int64) (*domain.Account, error)

	// FindByUsernameAndRole returns the account with the given login name and
	// role, or nil if not found.
	FindByUsernameAndRole(ctx context.Context, db DBTX, username string, role domain.Role) (*domain.Account, error)

	// InsertSupervisor creates a supervisor account. A unique-constraint
	// violation on username, email or national_id maps to DuplicateAccount.
	InsertSupervisor(ctx context.Context, db DBTX, account *domain.Account) (*domain.Account, error)

	// UpsertSteamPlayer creates a player account for the Steam identity, or
	// touches last_login (and refreshes name/avatar) if one already exists.
	UpsertSteamPlayer(ctx context.Context, db DBTX, steamID, displayName, avatarURL string) (*domain.Account, error)

	// UpdateLastLogin stamps last_login for the account.
	UpdateLastLogin(ctx context.Context, db DBTX, id int64) error

	// SetSteamID links a Steam identity to an existing account. A
	// unique-constraint violation maps to DuplicateAccount.
	SetSteamID(ctx context.Context, db DBTX, id int64, steamID, avatarURL string) error

	// ListPlayers returns all active player accounts, newest first.
	ListPlayers(ctx context.Context, db DBTX) ([]domain.Account, error)
}
