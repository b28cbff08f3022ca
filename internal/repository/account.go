package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/safeplay/platform/internal/domain"
)

const accountColumns = `id, name, username, email, phone, national_id, role,
	password_hash, steam_id, avatar_url, active, last_login, created_at`

// allowedLookupFields is the closed set of columns FindByField may query.
// The field name is interpolated into SQL, so anything outside this map is
// rejected before a query is built.
var allowedLookupFields = map[string]bool{
	"username":    true,
	"email":       true,
	"steam_id":    true,
	"national_id": true,
}

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

func (r *accountRepo) FindByField(ctx context.Context, db DBTX, field, value string) (*domain.Account, error) {
	if !allowedLookupFields[field] {
		return nil, nil
	}
	row := db.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM accounts WHERE %s = $1`, accountColumns, field), value)
	return scanAccount(row)
}

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id int64) (*domain.Account, error) {
	row := db.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM accounts WHERE id = $1`, accountColumns), id)
	return scanAccount(row)
}

func (r *accountRepo) FindByUsernameAndRole(ctx context.Context, db DBTX, username string, role domain.Role) (*domain.Account, error) {
	row := db.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM accounts WHERE username = $1 AND role = $2`, accountColumns), username, role)
	return scanAccount(row)
}

func (r *accountRepo) InsertSupervisor(ctx context.Context, db DBTX, account *domain.Account) (*domain.Account, error) {
	row := db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO accounts (name, username, email, phone, national_id, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, accountColumns),
		account.Name, account.Username, account.Email, account.Phone,
		account.NationalID, domain.RoleSupervisor, account.PasswordHash)

	inserted, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateAccount("an account with this username, email or national ID already exists")
		}
		return nil, fmt.Errorf("insert supervisor: %w", err)
	}
	return inserted, nil
}

func (r *accountRepo) UpsertSteamPlayer(ctx context.Context, db DBTX, steamID, displayName, avatarURL string) (*domain.Account, error) {
	// Single statement so two concurrent first sign-ins cannot both insert.
	row := db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO accounts (name, username, role, steam_id, avatar_url, last_login)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (steam_id) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			last_login = now()
		RETURNING %s`, accountColumns),
		displayName, "steam_"+steamID, domain.RolePlayer, steamID, avatarURL)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("upsert steam player: %w", err)
	}
	return account, nil
}

func (r *accountRepo) UpdateLastLogin(ctx context.Context, db DBTX, id int64) error {
	tag, err := db.Exec(ctx, `UPDATE accounts SET last_login = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("account", fmt.Sprintf("%d", id))
	}
	return nil
}

func (r *accountRepo) SetSteamID(ctx context.Context, db DBTX, id int64, steamID, avatarURL string) error {
	tag, err := db.Exec(ctx, `
		UPDATE accounts SET steam_id = $2, avatar_url = COALESCE(NULLIF($3, ''), avatar_url)
		WHERE id = $1`, id, steamID, avatarURL)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount("this Steam ID is already linked to another account")
		}
		return fmt.Errorf("link steam id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("account", fmt.Sprintf("%d", id))
	}
	return nil
}

func (r *accountRepo) ListPlayers(ctx context.Context, db DBTX) ([]domain.Account, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE role = $1 AND active = true
		ORDER BY created_at DESC`, accountColumns), domain.RolePlayer)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Name, &a.Username, &a.Email, &a.Phone, &a.NationalID,
		&a.Role, &a.PasswordHash, &a.SteamID, &a.AvatarURL, &a.Active, &a.LastLogin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
