package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/guard"
	"github.com/safeplay/platform/internal/infra"
	"github.com/safeplay/platform/internal/repository"
)

// AccountService handles registration, login and Steam identity linking.
type AccountService struct {
	pool     *pgxpool.Pool
	accounts repository.AccountRepository
	jwtMgr   *auth.JWTManager
	producer *infra.KafkaProducer
	logger   *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	pool *pgxpool.Pool,
	accounts repository.AccountRepository,
	jwtMgr *auth.JWTManager,
	producer *infra.KafkaProducer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		pool:     pool,
		accounts: accounts,
		jwtMgr:   jwtMgr,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the supervisor registration request fields.
type RegisterInput struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// RegisterSupervisor creates a supervisor account. Uniqueness is enforced by
// the database; the pre-checks exist only to return field-specific messages.
func (s *AccountService) RegisterSupervisor(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.ErrValidation("name is required")
	}
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}

	for field, value := range map[string]string{
		"username":    input.Username,
		"email":       input.Email,
		"national_id": input.NationalID,
	} {
		if value == "" {
			continue
		}
		existing, err := s.accounts.FindByField(ctx, s.pool, field, value)
		if err != nil {
			return nil, domain.ErrInternal("check existing account", err)
		}
		if existing != nil {
			return nil, domain.ErrDuplicateAccount("an account with this " + strings.ReplaceAll(field, "_", " ") + " already exists")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	hashStr := string(hash)
	account := &domain.Account{
		Name:         input.Name,
		Username:     input.Username,
		Role:         domain.RoleSupervisor,
		PasswordHash: &hashStr,
	}
	if input.Email != "" {
		account.Email = &input.Email
	}
	if input.Phone != "" {
		account.Phone = &input.Phone
	}
	if input.NationalID != "" {
		account.NationalID = &input.NationalID
	}

	created, err := s.accounts.InsertSupervisor(ctx, s.pool, account)
	if err != nil {
		if appErr, ok := err.(*domain.AppError); ok {
			return nil, appErr
		}
		return nil, domain.ErrInternal("create account", err)
	}

	s.publishAudit(ctx, infra.TopicAccountRegistered, created)

	token, err := s.jwtMgr.Generate(created)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{Token: token, Account: created}, nil
}

// LoginInput holds the local login request fields.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ClientIP string `json:"-"`
}

// Login authenticates a local account. Failures are indistinguishable to the
// caller whether the username or the password was wrong.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return nil, domain.ErrValidation("username and password are required")
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	if err := guard.CheckLocked(ctx, s.pool, input.Username); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByUsernameAndRole(ctx, s.pool, input.Username, role)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil || account.PasswordHash == nil || !account.Active {
		guard.RecordAttempt(ctx, s.pool, input.Username, input.ClientIP, false)
		return nil, domain.ErrNotAuthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(input.Password)); err != nil {
		guard.RecordAttempt(ctx, s.pool, input.Username, input.ClientIP, false)
		return nil, domain.ErrNotAuthenticated("invalid credentials")
	}

	guard.RecordAttempt(ctx, s.pool, input.Username, input.ClientIP, true)
	if err := s.accounts.UpdateLastLogin(ctx, s.pool, account.ID); err != nil {
		s.logger.Warn("last_login update failed", "account_id", account.ID, "error", err)
	}

	s.publishAudit(ctx, infra.TopicAccountLogin, account)

	token, err := s.jwtMgr.Generate(account)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{Token: token, Account: account}, nil
}

// SteamSessionInput is a Steam identity already verified by the OpenID
// handshake on the frontend proxy. The Steam ID is trusted to be verified;
// only its format is checked here.
type SteamSessionInput struct {
	SteamID     string `json:"steam_id"`
	PersonaName string `json:"persona_name"`
	AvatarURL   string `json:"avatar_url"`
}

// LoginSteam provisions or refreshes a player account for a verified Steam
// identity and opens a session.
func (s *AccountService) LoginSteam(ctx context.Context, input SteamSessionInput) (*AuthResult, error) {
	if err := domain.ValidateSteamID(input.SteamID); err != nil {
		return nil, domain.ErrInvalidSteamID(input.SteamID)
	}
	displayName := strings.TrimSpace(input.PersonaName)
	if displayName == "" {
		displayName = "Steam user"
	}

	account, err := s.accounts.UpsertSteamPlayer(ctx, s.pool, input.SteamID, displayName, input.AvatarURL)
	if err != nil {
		return nil, domain.ErrInternal("provision steam player", err)
	}

	s.publishAudit(ctx, infra.TopicAccountLogin, account)

	token, err := s.jwtMgr.Generate(account)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{Token: token, Account: account}, nil
}

// LinkSteam attaches a Steam identity to an existing account.
func (s *AccountService) LinkSteam(ctx context.Context, accountID int64, steamID, avatarURL string) error {
	if err := domain.ValidateSteamID(steamID); err != nil {
		return domain.ErrInvalidSteamID(steamID)
	}
	if err := s.accounts.SetSteamID(ctx, s.pool, accountID, steamID, avatarURL); err != nil {
		if appErr, ok := err.(*domain.AppError); ok {
			return appErr
		}
		return domain.ErrInternal("link steam id", err)
	}
	return nil
}

// GetAccount returns one account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", "by id")
	}
	return account, nil
}

// ListPlayers returns the active player accounts for the supervisor overview.
func (s *AccountService) ListPlayers(ctx context.Context) ([]domain.Account, error) {
	players, err := s.accounts.ListPlayers(ctx, s.pool)
	if err != nil {
		return nil, domain.ErrInternal("list players", err)
	}
	return players, nil
}

func (s *AccountService) publishAudit(ctx context.Context, topic string, account *domain.Account) {
	if !s.producer.Enabled() {
		return
	}
	event := infra.AuditEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
		At:        time.Now().UTC(),
	}
	if account.SteamID != nil {
		event.SteamID = *account.SteamID
	}
	_ = s.producer.PublishAudit(ctx, topic, event)
}
