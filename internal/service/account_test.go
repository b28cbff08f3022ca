package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/infra"
	"github.com/safeplay/platform/internal/repository"
)

type mockAccountRepo struct {
	byField       map[string]*domain.Account
	byID          map[int64]*domain.Account
	findErr       error
	insertErr     error
	inserted      *domain.Account
	upserted      *domain.Account
	lastLoginSet  []int64
	linkedSteamID string
	linkErr       error
	players       []domain.Account
}

func (m *mockAccountRepo) FindByField(ctx context.Context, db repository.DBTX, field, value string) (*domain.Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byField[field+"="+value], nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, db repository.DBTX, id int64) (*domain.Account, error) {
	return m.byID[id], nil
}

func (m *mockAccountRepo) FindByUsernameAndRole(ctx context.Context, db repository.DBTX, username string, role domain.Role) (*domain.Account, error) {
	acc := m.byField["username="+username]
	if acc == nil || acc.Role != role {
		return nil, nil
	}
	return acc, nil
}

func (m *mockAccountRepo) InsertSupervisor(ctx context.Context, db repository.DBTX, account *domain.Account) (*domain.Account, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	created := *account
	created.ID = 42
	created.Active = true
	created.CreatedAt = time.Now()
	m.inserted = &created
	return &created, nil
}

func (m *mockAccountRepo) UpsertSteamPlayer(ctx context.Context, db repository.DBTX, steamID, displayName, avatarURL string) (*domain.Account, error) {
	now := time.Now()
	acc := &domain.Account{
		ID:        7,
		Name:      displayName,
		Username:  "steam_" + steamID,
		Role:      domain.RolePlayer,
		SteamID:   &steamID,
		Active:    true,
		LastLogin: &now,
	}
	if avatarURL != "" {
		acc.AvatarURL = &avatarURL
	}
	m.upserted = acc
	return acc, nil
}

func (m *mockAccountRepo) UpdateLastLogin(ctx context.Context, db repository.DBTX, id int64) error {
	m.lastLoginSet = append(m.lastLoginSet, id)
	return nil
}

func (m *mockAccountRepo) SetSteamID(ctx context.Context, db repository.DBTX, id int64, steamID, avatarURL string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linkedSteamID = steamID
	return nil
}

func (m *mockAccountRepo) ListPlayers(ctx context.Context, db repository.DBTX) ([]domain.Account, error) {
	return m.players, nil
}

func newAccountService(repo repository.AccountRepository) *AccountService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAccountService(
		nil,
		repo,
		auth.NewJWTManager("unit-test-secret-with-enough-length", 24*time.Hour, 8*time.Hour),
		infra.NewKafkaProducer("", false, logger),
		logger,
	)
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:       "Pat Supervisor",
		Username:   "pat.supervisor",
		Email:      "pat@example.com",
		Phone:      "5550100",
		NationalID: "1234567890",
		Password:   "long-enough-password",
	}
}

func TestRegisterSupervisor(t *testing.T) {
	t.Run("creates an account and opens a session", func(t *testing.T) {
		repo := &mockAccountRepo{byField: map[string]*domain.Account{}}
		result, err := newAccountService(repo).RegisterSupervisor(context.Background(), validRegistration())
		require.NoError(t, err)

		assert.NotEmpty(t, result.Token)
		assert.Equal(t, int64(42), result.Account.ID)
		assert.Equal(t, domain.RoleSupervisor, result.Account.Role)

		require.NotNil(t, repo.inserted.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(*repo.inserted.PasswordHash), []byte("long-enough-password")))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*RegisterInput)
		}{
			{"missing name", func(in *RegisterInput) { in.Name = " " }},
			{"bad username", func(in *RegisterInput) { in.Username = "x" }},
			{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
			{"short password", func(in *RegisterInput) { in.Password = "short" }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				input := validRegistration()
				tc.mutate(&input)

				_, err := newAccountService(&mockAccountRepo{}).RegisterSupervisor(context.Background(), input)
				require.Error(t, err)
				appErr, ok := err.(*domain.AppError)
				require.True(t, ok)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			})
		}
	})

	t.Run("rejects duplicates found by pre-check", func(t *testing.T) {
		repo := &mockAccountRepo{byField: map[string]*domain.Account{
			"email=pat@example.com": {ID: 1},
		}}

		_, err := newAccountService(repo).RegisterSupervisor(context.Background(), validRegistration())
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "DUPLICATE_ACCOUNT", appErr.Code)
	})

	t.Run("passes through database uniqueness violations", func(t *testing.T) {
		repo := &mockAccountRepo{
			byField:   map[string]*domain.Account{},
			insertErr: domain.ErrDuplicateAccount("an account with this username, email or national ID already exists"),
		}

		_, err := newAccountService(repo).RegisterSupervisor(context.Background(), validRegistration())
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.Status)
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	supervisor := &domain.Account{
		ID:           3,
		Username:     "parent1",
		Role:         domain.RoleSupervisor,
		PasswordHash: &hashStr,
		Active:       true,
	}

	t.Run("valid credentials open a session", func(t *testing.T) {
		repo := &mockAccountRepo{byField: map[string]*domain.Account{"username=parent1": supervisor}}

		result, err := newAccountService(repo).Login(context.Background(), LoginInput{
			Username: "parent1", Password: "correct-password", Role: "supervisor",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, []int64{3}, repo.lastLoginSet)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		repo := &mockAccountRepo{byField: map[string]*domain.Account{"username=parent1": supervisor}}
		svc := newAccountService(repo)

		_, unknownErr := svc.Login(context.Background(), LoginInput{
			Username: "nobody", Password: "correct-password", Role: "supervisor",
		})
		_, wrongPassErr := svc.Login(context.Background(), LoginInput{
			Username: "parent1", Password: "wrong", Role: "supervisor",
		})

		require.Error(t, unknownErr)
		require.Error(t, wrongPassErr)
		assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
	})

	t.Run("role mismatch is rejected like a bad password", func(t *testing.T) {
		repo := &mockAccountRepo{byField: map[string]*domain.Account{"username=parent1": supervisor}}

		_, err := newAccountService(repo).Login(context.Background(), LoginInput{
			Username: "parent1", Password: "correct-password", Role: "player",
		})
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "NOT_AUTHENTICATED", appErr.Code)
	})

	t.Run("unknown role is a validation error", func(t *testing.T) {
		_, err := newAccountService(&mockAccountRepo{}).Login(context.Background(), LoginInput{
			Username: "parent1", Password: "x", Role: "admin",
		})
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("inactive accounts cannot log in", func(t *testing.T) {
		inactive := *supervisor
		inactive.Active = false
		repo := &mockAccountRepo{byField: map[string]*domain.Account{"username=parent1": &inactive}}

		_, err := newAccountService(repo).Login(context.Background(), LoginInput{
			Username: "parent1", Password: "correct-password", Role: "supervisor",
		})
		require.Error(t, err)
	})
}

func TestLoginSteam(t *testing.T) {
	t.Run("provisions a player and issues a token with the steam id", func(t *testing.T) {
		repo := &mockAccountRepo{}
		svc := newAccountService(repo)

		result, err := svc.LoginSteam(context.Background(), SteamSessionInput{
			SteamID:     "76561198000000001",
			PersonaName: "gabe",
			AvatarURL:   "https://example.com/a.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "steam_76561198000000001", result.Account.Username)
		assert.Equal(t, domain.RolePlayer, result.Account.Role)

		claims, err := auth.NewJWTManager("unit-test-secret-with-enough-length", time.Hour, time.Hour).Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "76561198000000001", claims.SteamID)
	})

	t.Run("blank persona name gets a placeholder", func(t *testing.T) {
		repo := &mockAccountRepo{}
		_, err := newAccountService(repo).LoginSteam(context.Background(), SteamSessionInput{
			SteamID: "76561198000000001",
		})
		require.NoError(t, err)
		assert.Equal(t, "Steam user", repo.upserted.Name)
	})

	t.Run("rejects a malformed steam id", func(t *testing.T) {
		_, err := newAccountService(&mockAccountRepo{}).LoginSteam(context.Background(), SteamSessionInput{
			SteamID: "STEAM_0:1:12345",
		})
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_STEAM_ID", appErr.Code)
	})
}

func TestLinkSteam(t *testing.T) {
	t.Run("links a valid id", func(t *testing.T) {
		repo := &mockAccountRepo{}
		err := newAccountService(repo).LinkSteam(context.Background(), 3, "76561198000000001", "")
		require.NoError(t, err)
		assert.Equal(t, "76561198000000001", repo.linkedSteamID)
	})

	t.Run("propagates duplicate links", func(t *testing.T) {
		repo := &mockAccountRepo{linkErr: domain.ErrDuplicateAccount("this Steam ID is already linked to another account")}
		err := newAccountService(repo).LinkSteam(context.Background(), 3, "76561198000000001", "")
		require.Error(t, err)
		appErr, ok := err.(*domain.AppError)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.Status)
	})

	t.Run("rejects a malformed id without touching the repository", func(t *testing.T) {
		repo := &mockAccountRepo{}
		err := newAccountService(repo).LinkSteam(context.Background(), 3, "123", "")
		require.Error(t, err)
		assert.Empty(t, repo.linkedSteamID)
	})
}
