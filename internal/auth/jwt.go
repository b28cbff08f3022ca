package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/safeplay/platform/internal/domain"
)

// Claims is the JWT payload issued on login.
type Claims struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	SteamID   string `json:"steam_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies session tokens. Player and supervisor tokens
// carry different lifetimes.
type JWTManager struct {
	secret           []byte
	playerExpiry     time.Duration
	supervisorExpiry time.Duration
}

func NewJWTManager(secret string, playerExpiry, supervisorExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:           []byte(secret),
		playerExpiry:     playerExpiry,
		supervisorExpiry: supervisorExpiry,
	}
}

// Generate issues a signed token for the account.
func (m *JWTManager) Generate(account *domain.Account) (string, error) {
	expiry := m.playerExpiry
	if account.Role == domain.RoleSupervisor {
		expiry = m.supervisorExpiry
	}

	now := time.Now()
	claims := Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", account.ID),
			Issuer:    "safeplay",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	if account.SteamID != nil {
		claims.SteamID = *account.SteamID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
