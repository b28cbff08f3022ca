package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/safeplay/platform/internal/domain"
)

type contextKey string

const identityKey contextKey = "auth.identity"

// SessionCookie is the cookie carrying the session token for browser clients.
// API clients use the Authorization header instead.
const SessionCookie = "safeplay_session"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	AccountID int64
	Username  string
	Role      domain.Role
	SteamID   string
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// WithIdentity returns a context carrying the identity. Exposed for tests.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Middleware authenticates requests and gates them by role.
type Middleware struct {
	jwt     *JWTManager
	onError func(w http.ResponseWriter, r *http.Request, err *domain.AppError)
}

// NewMiddleware creates the auth middleware. onError renders domain errors in
// the application's response envelope.
func NewMiddleware(jwt *JWTManager, onError func(http.ResponseWriter, *http.Request, *domain.AppError)) *Middleware {
	return &Middleware{jwt: jwt, onError: onError}
}

// Authenticate resolves a token from the Authorization header or the session
// cookie and, when valid, attaches the identity to the context. Requests
// without a token pass through unauthenticated; handlers that require a
// caller use RequireAuth or RequireSupervisor on top.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.jwt.Verify(token)
		if err != nil {
			m.onError(w, r, domain.ErrNotAuthenticated("invalid or expired session token"))
			return
		}

		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			m.onError(w, r, domain.ErrNotAuthenticated("invalid session token"))
			return
		}

		identity := &Identity{
			AccountID: claims.AccountID,
			Username:  claims.Username,
			Role:      role,
			SteamID:   claims.SteamID,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAuth rejects requests with no authenticated identity.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			m.onError(w, r, domain.ErrNotAuthenticated("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSupervisor rejects callers that are not supervisors.
func (m *Middleware) RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			m.onError(w, r, domain.ErrNotAuthenticated("authentication required"))
			return
		}
		if identity.Role != domain.RoleSupervisor {
			m.onError(w, r, domain.ErrNotAuthorized("supervisor role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
