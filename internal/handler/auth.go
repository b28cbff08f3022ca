package handler

import (
	"log/slog"
	"net/http"

	"github.com/safeplay/platform/internal/auth"
	"github.com/safeplay/platform/internal/domain"
	"github.com/safeplay/platform/internal/service"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	dev      bool
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AccountService, dev bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, dev: dev, logger: logger}
}

// Register creates a supervisor account and opens a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid JSON body"), h.dev)
		return
	}

	result, err := h.accounts.RegisterSupervisor(r.Context(), input)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	h.setSessionCookie(w, result.Token)
	RespondData(w, http.StatusCreated, result)
}

// Login authenticates a local account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid JSON body"), h.dev)
		return
	}
	input.ClientIP = ClientIP(r)

	result, err := h.accounts.Login(r.Context(), input)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	h.setSessionCookie(w, result.Token)
	RespondData(w, http.StatusOK, result)
}

// SteamSession opens a session for a Steam identity already verified by the
// OpenID handshake upstream of this service.
func (h *AuthHandler) SteamSession(w http.ResponseWriter, r *http.Request) {
	var input service.SteamSessionInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid JSON body"), h.dev)
		return
	}

	result, err := h.accounts.LoginSteam(r.Context(), input)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}

	h.setSessionCookie(w, result.Token)
	RespondData(w, http.StatusOK, result)
}

// Logout clears the session cookie. Tokens are not revocable server-side;
// clients must also drop any stored copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	RespondData(w, http.StatusOK, map[string]string{"message": "session closed"})
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrNotAuthenticated("authentication required"), h.dev)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, account)
}

// LinkSteam attaches a Steam identity to the authenticated account.
func (h *AuthHandler) LinkSteam(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrNotAuthenticated("authentication required"), h.dev)
		return
	}

	var input struct {
		SteamID   string `json:"steam_id"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid JSON body"), h.dev)
		return
	}

	if err := h.accounts.LinkSteam(r.Context(), identity.AccountID, input.SteamID, input.AvatarURL); err != nil {
		RespondError(w, err, h.dev)
		return
	}
	RespondData(w, http.StatusOK, map[string]string{"steam_id": input.SteamID})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
