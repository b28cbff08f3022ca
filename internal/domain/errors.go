package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrNotAuthenticated(msg string) *AppError {
	return &AppError{Code: "NOT_AUTHENTICATED", Message: msg, Status: 401}
}

func ErrNotAuthorized(msg string) *AppError {
	return &AppError{Code: "NOT_AUTHORIZED", Message: msg, Status: 403}
}

func ErrDuplicateAccount(msg string) *AppError {
	return &AppError{Code: "DUPLICATE_ACCOUNT", Message: msg, Status: 409}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: "ACCOUNT_LOCKED", Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Steam-facing error constructors. The provider classifies each upstream
// failure exactly once; handlers pass the status through unchanged.

func ErrInvalidSteamID(id string) *AppError {
	return &AppError{Code: "INVALID_STEAM_ID", Message: fmt.Sprintf("invalid Steam ID %q: must be a 17-digit number", id), Status: 400}
}

func ErrInvalidAppID(id string) *AppError {
	return &AppError{Code: "INVALID_APP_ID", Message: fmt.Sprintf("invalid app ID %q: must be an integer", id), Status: 400}
}

func ErrSteamUnauthorized(msg string) *AppError {
	return &AppError{Code: "STEAM_UNAUTHORIZED", Message: msg, Status: 500}
}

func ErrSteamForbidden(msg string) *AppError {
	return &AppError{Code: "STEAM_FORBIDDEN", Message: msg, Status: 403}
}

func ErrSteamRateLimited() *AppError {
	return &AppError{Code: "STEAM_RATE_LIMITED", Message: "Steam API request limit exceeded", Status: 429}
}

func ErrSteamUpstream(msg string, cause error) *AppError {
	return &AppError{Code: "STEAM_UPSTREAM_ERROR", Message: msg, Status: 502, Cause: cause}
}
