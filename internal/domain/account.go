package domain

import (
	"fmt"
	"time"
)

// Role is the account role. The stored values match the check constraint on
// the accounts table; earlier data models used several overlapping role
// names, consolidated here into exactly two.
type Role string

const (
	RolePlayer     Role = "player"
	RoleSupervisor Role = "supervisor"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePlayer, RoleSupervisor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %s", s)
}

// Account is one row in the accounts table. Supervisors register locally and
// always carry a password hash; players are provisioned on the first Steam
// sign-in and may have no password at all.
type Account struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	NationalID   *string    `json:"national_id,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash *string    `json:"-"`
	SteamID      *string    `json:"steam_id,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HasSteam reports whether the account is linked to a Steam identity.
func (a *Account) HasSteam() bool {
	return a.SteamID != nil && *a.SteamID != ""
}

// Validate checks the cross-field invariants: supervisors need a password
// hash, players need a password hash or a Steam ID.
func (a *Account) Validate() error {
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	switch a.Role {
	case RoleSupervisor:
		if a.PasswordHash == nil || *a.PasswordHash == "" {
			return fmt.Errorf("supervisor account requires a password hash")
		}
	case RolePlayer:
		if (a.PasswordHash == nil || *a.PasswordHash == "") && !a.HasSteam() {
			return fmt.Errorf("player account requires a password hash or a Steam ID")
		}
	}
	if a.SteamID != nil {
		if err := ValidateSteamID(*a.SteamID); err != nil {
			return err
		}
	}
	return nil
}
