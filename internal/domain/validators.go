package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,50}$`)
	steamIDRegex   = regexp.MustCompile(`^\d{17}$`)
	accountIDRegex = regexp.MustCompile(`^\d{8,10}$`)
	legacyIDRegex  = regexp.MustCompile(`^STEAM_([0-5]):([01]):(\d+)$`)
	profileURLRe   = regexp.MustCompile(`/profiles/(\d{17})`)
	vanityURLRe    = regexp.MustCompile(`/id/([^/]+)`)
)

// steamID64Base is the offset between a 32-bit account ID and the 64-bit
// SteamID rendering (universe 1, individual account).
const steamID64Base = int64(76561197960265728)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUsername checks the login name format.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-50 characters (letters, digits, '_', '.', '-')")
	}
	return nil
}

// ValidateSteamID checks that id is a 17-digit 64-bit Steam ID.
func ValidateSteamID(id string) error {
	if !steamIDRegex.MatchString(id) {
		return fmt.Errorf("steam ID must be a 17-digit number")
	}
	return nil
}

// ParseAppID parses a Steam application ID.
func ParseAppID(s string) (int, error) {
	appID, err := strconv.Atoi(s)
	if err != nil || appID <= 0 {
		return 0, fmt.Errorf("app ID must be a positive integer")
	}
	return appID, nil
}

// ConvertSteamID normalizes a Steam identifier to its 17-digit 64-bit form.
// Accepted inputs: a 64-bit ID (returned as-is), a 32-bit account ID, or the
// legacy STEAM_X:Y:Z rendering.
func ConvertSteamID(input string) (string, error) {
	if steamIDRegex.MatchString(input) {
		return input, nil
	}

	if accountIDRegex.MatchString(input) {
		accountID, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return "", fmt.Errorf("parse account ID: %w", err)
		}
		return strconv.FormatInt(accountID+steamID64Base, 10), nil
	}

	if m := legacyIDRegex.FindStringSubmatch(input); m != nil {
		y, _ := strconv.ParseInt(m[2], 10, 64)
		z, _ := strconv.ParseInt(m[3], 10, 64)
		return strconv.FormatInt(z*2+y+steamID64Base, 10), nil
	}

	return "", fmt.Errorf("unrecognized Steam ID format: %s", input)
}

// SteamIDFromProfileURL extracts the 64-bit Steam ID from a profile URL.
// Vanity URLs (/id/<name>) need a resolver call and are rejected.
func SteamIDFromProfileURL(url string) (string, error) {
	if m := profileURLRe.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if vanityURLRe.MatchString(url) {
		return "", fmt.Errorf("vanity profile URLs are not supported; use the 64-bit Steam ID")
	}
	return "", fmt.Errorf("not a Steam profile URL")
}
