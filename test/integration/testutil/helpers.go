//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
)

type authResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Token   string `json:"token"`
		Account struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
			SteamID  string `json:"steam_id"`
		} `json:"account"`
	} `json:"data"`
}

// RegisterSupervisor creates a supervisor account and returns the auth token
// and account ID.
func (env *TestEnv) RegisterSupervisor(name, username, email, password string) (token string, accountID int64) {
	env.t.Helper()
	resp := env.POST("/registro", map[string]string{
		"name":     name,
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterSupervisor: expected 201, got %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterSupervisor: decode: %v", err)
	}
	return result.Data.Token, result.Data.Account.ID
}

// Login authenticates a local account and returns the auth token.
func (env *TestEnv) Login(username, password, role string) string {
	env.t.Helper()
	resp := env.POST("/login", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Login: expected 200, got %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Login: decode: %v", err)
	}
	return result.Data.Token
}

// SteamSession provisions a player session for a verified Steam identity and
// returns the auth token and account ID.
func (env *TestEnv) SteamSession(steamID, personaName string) (token string, accountID int64) {
	env.t.Helper()
	resp := env.POST("/auth/steam/session", map[string]string{
		"steam_id":     steamID,
		"persona_name": personaName,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("SteamSession: expected 200, got %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("SteamSession: decode: %v", err)
	}
	return result.Data.Token, result.Data.Account.ID
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.POST(path, body, token)
}
