package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionFile is what authctl keeps between invocations.
type sessionFile struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Cookie       string    `json:"cookie"`
	ExpiresAt    time.Time `json:"session_expires_at"`
}

var errNoSession = errors.New("no valid session (log-in required)")

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "authgate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "authgate")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(s *sessionFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(sessionPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func loadSession() (*sessionFile, error) {
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errNoSession
		}
		return nil, err
	}
	var s sessionFile
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Cookie == "" || s.AccessToken == "" || time.Now().After(s.ExpiresAt) {
		return nil, errNoSession
	}
	return &s, nil
}

func removeSession() error {
	err := os.Remove(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// tokenExpiry reads exp without verifying the signature; the client has no secret.
func tokenExpiry(tok string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(tok, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
