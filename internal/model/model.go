// Package model defines domain entities used by services, gates and repositories.
package model

import "time"

// TokenType discriminates what a signed token is meant for.
type TokenType string

// Known token types. The string values are embedded in the token_type claim.
const (
	TokenAccess          TokenType = "access"
	TokenRefresh         TokenType = "refresh"
	TokenOneTimePassword TokenType = "one_time_password"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	switch t {
	case TokenAccess, TokenRefresh, TokenOneTimePassword:
		return true
	default:
		return false
	}
}

// Identity is a user account stored on the server.
type Identity struct {
	ID           int64  // PK
	Email        string // unique, no whitespace
	Name         string // optional display name
	PasswordHash string // opaque one-way hash
	AccessToken  string // last issued access token (advisory)
	RefreshToken string // last issued refresh token; its expiry is the session's expiry
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenClaims is the verified payload of a token.
type TokenClaims struct {
	SubjectID    int64
	SubjectEmail string
	TokenType    TokenType
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// TokenBundle is the atomic output of token issuance.
type TokenBundle struct {
	AccessToken   string
	RefreshToken  string
	SessionCookie string
}
