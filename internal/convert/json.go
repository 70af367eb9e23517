// Package convert maps domain values to their JSON wire shapes.
package convert

import (
	"time"

	"github.com/and161185/authgate/internal/model"
)

// Profile is the public view of an account. The password hash and stored tokens never
// leave the server through it.
type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tokens is the token half of a bundle. The cookie travels in Set-Cookie instead.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthPayload is a profile plus any tokens issued on the same request.
type AuthPayload struct {
	User   Profile `json:"user"`
	Tokens *Tokens `json:"tokens,omitempty"`
}

// ToProfile converts a domain identity.
func ToProfile(u *model.Identity) Profile {
	if u == nil {
		return Profile{}
	}
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// ToTokens returns nil for a nil bundle.
func ToTokens(b *model.TokenBundle) *Tokens {
	if b == nil {
		return nil
	}
	return &Tokens{AccessToken: b.AccessToken, RefreshToken: b.RefreshToken}
}

// ToAuthPayload combines ToProfile and ToTokens.
func ToAuthPayload(u *model.Identity, b *model.TokenBundle) AuthPayload {
	return AuthPayload{User: ToProfile(u), Tokens: ToTokens(b)}
}
