package token

import (
	"fmt"
	"time"

	"github.com/and161185/authgate/internal/model"
)

// CookieBuilder builds a session cookie value for an email.
type CookieBuilder interface {
	Build(email string) (string, error)
}

// Bundler issues access token, refresh token and session cookie together.
type Bundler struct {
	codec   *Codec
	cookies CookieBuilder
}

// NewBundler constructs a Bundler.
func NewBundler(codec *Codec, cookies CookieBuilder) *Bundler {
	return &Bundler{codec: codec, cookies: cookies}
}

// Issue returns a fresh bundle for u, valid from now. Nothing is persisted.
func (b *Bundler) Issue(u *model.Identity, now time.Time) (model.TokenBundle, error) {
	access, err := b.codec.Issue(u.ID, u.Email, model.TokenAccess, now)
	if err != nil {
		return model.TokenBundle{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := b.codec.Issue(u.ID, u.Email, model.TokenRefresh, now)
	if err != nil {
		return model.TokenBundle{}, fmt.Errorf("issue refresh token: %w", err)
	}
	ck, err := b.cookies.Build(u.Email)
	if err != nil {
		return model.TokenBundle{}, fmt.Errorf("build session cookie: %w", err)
	}
	return model.TokenBundle{AccessToken: access, RefreshToken: refresh, SessionCookie: ck}, nil
}
