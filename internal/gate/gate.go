// Package gate implements the two request gates that protect every non-public route.
//
// SessionGate checks the session cookie and the stored refresh token. AccessGate checks
// the access token from the authorization header, tolerating expiry while the session is
// alive, and renews the token bundle. Both are Stages; a Pipeline runs stages in order
// over one State and stops at the first Rejection.
package gate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/repository"
	"github.com/and161185/authgate/internal/token"
)

// Allowlist names the paths that bypass both gates.
type Allowlist struct {
	Exact    []string
	Prefixes []string
}

// DefaultAllowlist returns the public paths of the API.
func DefaultAllowlist() Allowlist {
	return Allowlist{
		Exact:    []string{"/", "/api", "/api/"},
		Prefixes: []string{"/api/v1/auth/log-in", "/api/v1/auth/register"},
	}
}

// Allows reports whether path is public.
func (a Allowlist) Allows(path string) bool {
	for _, p := range a.Exact {
		if path == p {
			return true
		}
	}
	for _, p := range a.Prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// State carries one request through the pipeline.
type State struct {
	Path          string
	Cookie        string // empty when absent
	Email         string
	Authorization string

	Bypassed      bool
	Identity      *model.Identity
	Bundle        *model.TokenBundle
	SessionStatus string
}

// Stage admits a request (possibly mutating st) or rejects it.
type Stage interface {
	Admit(ctx context.Context, st *State) *Rejection
}

// Pipeline runs stages in order.
type Pipeline []Stage

// Run stops at the first rejection, or as soon as a stage marks the request as bypassed.
func (p Pipeline) Run(ctx context.Context, st *State) *Rejection {
	for _, s := range p {
		if rej := s.Admit(ctx, st); rej != nil {
			return rej
		}
		if st.Bypassed {
			return nil
		}
	}
	return nil
}

// CookieAuthenticator checks a session cookie value against a claimed email.
type CookieAuthenticator interface {
	Authenticate(value, email string) bool
}

// Verifier verifies signed tokens.
type Verifier interface {
	Verify(tokenString string, now time.Time) token.Result
	VerifyType(tokenString string, want model.TokenType, now time.Time) token.Result
}

// Issuer issues a fresh token bundle.
type Issuer interface {
	Issue(u *model.Identity, now time.Time) (model.TokenBundle, error)
}

// Config wires the gates' collaborators. Nil Now and Log default to time.Now and a no-op logger.
type Config struct {
	Allow   Allowlist
	Cookies CookieAuthenticator
	Users   repository.UserRepository
	Tokens  Verifier
	Issuer  Issuer
	Now     func() time.Time
	Log     *zap.Logger

	// EnforceTokenType makes each gate require the token_type it expects.
	EnforceTokenType bool
	// Sliding persists the renewed tokens, extending the session on every request.
	Sliding bool
	// OnSessionExpired runs when a refresh token is found expired. Default: no-op.
	OnSessionExpired func(ctx context.Context, u *model.Identity)
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.OnSessionExpired == nil {
		c.OnSessionExpired = func(context.Context, *model.Identity) {}
	}
	return c
}

func (c Config) verify(tok string, typ model.TokenType, now time.Time) token.Result {
	if c.EnforceTokenType {
		return c.Tokens.VerifyType(tok, typ, now)
	}
	return c.Tokens.Verify(tok, now)
}

// Merged returns the single-middleware deployment: session checks, then access checks,
// sharing one identity lookup.
func Merged(cfg Config) Pipeline {
	return Pipeline{NewSessionGate(cfg), NewAccessGate(cfg)}
}
