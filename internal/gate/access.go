package gate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/token"
)

// AccessGate is the second stage: access token from the authorization header, then
// token renewal.
type AccessGate struct {
	cfg Config
}

// NewAccessGate constructs an AccessGate.
func NewAccessGate(cfg Config) *AccessGate {
	return &AccessGate{cfg: cfg.withDefaults()}
}

// ActiveAccessStatus is recorded when the presented access token is still valid.
func ActiveAccessStatus(email string) string {
	return "ACTIVE ACCESS WITH ACTIVE SESSION: access and session renewed for '" + email + "'"
}

// ExpiredAccessStatus is recorded when the access token expired inside a live session.
func ExpiredAccessStatus(email string) string {
	return "ACTIVE SESSION WITH EXPIRED ACCESS: access and session renewed for '" + email + "'"
}

// Admit rejects only a malformed access token; an expired one is renewed. On success
// st carries the identity, a fresh bundle (when issuance worked) and the session status.
func (g *AccessGate) Admit(ctx context.Context, st *State) *Rejection {
	log := g.cfg.Log
	if g.cfg.Allow.Allows(st.Path) {
		st.Bypassed = true
		return nil
	}

	tok, ok := bearerToken(st.Authorization)
	if !ok {
		return reject(log, st, errs.ErrInvalidInput, msgBadAuthHeader)
	}

	now := g.cfg.Now()
	var status string
	switch g.cfg.verify(tok, model.TokenAccess, now).Status {
	case token.Valid:
		status = ActiveAccessStatus(st.Email)
	case token.Expired:
		log.Info("access token expired", zap.String("email", st.Email), zap.String("token", prefix(tok)))
		status = ExpiredAccessStatus(st.Email)
	case token.Malformed:
		return reject(log, st, errs.ErrUnauthorized, msgAccessInvalid)
	default:
		return reject(log, st, errs.ErrUnauthorized, msgAccessInvalid)
	}

	u := st.Identity
	if u == nil || u.Email != st.Email {
		var err error
		if u, err = g.cfg.Users.GetByEmail(ctx, st.Email); err != nil {
			return lookupFailed(log, st, err)
		}
	}

	st.Identity = u
	st.SessionStatus = status
	log.Info("session_status", zap.String("session_status", status))

	bundle, err := g.cfg.Issuer.Issue(u, now)
	if err != nil {
		log.Warn("token renewal failed", zap.String("email", st.Email), zap.Error(err))
		return nil
	}
	st.Bundle = &bundle

	if g.cfg.Sliding {
		u.AccessToken = bundle.AccessToken
		u.RefreshToken = bundle.RefreshToken
		if err := g.cfg.Users.Save(ctx, u); err != nil {
			log.Warn("persist renewed tokens", zap.String("email", st.Email), zap.Error(err))
		}
	}
	return nil
}

// bearerToken extracts the token from "<scheme> <token>".
func bearerToken(header string) (string, bool) {
	f := strings.Fields(header)
	if len(f) != 2 {
		return "", false
	}
	return f[1], true
}

func prefix(tok string) string {
	if len(tok) > 10 {
		return tok[:10] + "..."
	}
	return tok
}
