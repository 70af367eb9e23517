package gate

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/token"
)

// SessionActive is the status recorded when the refresh token is still valid.
const SessionActive = "USER SESSION IS ACTIVE"

// SessionGate is the first stage: session cookie plus stored refresh token.
type SessionGate struct {
	cfg Config
}

// NewSessionGate constructs a SessionGate.
func NewSessionGate(cfg Config) *SessionGate {
	return &SessionGate{cfg: cfg.withDefaults()}
}

// Admit bypasses public paths; otherwise it requires an authentic cookie, the email and
// authorization headers, a known identity and an unexpired refresh token.
func (g *SessionGate) Admit(ctx context.Context, st *State) *Rejection {
	log := g.cfg.Log
	if g.cfg.Allow.Allows(st.Path) {
		st.Bypassed = true
		return nil
	}

	if st.Cookie == "" {
		return reject(log, st, errs.ErrUnauthorized, msgNoCookie)
	}
	if st.Email == "" || st.Authorization == "" {
		return reject(log, st, errs.ErrInvalidInput, msgMissingHeaders)
	}
	if !g.cfg.Cookies.Authenticate(st.Cookie, st.Email) {
		return reject(log, st, errs.ErrUnauthorized, msgBadCookie)
	}

	u, err := g.cfg.Users.GetByEmail(ctx, st.Email)
	if err != nil {
		return lookupFailed(log, st, err)
	}

	res := g.cfg.verify(u.RefreshToken, model.TokenRefresh, g.cfg.Now())
	switch res.Status {
	case token.Valid:
	case token.Expired:
		g.cfg.OnSessionExpired(ctx, u)
		log.Info("session terminated", zap.String("email", st.Email), zap.Int64("user_id", u.ID))
		return reject(log, st, errs.ErrUnauthorized, msgSessionExpired)
	case token.Malformed:
		return reject(log, st, errs.ErrUnauthorized, msgSessionInvalid)
	default:
		return reject(log, st, errs.ErrUnauthorized, msgSessionInvalid)
	}

	st.Identity = u
	st.SessionStatus = SessionActive
	log.Debug("session_status", zap.String("session_status", SessionActive), zap.String("email", st.Email))
	return nil
}
