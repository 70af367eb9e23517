package gate

import (
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/errs"
)

// Rejection ends a request. Kind is an errs sentinel (or an unexpected error); Message is
// the human-readable cause returned to the client.
type Rejection struct {
	Kind    error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// Unwrap exposes Kind to errors.Is.
func (r *Rejection) Unwrap() error { return r.Kind }

// Rejection messages.
const (
	msgNoCookie       = "Request rejected - user does not have access to this route"
	msgMissingHeaders = "Email, and authorization header data must be provided on the request"
	msgBadCookie      = "Request rejected - invalid auth_cookie detected"
	msgSessionInvalid = "Access denied - invalid token"
	msgSessionExpired = "Access denied - session is expired, please re-authenticate"
	msgBadAuthHeader  = "Invalid authorization header format"
	msgAccessInvalid  = "access denied - invalid token"
)

func userNotFound(email string) string {
	return "User with email: '" + email + "' not found or does not exist."
}

func reject(log *zap.Logger, st *State, kind error, msg string) *Rejection {
	log.Error(msg,
		zap.String("path", st.Path),
		zap.String("email", st.Email),
		zap.Error(kind),
	)
	return &Rejection{Kind: kind, Message: msg}
}

// lookupFailed turns a store error into a rejection: not found is a 404, anything else is
// passed through as an unexpected error.
func lookupFailed(log *zap.Logger, st *State, err error) *Rejection {
	if errors.Is(err, errs.ErrNotFound) {
		return reject(log, st, errs.ErrNotFound, userNotFound(st.Email))
	}
	return reject(log, st, err, err.Error())
}
