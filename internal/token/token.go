// Package token issues and verifies the signed, expiring tokens carried by clients.
//
// All token types are signed with one HS256 secret; the type is only recorded in the
// token_type claim. Verify does not look at it, callers that care use VerifyType.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
)

// TTLs holds the lifetime of each token type.
type TTLs struct {
	Access          time.Duration
	Refresh         time.Duration
	OneTimePassword time.Duration
}

// DefaultTTLs returns 60 minutes access, 24 hours refresh and 5 minutes one-time-password.
func DefaultTTLs() TTLs {
	return TTLs{
		Access:          60 * time.Minute,
		Refresh:         1440 * time.Minute,
		OneTimePassword: 5 * time.Minute,
	}
}

func (t TTLs) of(typ model.TokenType) time.Duration {
	switch typ {
	case model.TokenAccess:
		return t.Access
	case model.TokenRefresh:
		return t.Refresh
	case model.TokenOneTimePassword:
		return t.OneTimePassword
	default:
		return 0
	}
}

// Claims is the JWT payload.
type Claims struct {
	UserID    int64           `json:"user_id"`
	Email     string          `json:"email"`
	TokenType model.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Status tags the outcome of Verify.
type Status int

const (
	// Valid means the signature verified and the token has not expired.
	Valid Status = iota
	// Expired means the signature verified but now >= expiresAt.
	Expired
	// Malformed covers everything else: bad encoding, wrong secret, wrong algorithm, bad claims.
	Malformed
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case Malformed:
		return "malformed"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Result is the tagged result of Verify. Claims is set only when Status is Valid.
type Result struct {
	Status Status
	Claims model.TokenClaims
}

// Codec signs and verifies tokens with a single immutable secret.
type Codec struct {
	secret []byte
	ttl    TTLs
}

// NewCodec constructs a Codec. The secret is copied.
func NewCodec(secret []byte, ttl TTLs) *Codec {
	return &Codec{secret: append([]byte(nil), secret...), ttl: ttl}
}

// TTL returns the configured lifetime of typ.
func (c *Codec) TTL(typ model.TokenType) time.Duration { return c.ttl.of(typ) }

// Issue signs a token of the given type for the subject, valid from now for ttl(typ).
func (c *Codec) Issue(subjectID int64, subjectEmail string, typ model.TokenType, now time.Time) (string, error) {
	if subjectID == 0 || subjectEmail == "" {
		return "", fmt.Errorf("%w: subject id and email are required", errs.ErrInvalidInput)
	}
	if !typ.Valid() {
		return "", fmt.Errorf("%w: unknown token type %q", errs.ErrInvalidInput, typ)
	}

	claims := Claims{
		UserID:    subjectID,
		Email:     subjectEmail,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl.of(typ))),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// IssueOneTimePassword is shorthand for a one_time_password token.
func (c *Codec) IssueOneTimePassword(subjectID int64, subjectEmail string, now time.Time) (string, error) {
	return c.Issue(subjectID, subjectEmail, model.TokenOneTimePassword, now)
}

// Verify checks the signature first and the expiry second, against now.
func (c *Codec) Verify(tokenString string, now time.Time) Result {
	st, claims := c.verify(tokenString, now)
	if st != Valid {
		return Result{Status: st}
	}
	return Result{Status: Valid, Claims: toModel(claims)}
}

// VerifyType is Verify plus a token_type check; a type mismatch is reported as Malformed,
// including on expired tokens.
func (c *Codec) VerifyType(tokenString string, want model.TokenType, now time.Time) Result {
	st, claims := c.verify(tokenString, now)
	if st != Malformed && claims.TokenType != want {
		return Result{Status: Malformed}
	}
	if st != Valid {
		return Result{Status: st}
	}
	return Result{Status: Valid, Claims: toModel(claims)}
}

func (c *Codec) verify(tokenString string, now time.Time) (Status, Claims) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})

	st := Valid
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid):
		st = Expired
	default:
		return Malformed, Claims{}
	}

	// the signature held, but a token without a subject was not minted by Issue
	if claims.UserID == 0 || claims.Email == "" {
		return Malformed, Claims{}
	}
	return st, claims
}

func toModel(c Claims) model.TokenClaims {
	out := model.TokenClaims{
		SubjectID:    c.UserID,
		SubjectEmail: c.Email,
		TokenType:    c.TokenType,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out
}
