// Package cookie builds, parses and deploys the session cookie.
//
// A cookie value is tag_____marker_____secret, where marker is a one-way hash of the
// account email and secret is the server signing secret.
package cookie

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/authgate/internal/crypto"
)

const (
	// Name is the cookie name; the same string is used as the value tag.
	Name = "Fast_Django_Backend_Template"
	// Delimiter separates the three value parts.
	Delimiter = "_____"
	// MaxAge is the browser lifetime of the cookie.
	MaxAge = 24 * time.Hour
)

// ErrMalformed is returned by Parse when the value does not have three parts.
var ErrMalformed = errors.New("malformed session cookie")

// Parts are the components of a cookie value.
type Parts struct {
	Tag    string
	Marker string
	Secret string
}

// Codec builds and authenticates cookie values against one server secret.
type Codec struct {
	secret string
	hasher crypto.Hasher
}

// CheckSecret reports why secret cannot be embedded in a cookie value. net/http drops
// control, non-ASCII, ';', '"' and '\\' bytes from cookie values, so a secret holding any of
// them would never match on the way back.
func CheckSecret(secret string) error {
	if secret == "" {
		return errors.New("cookie: empty secret")
	}
	if strings.Contains(secret, Delimiter) {
		return fmt.Errorf("cookie: secret must not contain %q", Delimiter)
	}
	for i := 0; i < len(secret); i++ {
		b := secret[i]
		if b < 0x20 || b > 0x7e || b == ';' || b == '"' || b == '\\' {
			return fmt.Errorf("cookie: secret contains byte %q not allowed in a cookie value", b)
		}
	}
	return nil
}

// NewCodec constructs a Codec. The secret must pass CheckSecret.
func NewCodec(secret string, hasher crypto.Hasher) (*Codec, error) {
	if err := CheckSecret(secret); err != nil {
		return nil, err
	}
	return &Codec{secret: secret, hasher: hasher}, nil
}

// Build returns a fresh cookie value for email.
func (c *Codec) Build(email string) (string, error) {
	marker, err := c.hasher.Hash(email)
	if err != nil {
		return "", fmt.Errorf("hash email marker: %w", err)
	}
	return Name + Delimiter + marker + Delimiter + c.secret, nil
}

// Parse splits a cookie value into its parts.
func Parse(value string) (Parts, error) {
	parts := strings.Split(value, Delimiter)
	if len(parts) < 3 {
		return Parts{}, ErrMalformed
	}
	return Parts{Tag: parts[0], Marker: parts[1], Secret: parts[2]}, nil
}

// Authenticate reports whether value carries the current secret and a marker matching email.
func (c *Codec) Authenticate(value, email string) bool {
	p, err := Parse(value)
	if err != nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(p.Secret), []byte(c.secret)) != 1 {
		return false
	}
	return c.hasher.Verify(email, p.Marker)
}

// Deploy sets the session cookie on the response.
func Deploy(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest returns the session cookie value, if present and non-empty.
func FromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
