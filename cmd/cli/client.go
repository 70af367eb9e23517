package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const sessionCookieName = "Fast_Django_Backend_Template"

// envelope mirrors the server's response body.
type envelope struct {
	ResponseMessage string          `json:"response_message"`
	Response        json.RawMessage `json:"response"`
	Error           string          `json:"error"`
	SessionStatus   string          `json:"sessionStatus"`
}

type profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type authPayload struct {
	User   profile `json:"user"`
	Tokens *struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

// apiError is a non-2xx envelope.
type apiError struct {
	Status  int
	Tag     string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Tag, e.Message)
}

type client struct {
	base string
	hc   *http.Client
}

func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // dev only
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

func newClient(base, caPath string, insecure bool) (*client, error) {
	tc, err := loadTLS(caPath, insecure)
	if err != nil {
		return nil, err
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tc
	return &client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Transport: tr, Timeout: 30 * time.Second},
	}, nil
}

// call sends one request. With a signed-in session it attaches the gate credentials; any
// session passed in receives the tokens and cookie the server hands back.
func (c *client) call(ctx context.Context, method, path string, body any, s *sessionFile) (*envelope, *authPayload, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s != nil && s.Cookie != "" {
		req.Header.Set("email", s.Email)
		req.Header.Set("authorization", "Bearer "+s.AccessToken)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: s.Cookie})
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode/100 != 2 {
		return &env, nil, &apiError{Status: resp.StatusCode, Tag: env.Error, Message: env.ResponseMessage}
	}

	var p authPayload
	if len(env.Response) > 0 {
		_ = json.Unmarshal(env.Response, &p)
	}
	if s != nil {
		absorb(s, &p, resp.Cookies())
	}
	return &env, &p, nil
}

// absorb copies renewed credentials into s.
func absorb(s *sessionFile, p *authPayload, cookies []*http.Cookie) {
	if p.Tokens != nil {
		s.AccessToken = p.Tokens.AccessToken
		s.RefreshToken = p.Tokens.RefreshToken
	}
	if p.User.ID != 0 && p.User.Email == s.Email {
		s.UserID = p.User.ID
	}
	for _, ck := range cookies {
		if ck.Name == sessionCookieName && ck.Value != "" {
			s.Cookie = ck.Value
		}
	}
}
