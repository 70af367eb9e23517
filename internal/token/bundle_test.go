package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
)

type stubCookies struct {
	err  error
	seen string
}

func (s *stubCookies) Build(email string) (string, error) {
	s.seen = email
	if s.err != nil {
		return "", s.err
	}
	return "cookie:" + email, nil
}

func TestBundler_Issue(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	ck := &stubCookies{}
	b := NewBundler(c, ck)

	bundle, err := b.Issue(&model.Identity{ID: 5, Email: "a@x.com"}, t0)
	require.NoError(t, err)
	require.Equal(t, "cookie:a@x.com", bundle.SessionCookie)

	access := c.Verify(bundle.AccessToken, t0)
	require.Equal(t, Valid, access.Status)
	require.Equal(t, model.TokenAccess, access.Claims.TokenType)
	require.Equal(t, t0.Add(c.TTL(model.TokenAccess)), access.Claims.ExpiresAt)

	refresh := c.Verify(bundle.RefreshToken, t0)
	require.Equal(t, Valid, refresh.Status)
	require.Equal(t, model.TokenRefresh, refresh.Claims.TokenType)
	require.Equal(t, t0.Add(c.TTL(model.TokenRefresh)), refresh.Claims.ExpiresAt)
}

func TestBundler_Errors(t *testing.T) {
	t.Parallel()

	b := NewBundler(newTestCodec(), &stubCookies{})
	_, err := b.Issue(&model.Identity{Email: "a@x.com"}, t0)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	boom := errors.New("hash failed")
	b = NewBundler(newTestCodec(), &stubCookies{err: boom})
	_, err = b.Issue(&model.Identity{ID: 1, Email: "a@x.com"}, t0)
	require.ErrorIs(t, err, boom)
}
