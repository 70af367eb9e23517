package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/authgate/internal/cookie"
	"github.com/and161185/authgate/internal/crypto"
	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/repository"
	"github.com/and161185/authgate/internal/repository/memory"
	"github.com/and161185/authgate/internal/token"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

const secret = "gate-secret"

// countingUsers counts email lookups and can inject failures.
type countingUsers struct {
	repository.UserRepository
	lookups int
	getErr  error
	saveErr error
}

func (c *countingUsers) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	c.lookups++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.UserRepository.GetByEmail(ctx, email)
}

func (c *countingUsers) Save(ctx context.Context, u *model.Identity) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.UserRepository.Save(ctx, u)
}

type failingIssuer struct{}

func (failingIssuer) Issue(*model.Identity, time.Time) (model.TokenBundle, error) {
	return model.TokenBundle{}, errors.New("issuer down")
}

type fixture struct {
	now     time.Time
	users   *countingUsers
	codec   *token.Codec
	cookies *cookie.Codec
	cfg     Config

	user    *model.Identity
	bundle  model.TokenBundle
	expired []int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher := crypto.NewArgon2(crypto.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	ck, err := cookie.NewCodec(secret, hasher)
	require.NoError(t, err)

	f := &fixture{
		now:     t0,
		users:   &countingUsers{UserRepository: memory.NewUserRepo()},
		codec:   token.NewCodec([]byte(secret), token.DefaultTTLs()),
		cookies: ck,
	}
	bundler := token.NewBundler(f.codec, f.cookies)

	ctx := context.Background()
	f.user = &model.Identity{Email: "a@x.com", IsActive: true}
	require.NoError(t, f.users.Create(ctx, f.user))
	f.bundle, err = bundler.Issue(f.user, t0)
	require.NoError(t, err)
	f.user.AccessToken = f.bundle.AccessToken
	f.user.RefreshToken = f.bundle.RefreshToken
	require.NoError(t, f.users.Save(ctx, f.user))

	f.cfg = Config{
		Allow:   DefaultAllowlist(),
		Cookies: f.cookies,
		Users:   f.users,
		Tokens:  f.codec,
		Issuer:  bundler,
		Now:     func() time.Time { return f.now },
		Log:     zaptest.NewLogger(t),
		OnSessionExpired: func(_ context.Context, u *model.Identity) {
			f.expired = append(f.expired, u.ID)
		},
	}
	return f
}

func (f *fixture) state(path string) *State {
	return &State{
		Path:          path,
		Cookie:        f.bundle.SessionCookie,
		Email:         f.user.Email,
		Authorization: "Bearer " + f.bundle.AccessToken,
	}
}

func requireRejected(t *testing.T, rej *Rejection, kind error, msg string) {
	t.Helper()
	require.NotNil(t, rej, "expected rejection")
	require.ErrorIs(t, rej, kind)
	require.Equal(t, msg, rej.Message)
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	a := DefaultAllowlist()
	for path, want := range map[string]bool{
		"/":                           true,
		"/api":                        true,
		"/api/":                       true,
		"/api/v1/auth/log-in":         true,
		"/api/v1/auth/log-in/":        true,
		"/api/v1/auth/register":       true,
		"/api/v1/auth/registerations": true,
		"/api/v1":                     false,
		"/api/v1/auth/":               false,
		"/api/v1/user/profile/5":      false,
		"/apix":                       false,
		"":                            false,
	} {
		require.Equal(t, want, a.Allows(path), "path=%q", path)
	}
}

func TestPipeline_StopsAtFirstRejectionAndOnBypass(t *testing.T) {
	t.Parallel()

	var calls []string
	stage := func(name string, rej *Rejection, bypass bool) Stage {
		return stageFunc(func(_ context.Context, st *State) *Rejection {
			calls = append(calls, name)
			st.Bypassed = bypass
			return rej
		})
	}

	calls = nil
	rej := Pipeline{stage("a", nil, false), stage("b", &Rejection{Kind: errs.ErrUnauthorized}, false), stage("c", nil, false)}.
		Run(context.Background(), &State{})
	require.NotNil(t, rej)
	require.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	rej = Pipeline{stage("a", nil, true), stage("b", nil, false)}.Run(context.Background(), &State{})
	require.Nil(t, rej)
	require.Equal(t, []string{"a"}, calls)
}

type stageFunc func(ctx context.Context, st *State) *Rejection

func (f stageFunc) Admit(ctx context.Context, st *State) *Rejection { return f(ctx, st) }
