package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/authgate/internal/errs"
)

func TestSessionGate_BypassesPublicPaths(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	g := NewSessionGate(f.cfg)

	for _, p := range []string{"/", "/api", "/api/", "/api/v1/auth/log-in", "/api/v1/auth/register"} {
		st := &State{Path: p}
		require.Nil(t, g.Admit(context.Background(), st), p)
		require.True(t, st.Bypassed)
		require.Nil(t, st.Identity)
	}
	require.Zero(t, f.users.lookups)
}

func TestSessionGate_Admits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	g := NewSessionGate(f.cfg)

	st := f.state("/api/v1/user/profile/1")
	require.Nil(t, g.Admit(context.Background(), st))
	require.False(t, st.Bypassed)
	require.Equal(t, f.user.ID, st.Identity.ID)
	require.Equal(t, SessionActive, st.SessionStatus)
	require.Nil(t, st.Bundle, "no renewal at the session stage")
}

func TestSessionGate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(f *fixture, st *State)
		kind   error
		msg    string
	}{
		{
			name:   "no cookie",
			mutate: func(_ *fixture, st *State) { st.Cookie = "" },
			kind:   errs.ErrUnauthorized,
			msg:    msgNoCookie,
		},
		{
			name:   "no email header",
			mutate: func(_ *fixture, st *State) { st.Email = "" },
			kind:   errs.ErrInvalidInput,
			msg:    msgMissingHeaders,
		},
		{
			name:   "no authorization header",
			mutate: func(_ *fixture, st *State) { st.Authorization = "" },
			kind:   errs.ErrInvalidInput,
			msg:    msgMissingHeaders,
		},
		{
			name:   "malformed cookie",
			mutate: func(_ *fixture, st *State) { st.Cookie = "garbage" },
			kind:   errs.ErrUnauthorized,
			msg:    msgBadCookie,
		},
		{
			name:   "cookie for another email",
			mutate: func(_ *fixture, st *State) { st.Email = "b@x.com" },
			kind:   errs.ErrUnauthorized,
			msg:    msgBadCookie,
		},
		{
			name: "unknown identity",
			mutate: func(f *fixture, st *State) {
				ck, err := f.cookies.Build("ghost@x.com")
				if err != nil {
					panic(err)
				}
				st.Cookie, st.Email = ck, "ghost@x.com"
			},
			kind: errs.ErrNotFound,
			msg:  "User with email: 'ghost@x.com' not found or does not exist.",
		},
		{
			name:   "expired refresh token",
			mutate: func(f *fixture, _ *State) { f.now = t0.Add(25 * time.Hour) },
			kind:   errs.ErrUnauthorized,
			msg:    msgSessionExpired,
		},
		{
			name: "malformed refresh token",
			mutate: func(f *fixture, _ *State) {
				f.user.RefreshToken = "not-a-jwt"
				if err := f.users.Save(context.Background(), f.user); err != nil {
					panic(err)
				}
			},
			kind: errs.ErrUnauthorized,
			msg:  msgSessionInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			st := f.state("/api/v1/user/profile/1")
			tc.mutate(f, st)

			rej := NewSessionGate(f.cfg).Admit(context.Background(), st)
			requireRejected(t, rej, tc.kind, tc.msg)
			require.Nil(t, st.Identity)
		})
	}
}

func TestSessionGate_ExpiredSessionRunsHook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.now = t0.Add(48 * time.Hour)

	rej := NewSessionGate(f.cfg).Admit(context.Background(), f.state("/api/v1/user/"))
	requireRejected(t, rej, errs.ErrUnauthorized, msgSessionExpired)
	require.Equal(t, []int64{f.user.ID}, f.expired)
}

func TestSessionGate_StoreErrorIsNotNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	boom := errors.New("db down")
	f.users.getErr = boom

	rej := NewSessionGate(f.cfg).Admit(context.Background(), f.state("/api/v1/user/"))
	require.NotNil(t, rej)
	require.ErrorIs(t, rej, boom)
	require.NotErrorIs(t, rej, errs.ErrNotFound)
}

func TestSessionGate_EnforceTokenType(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// an access token in the refresh slot verifies unless the type is enforced
	f.user.RefreshToken = f.bundle.AccessToken
	require.NoError(t, f.users.Save(context.Background(), f.user))

	require.Nil(t, NewSessionGate(f.cfg).Admit(context.Background(), f.state("/api/v1/user/")))

	f.cfg.EnforceTokenType = true
	rej := NewSessionGate(f.cfg).Admit(context.Background(), f.state("/api/v1/user/"))
	requireRejected(t, rej, errs.ErrUnauthorized, msgSessionInvalid)
}

// The gate admits iff the path is public, or every credential check passes.
func TestSessionGate_AdmissionPredicate(t *testing.T) {
	t.Parallel()

	type flags struct{ cookie, headers, authentic, found, fresh bool }
	all := []flags{}
	for i := 0; i < 32; i++ {
		all = append(all, flags{i&1 != 0, i&2 != 0, i&4 != 0, i&8 != 0, i&16 != 0})
	}

	for _, fl := range all {
		f := newFixture(t)
		st := f.state("/api/v1/user/")
		if !fl.cookie {
			st.Cookie = ""
		} else if !fl.authentic {
			st.Cookie = st.Cookie + "x"
		}
		if !fl.headers {
			st.Authorization = ""
		}
		if !fl.found {
			f.users.getErr = errs.ErrNotFound
		}
		if !fl.fresh {
			f.now = t0.Add(25 * time.Hour)
		}

		want := fl.cookie && fl.headers && fl.authentic && fl.found && fl.fresh
		rej := NewSessionGate(f.cfg).Admit(context.Background(), st)
		require.Equal(t, want, rej == nil, "%+v: %v", fl, rej)

		pub := f.state("/api")
		pub.Cookie, pub.Authorization = "", ""
		require.Nil(t, NewSessionGate(f.cfg).Admit(context.Background(), pub))
	}
}
