// Package service contains the application services behind the auth endpoints.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	pkgcrypto "github.com/and161185/authgate/internal/crypto"
	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/repository"
)

const (
	maxEmailLen = 254
	minNameLen  = 2
	maxNameLen  = 100
)

// AuthService defines account and credential operations.
type AuthService interface {
	// Register creates a non-admin, active account and signs it in.
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	// Login checks the password and issues a fresh token bundle.
	Login(ctx context.Context, email, password string) (AuthResult, error)
	// Profile loads an account by id.
	Profile(ctx context.Context, id int64) (*model.Identity, error)
	// Deactivate marks the target account inactive. The actor must be an admin.
	Deactivate(ctx context.Context, actor *model.Identity, targetID int64) (*model.Identity, error)
}

// RegisterInput is the caller-supplied part of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is an account together with the bundle issued for it.
type AuthResult struct {
	User   *model.Identity
	Bundle model.TokenBundle
}

// Issuer issues a token bundle for an identity.
type Issuer interface {
	Issue(u *model.Identity, now time.Time) (model.TokenBundle, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	hasher pkgcrypto.Hasher
	issuer Issuer
	now    func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, hasher pkgcrypto.Hasher, issuer Issuer) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, hasher: hasher, issuer: issuer, now: time.Now}
}

// Register validates the input, stores a hashed password and signs the new account in.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := validateRegister(in); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	u := &model.Identity{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsAdmin:      false,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return AuthResult{}, fmt.Errorf("user with email '%s' %w", in.Email, err)
		}
		return AuthResult{}, err
	}

	// tokens carry the id assigned by Create, so the row exists before they can be issued.
	// A failure here leaves a valid account that the user can log in to.
	res, err := s.signIn(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("account %d created, sign in to continue: %w", u.ID, err)
	}
	return res, nil
}

// Login authenticates by email and password.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{}, fmt.Errorf("email and password are required: %w", errs.ErrInvalidInput)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("user with email '%s' %w", email, err)
		}
		return AuthResult{}, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return AuthResult{}, fmt.Errorf("incorrect password: %w", errs.ErrForbidden)
	}
	if !u.IsActive {
		return AuthResult{}, fmt.Errorf("user with email '%s': %w", email, errs.ErrInactive)
	}

	return s.signIn(ctx, u)
}

// Profile loads the account with the given id.
func (s *AuthServiceImpl) Profile(ctx context.Context, id int64) (*model.Identity, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("user with id '%d' %w", id, err)
		}
		return nil, err
	}
	return u, nil
}

// Deactivate sets IsActive=false on the target account.
func (s *AuthServiceImpl) Deactivate(ctx context.Context, actor *model.Identity, targetID int64) (*model.Identity, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, fmt.Errorf("admin privileges required: %w", errs.ErrForbidden)
	}

	u, err := s.Profile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("user with id '%d' is %w", targetID, errs.ErrAlreadyInactive)
	}

	u.IsActive = false
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("deactivate user %d: %w", targetID, err)
	}
	return u, nil
}

// signIn issues a bundle, records its tokens on u and persists them.
func (s *AuthServiceImpl) signIn(ctx context.Context, u *model.Identity) (AuthResult, error) {
	bundle, err := s.issuer.Issue(u, s.now())
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	u.AccessToken = bundle.AccessToken
	u.RefreshToken = bundle.RefreshToken
	if err := s.users.Save(ctx, u); err != nil {
		return AuthResult{}, fmt.Errorf("persist tokens: %w", err)
	}
	return AuthResult{User: u, Bundle: bundle}, nil
}

func validateRegister(in RegisterInput) error {
	switch {
	case in.Email == "":
		return fmt.Errorf("email is required: %w", errs.ErrInvalidInput)
	case strings.IndexFunc(in.Email, unicode.IsSpace) >= 0:
		return fmt.Errorf("email must not contain whitespace: %w", errs.ErrInvalidInput)
	case len(in.Email) > maxEmailLen:
		return fmt.Errorf("email is longer than %d characters: %w", maxEmailLen, errs.ErrInvalidInput)
	case in.Password == "":
		return fmt.Errorf("password is required: %w", errs.ErrInvalidInput)
	}
	if in.Name != "" {
		if n := utf8.RuneCountInString(in.Name); n < minNameLen || n > maxNameLen {
			return fmt.Errorf("name must be %d to %d characters: %w", minNameLen, maxNameLen, errs.ErrInvalidInput)
		}
	}
	return nil
}
