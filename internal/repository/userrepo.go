// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/authgate/internal/model"
)

// UserRepository is the credential store: identities addressed by id or email.
type UserRepository interface {
	// Create inserts a new identity and fills ID, CreatedAt and UpdatedAt.
	// Returns errs.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, u *model.Identity) error
	// GetByID loads an identity by ID or returns errs.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Identity, error)
	// GetByEmail loads an identity by email or returns errs.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	// Save overwrites the mutable fields of an existing identity and refreshes UpdatedAt.
	Save(ctx context.Context, u *model.Identity) error
}
