// Package memory is an in-process UserRepository for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/model"
)

// UserRepo keeps identities in a map guarded by a mutex. Returned values are copies.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[int64]*model.Identity
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

// NewUserRepo constructs an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[int64]*model.Identity),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// Create inserts u, assigning the next ID.
func (r *UserRepo) Create(_ context.Context, u *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return errs.ErrAlreadyExists
	}
	r.nextID++
	now := r.now().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now

	cpy := *u
	r.byID[u.ID] = &cpy
	r.byEmail[u.Email] = u.ID
	return nil
}

// GetByID returns a copy of the identity with id.
func (r *UserRepo) GetByID(_ context.Context, id int64) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

// GetByEmail returns a copy of the identity with email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *r.byID[id]
	return &cpy, nil
}

// Save replaces the stored identity. Email and CreatedAt are immutable.
func (r *UserRepo) Save(_ context.Context, u *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return errs.ErrNotFound
	}
	u.Email = cur.Email
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = r.now().UTC()

	cpy := *u
	r.byID[u.ID] = &cpy
	return nil
}
