// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/gate layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates missing or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates a valid credential without sufficient privilege, or a wrong password.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyInactive is returned when deactivating an account that is already inactive.
	ErrAlreadyInactive = errors.New("already inactive")

	// ErrInactive indicates the account has been deactivated.
	ErrInactive = errors.New("account inactive")
)
