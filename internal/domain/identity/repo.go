package identity

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no account exists for the given lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}
