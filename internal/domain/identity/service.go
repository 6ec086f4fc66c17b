package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match a registered account. Unknown username and wrong password produce
// the same error so the response does not leak which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidInput marks registration input that failed validation.
var ErrInvalidInput = errors.New("invalid input")

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	maxPasswordLen = 72 // bcrypt input limit
)

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

// Register creates a new account with the given role. The password is hashed
// with bcrypt before storage.
func (s *Service) Register(ctx context.Context, username, password, role string) (*User, error) {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
	}
	if len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, maxPasswordLen)
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, RoleDoctor, RolePatient)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies a login against the stored account. The submitted
// role must match the registered one; a correct password under the wrong
// role fails the same way as a wrong password.
func (s *Service) Authenticate(ctx context.Context, username, password, role string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Role != role {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByUsername looks up an account by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}
