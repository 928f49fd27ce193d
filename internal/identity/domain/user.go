package identity

import (
	"context"
	"errors"
	"time"

	"dronelink-cloud/internal/auth"
)

// User is a registered account in the identity store.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
}

var (
	ErrDuplicateUsername  = errors.New("identity: username already taken")
	ErrNotFound           = errors.New("identity: user not found")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)

// Repository persists user accounts.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}
