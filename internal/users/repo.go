package users

import (
	"context"
	"errors"

	"registry-backend/internal/shared/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("User already exists")
	ErrInvalidCredentials = errors.New("Invalid Credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
)

// Repo persists registry users.
type Repo interface {
	// Create inserts a new user; ErrEmailTaken when the email exists.
	Create(ctx context.Context, user User) error
	// UpsertByEmail creates the user or refreshes name/provider on an
	// existing email, keeping its id and role.
	UpsertByEmail(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	SetRole(ctx context.Context, userID string, role auth.Role) (User, error)
	Count(ctx context.Context) (int, error)
}
