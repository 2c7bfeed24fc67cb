package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/telemetry"
)

type Service struct {
	Repo   Repo
	Signer *auth.Signer
}

func NewService(repo Repo, signer *auth.Signer) *Service {
	return &Service{Repo: repo, Signer: signer}
}

// Signup registers a local user with the least privileged role and returns a
// signed token.
func (s *Service) Signup(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     ProviderLocal,
		Role:         auth.RoleUser,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return "", err
	}
	telemetry.Info("user.signup", map[string]any{"user_id": user.ID})
	return s.Signer.Sign(user.Identity())
}

// Login checks the password and returns a signed token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.Signer.Sign(user.Identity())
}

// UpsertFromAuth persists an externally authenticated user (Google sign-in)
// and returns a token for it.
func (s *Service) UpsertFromAuth(ctx context.Context, email, name string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.Repo.UpsertByEmail(ctx, User{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     strings.TrimSpace(name),
		Provider: ProviderGoogle,
		Role:     auth.RoleUser,
	})
	if err != nil {
		return "", err
	}
	return s.Signer.Sign(user.Identity())
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// MakeAdmin promotes the caller. Allowed only when the caller is the sole
// registered user or already an admin.
func (s *Service) MakeAdmin(ctx context.Context, id auth.Identity) (User, error) {
	if id.Role != auth.RoleAdmin {
		count, err := s.Repo.Count(ctx)
		if err != nil {
			return User{}, err
		}
		if count != 1 {
			return User{}, ErrForbidden
		}
	}
	user, err := s.Repo.SetRole(ctx, id.UserID, auth.RoleAdmin)
	if err != nil {
		return User{}, err
	}
	telemetry.Info("user.promoted", map[string]any{"user_id": user.ID})
	return user, nil
}

// LookupIdentity resolves a token subject to its current identity.
func (s *Service) LookupIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Identity{}, auth.ErrUnknownUser
		}
		return auth.Identity{}, err
	}
	return user.Identity(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
