package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"registry-backend/internal/shared/auth"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	signer, err := auth.NewSigner("test-secret", time.Hour, "test")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return NewService(NewMemoryRepo(), signer)
}

func TestSignupThenLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Signup(ctx, " Clerk@Example.com ", "pa55word")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	claims, err := svc.Signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "clerk@example.com" || claims.Role != auth.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.Login(ctx, "clerk@example.com", "pa55word"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Login(ctx, "clerk@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "pa55word"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignupRejectsDuplicateAndEmpty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "a@example.com", "x"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "A@example.com", "y"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Signup(ctx, "", "y"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMakeAdminOnlyFirstUserOrAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "first@example.com", "x"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	first, _ := svc.Repo.GetByEmail(ctx, "first@example.com")

	promoted, err := svc.MakeAdmin(ctx, first.Identity())
	if err != nil {
		t.Fatalf("MakeAdmin first: %v", err)
	}
	if promoted.Role != auth.RoleAdmin {
		t.Fatalf("expected admin role, got %q", promoted.Role)
	}

	if _, err := svc.Signup(ctx, "second@example.com", "x"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	second, _ := svc.Repo.GetByEmail(ctx, "second@example.com")
	if _, err := svc.MakeAdmin(ctx, second.Identity()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for second user, got %v", err)
	}

	// An admin may re-run the promotion on itself.
	if _, err := svc.MakeAdmin(ctx, promoted.Identity()); err != nil {
		t.Fatalf("MakeAdmin admin: %v", err)
	}
}

func TestLookupIdentityReadsCurrentRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "clerk@example.com", "x"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	user, _ := svc.Repo.GetByEmail(ctx, "clerk@example.com")
	if _, err := svc.Repo.SetRole(ctx, user.ID, auth.RoleAdmin); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	id, err := svc.LookupIdentity(ctx, user.ID)
	if err != nil {
		t.Fatalf("LookupIdentity: %v", err)
	}
	if id.Role != auth.RoleAdmin {
		t.Fatalf("expected fresh admin role, got %q", id.Role)
	}

	if _, err := svc.LookupIdentity(ctx, "missing"); !errors.Is(err, auth.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestUpsertFromAuthKeepsExistingRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpsertFromAuth(ctx, "g@example.com", "Gee"); err != nil {
		t.Fatalf("UpsertFromAuth: %v", err)
	}
	user, _ := svc.Repo.GetByEmail(ctx, "g@example.com")
	if _, err := svc.Repo.SetRole(ctx, user.ID, auth.RoleAdmin); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	token, err := svc.UpsertFromAuth(ctx, "G@example.com", "Gee Two")
	if err != nil {
		t.Fatalf("UpsertFromAuth second: %v", err)
	}
	claims, _ := svc.Signer.Verify(token)
	if claims.Subject != user.ID || claims.Role != auth.RoleAdmin {
		t.Fatalf("expected same user with admin role, got %+v", claims)
	}
}
