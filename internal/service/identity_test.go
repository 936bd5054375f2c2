package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/repo/memory"
	"github.com/sweetshop/api/internal/security"
	"github.com/sweetshop/api/internal/service"
)

func newIdentity() *service.IdentityService {
	return service.NewIdentityService(memory.NewUsersRepo())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newIdentity()

	u, err := svc.Register(ctx, "sam", "sam@example.com", "password123")

	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if u.ID == "" {
		t.Fatalf("expected an assigned id")
	}

	if u.Role != user.RoleUser {
		t.Fatalf("got role %q, want %q", u.Role, user.RoleUser)
	}

	if u.CreatedAt == 0 {
		t.Fatalf("expected createdAt to be set")
	}

	// stored hash must verify, and must not be the raw password
	if u.PasswordHash == "password123" {
		t.Fatalf("password stored in the clear")
	}

	if err := security.CheckPassword(u.PasswordHash, "password123"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_DuplicateOrdering(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{
			name:     "duplicate_username",
			username: "sam",
			email:    "fresh@example.com",
			wantErr:  user.ErrDuplicateUsername,
		},
		{
			name:     "duplicate_email",
			username: "fresh",
			email:    "sam@example.com",
			wantErr:  user.ErrDuplicateEmail,
		},
		{
			// both collide: the username check runs first
			name:     "duplicate_both",
			username: "sam",
			email:    "sam@example.com",
			wantErr:  user.ErrDuplicateUsername,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := newIdentity()

			if _, err := svc.Register(ctx, "sam", "sam@example.com", "password123"); err != nil {
				t.Fatalf("seed register failed: %v", err)
			}

			_, err := svc.Register(ctx, tt.username, tt.email, "password123")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newIdentity()

	if _, err := svc.Register(ctx, "sam", "sam@example.com", "password123"); err != nil {
		t.Fatalf("seed register failed: %v", err)
	}

	u, err := svc.Authenticate(ctx, "sam", "password123")

	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if u.Username != "sam" || u.Email != "sam@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := newIdentity()

	if _, err := svc.Register(ctx, "sam", "sam@example.com", "password123"); err != nil {
		t.Fatalf("seed register failed: %v", err)
	}

	_, unknownErr := svc.Authenticate(ctx, "ghost", "password123")
	_, wrongPassErr := svc.Authenticate(ctx, "sam", "wrong-password")

	if !errors.Is(unknownErr, user.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", unknownErr)
	}

	if !errors.Is(wrongPassErr, user.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", wrongPassErr)
	}

	// same sentinel both ways, nothing to probe usernames with
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("failure modes are distinguishable: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestByUsername(t *testing.T) {
	ctx := context.Background()
	svc := newIdentity()

	if _, err := svc.Register(ctx, "sam", "sam@example.com", "password123"); err != nil {
		t.Fatalf("seed register failed: %v", err)
	}

	u, err := svc.ByUsername(ctx, "sam")

	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if u.Username != "sam" {
		t.Fatalf("got username %q, want %q", u.Username, "sam")
	}

	if _, err := svc.ByUsername(ctx, "ghost"); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Fatalf("missing user: got %v, want ErrInvalidCredentials", err)
	}
}
