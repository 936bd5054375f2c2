// Package service holds the business rules between the HTTP layer and the
// stores: identity registration/login, the inventory lifecycle and the role
// guard. Stores are injected as small interfaces so tests can swap in the
// memory implementations.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type IdentityService struct {
	store UserStore
}

func NewIdentityService(store UserStore) *IdentityService {
	return &IdentityService{store: store}
}

// Register creates a new USER-role account. Username uniqueness is checked
// before email, so a request that collides on both reports the username.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (user.User, error) {
	taken, err := s.store.ExistsByUsername(ctx, username)

	if err != nil {
		return user.User{}, err
	}

	if taken {
		return user.User{}, user.ErrDuplicateUsername
	}

	taken, err = s.store.ExistsByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	if taken {
		return user.User{}, user.ErrDuplicateEmail
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return user.User{}, err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    time.Now().UTC().UnixMilli(),
	}

	return s.store.Create(ctx, u)
}

// Authenticate returns the full user record on a password match. Unknown
// username and wrong password produce the identical error so callers cannot
// probe which usernames exist.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.store.GetByUsername(ctx, username)

	if err != nil {
		return user.User{}, user.ErrInvalidCredentials
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, user.ErrInvalidCredentials
	}

	return u, nil
}

// ByUsername is the lookup the role guard uses; absence comes back as
// ErrInvalidCredentials, same as a failed login.
func (s *IdentityService) ByUsername(ctx context.Context, username string) (user.User, error) {
	u, err := s.store.GetByUsername(ctx, username)

	if err != nil {
		return user.User{}, user.ErrInvalidCredentials
	}

	return u, nil
}
