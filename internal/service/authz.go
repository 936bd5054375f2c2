package service

import (
	"context"
	"errors"

	"github.com/sweetshop/api/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("only admins can perform this action")
)

// UserDirectory resolves an identity (username) to its stored record.
type UserDirectory interface {
	ByUsername(ctx context.Context, username string) (user.User, error)
}

// Guard is a pure permit/deny decision over (identity, required role). The
// role always comes from a fresh directory read, never from token claims, so
// a demoted or deleted account loses access as soon as its row changes.
type Guard struct {
	users UserDirectory
}

func NewGuard(users UserDirectory) *Guard {
	return &Guard{users: users}
}

// Require returns nil when the identity exists and holds the required role.
// An empty required role only demands an authenticated identity. Lookup
// failures pass through as user.ErrInvalidCredentials (treated as
// unauthenticated by the API layer).
func (g *Guard) Require(ctx context.Context, identity string, required user.Role) error {
	if identity == "" {
		return ErrUnauthenticated
	}

	u, err := g.users.ByUsername(ctx, identity)

	if err != nil {
		return err
	}

	if required != "" && u.Role != required {
		return ErrForbidden
	}

	return nil
}
