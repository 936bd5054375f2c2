// Package memory holds mutex-guarded in-memory stores with the same
// semantics as the postgres repos. They back tests and DB-less local runs.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sweetshop/api/internal/domain/user"
)

var ErrUserNotFound = errors.New("user not found")

type UsersRepo struct {
	mu      sync.RWMutex
	byName  map[string]user.User
	byEmail map[string]string // email -> username
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byName:  make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// same backstop order as the unique indexes: username first
	if _, ok := r.byName[u.Username]; ok {
		return user.User{}, user.ErrDuplicateUsername
	}

	if _, ok := r.byEmail[u.Email]; ok {
		return user.User{}, user.ErrDuplicateEmail
	}

	r.byName[u.Username] = u
	r.byEmail[u.Email] = u.Username

	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]

	if !ok {
		return user.User{}, ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[username]

	return ok, nil
}

func (r *UsersRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]

	return ok, nil
}
