package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

// Create inserts the user. The unique indexes are the backstop for the
// service-level duplicate checks; a 23505 is mapped back onto the same
// duplicate errors so concurrent registrations stay correct.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, username, email, password_hash, role, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return user.User{}, user.ErrDuplicateEmail
			}
			return user.User{}, user.ErrDuplicateUsername
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var role string

	err := r.observe("users.get_by_username", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, username, email, password_hash, role, created_at
			 FROM users
			 WHERE username = $1`,
			username,
		).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&role,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	u.Role = user.Role(role)

	return u, nil
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool

	err := r.observe("users.exists_by_username", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
		).Scan(&exists)
	})

	return exists, err
}

func (r *UsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.observe("users.exists_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
		).Scan(&exists)
	})

	return exists, err
}
