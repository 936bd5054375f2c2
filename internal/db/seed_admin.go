package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/security"
)

// EnsureAdminUser seeds the one ADMIN account from config. Registration only
// ever produces USER-role accounts, so this is the sole way an admin exists.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    time.Now().UTC().UnixMilli(),
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
	)

	return err
}
