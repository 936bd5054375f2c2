package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Timestamps are epoch millis (BIGINT); price is NUMERIC so it round-trips
// exactly. The CHECK constraints restate the domain invariants at the
// lowest layer that can hold them.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    BIGINT NOT NULL,
	CONSTRAINT users_username_key UNIQUE (username),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS sweets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	price       NUMERIC(10,2) NOT NULL CHECK (price > 0),
	quantity    INTEGER NOT NULL CHECK (quantity >= 0),
	description TEXT NOT NULL,
	created_at  BIGINT NOT NULL,
	updated_at  BIGINT NOT NULL
);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}
