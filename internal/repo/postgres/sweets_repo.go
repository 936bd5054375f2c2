package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sweetshop/api/internal/domain/sweet"
	"github.com/sweetshop/api/internal/observability"
)

const sweetColumns = `id, name, category, price::text, quantity, description, created_at, updated_at`

type SweetsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewSweetsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SweetsRepo {
	return &SweetsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *SweetsRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

// price travels as text both ways so NUMERIC stays exact end to end.
func scanSweet(row pgx.Row) (sweet.Sweet, error) {
	var s sweet.Sweet
	var price string

	err := row.Scan(&s.ID, &s.Name, &s.Category, &price, &s.Quantity, &s.Description, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return sweet.Sweet{}, err
	}

	s.Price, err = decimal.NewFromString(price)

	if err != nil {
		return sweet.Sweet{}, err
	}

	return s, nil
}

func (r *SweetsRepo) Create(ctx context.Context, s sweet.Sweet) (sweet.Sweet, error) {
	err := r.observe("sweets.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sweets (id, name, category, price, quantity, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
			s.ID, s.Name, s.Category, s.Price.String(), s.Quantity, s.Description, s.CreatedAt, s.UpdatedAt)
		return err
	})

	if err != nil {
		return sweet.Sweet{}, err
	}

	return s, nil
}

func (r *SweetsRepo) GetByID(ctx context.Context, id string) (sweet.Sweet, error) {
	var s sweet.Sweet

	err := r.observe("sweets.get_by_id", func() error {
		var err error
		s, err = scanSweet(r.pool.QueryRow(ctx,
			`SELECT `+sweetColumns+` FROM sweets WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sweet.Sweet{}, sweet.ErrNotFound
		}

		return sweet.Sweet{}, err
	}

	return s, nil
}

func (r *SweetsRepo) List(ctx context.Context) ([]sweet.Sweet, error) {
	return r.queryMany(ctx, "sweets.list", `SELECT `+sweetColumns+` FROM sweets`)
}

// Search builds the WHERE clause from whichever filters are present:
// ILIKE substring on name, exact category, inclusive price bounds.
func (r *SweetsRepo) Search(ctx context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.Name != nil {
		conds = append(conds, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argsPosition))
		args = append(args, *f.Name)
		argsPosition++
	}

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *f.Category)
		argsPosition++
	}

	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price >= $%d::numeric", argsPosition))
		args = append(args, f.MinPrice.String())
		argsPosition++
	}

	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price <= $%d::numeric", argsPosition))
		args = append(args, f.MaxPrice.String())
		argsPosition++
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	return r.queryMany(ctx, "sweets.search", query, args...)
}

func (r *SweetsRepo) queryMany(ctx context.Context, op, query string, args ...interface{}) ([]sweet.Sweet, error) {
	output := make([]sweet.Sweet, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			s, err := scanSweet(rows)

			if err != nil {
				return err
			}

			output = append(output, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *SweetsRepo) Update(ctx context.Context, id string, req sweet.SweetRequest, updatedAt int64) (sweet.Sweet, error) {
	var s sweet.Sweet

	err := r.observe("sweets.update", func() error {
		var err error
		s, err = scanSweet(r.pool.QueryRow(
			ctx,
			`UPDATE sweets
				SET name = $2,
						category = $3,
						price = $4::numeric,
						quantity = $5,
						description = $6,
						updated_at = $7
			WHERE id = $1
			RETURNING `+sweetColumns,
			id,
			req.Name,
			req.Category,
			req.Price.String(),
			req.Quantity,
			req.Description,
			updatedAt,
		))
		return err
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return sweet.Sweet{}, sweet.ErrNotFound
		}
		// if it is any other type of error
		return sweet.Sweet{}, err
	}

	return s, nil
}

func (r *SweetsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("sweets.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sweets WHERE id = $1`, id)

		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return sweet.ErrNotFound
		}

		return nil
	})
}

// Purchase is a single conditional UPDATE: the sufficiency check and the
// decrement happen inside one statement, so two concurrent purchases cannot
// both pass the check against a stale quantity and overdraw the stock.
func (r *SweetsRepo) Purchase(ctx context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error) {
	var s sweet.Sweet

	err := r.observe("sweets.purchase", func() error {
		var err error
		s, err = scanSweet(r.pool.QueryRow(ctx,
			`UPDATE sweets
				SET quantity = quantity - $2,
						updated_at = $3
			WHERE id = $1 AND quantity >= $2
			RETURNING `+sweetColumns,
			id, quantity, updatedAt,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// either the row is missing or the stock is short; look again to tell
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return sweet.Sweet{}, getErr
			}

			return sweet.Sweet{}, sweet.ErrInsufficientStock
		}

		return sweet.Sweet{}, err
	}

	return s, nil
}

func (r *SweetsRepo) Restock(ctx context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error) {
	var s sweet.Sweet

	err := r.observe("sweets.restock", func() error {
		var err error
		s, err = scanSweet(r.pool.QueryRow(ctx,
			`UPDATE sweets
				SET quantity = quantity + $2,
						updated_at = $3
			WHERE id = $1
			RETURNING `+sweetColumns,
			id, quantity, updatedAt,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sweet.Sweet{}, sweet.ErrNotFound
		}

		return sweet.Sweet{}, err
	}

	return s, nil
}
