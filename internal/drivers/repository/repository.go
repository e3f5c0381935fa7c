// Package repository is the read-only driver directory.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Driver struct {
	ID       int64
	FullName string
	Phone    string
	IsActive bool
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Driver, error) {
	query := `
		SELECT id, full_name, phone, is_active
		FROM drivers
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY full_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.FullName, &d.Phone, &d.IsActive); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// Exists reports whether an active driver with the id exists.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM drivers WHERE id = $1 AND is_active)
	`, id).Scan(&exists)
	return exists, err
}
