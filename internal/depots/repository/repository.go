// Package repository persists depots and resolves the depot of a warehouse
// user through the users table.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Depot struct {
	ID              int64
	Name            string
	NeedDoubleCheck bool
}

func (r *Repository) List(ctx context.Context) ([]Depot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, need_double_check
		FROM depots
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depots []Depot
	for rows.Next() {
		var d Depot
		if err := rows.Scan(&d.ID, &d.Name, &d.NeedDoubleCheck); err != nil {
			return nil, err
		}
		depots = append(depots, d)
	}
	return depots, rows.Err()
}

func (r *Repository) ByID(ctx context.Context, id int64) (Depot, error) {
	var d Depot
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, need_double_check
		FROM depots WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.NeedDoubleCheck)
	if errors.Is(err, pgx.ErrNoRows) {
		return Depot{}, ErrNotFound
	}
	return d, err
}

// ByUser resolves the depot a user is attached to.
func (r *Repository) ByUser(ctx context.Context, userID int64) (Depot, error) {
	var d Depot
	err := r.pool.QueryRow(ctx, `
		SELECT d.id, d.name, d.need_double_check
		FROM depots d
		JOIN users u ON u.depot_id = d.id
		WHERE u.id = $1 AND u.is_active
	`, userID).Scan(&d.ID, &d.Name, &d.NeedDoubleCheck)
	if errors.Is(err, pgx.ErrNoRows) {
		return Depot{}, ErrNotFound
	}
	return d, err
}

// SetDoubleCheck flips the double-check policy flag.
func (r *Repository) SetDoubleCheck(ctx context.Context, id int64, need bool) (Depot, error) {
	var d Depot
	err := r.pool.QueryRow(ctx, `
		UPDATE depots SET need_double_check = $1
		WHERE id = $2
		RETURNING id, name, need_double_check
	`, need, id).Scan(&d.ID, &d.Name, &d.NeedDoubleCheck)
	if errors.Is(err, pgx.ErrNoRows) {
		return Depot{}, ErrNotFound
	}
	return d, err
}
