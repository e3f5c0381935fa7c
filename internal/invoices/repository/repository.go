// Package repository persists invoices and their immutable order lines. The
// delivery engine writes invoice delivery state through its own transaction;
// this repository only serves the read API.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

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

type Invoice struct {
	ID                 int64
	Number             string
	Status             string
	IsCompleted        bool
	IsCompleteDelivery bool
	DeliveredAt        *time.Time
	TotalCents         int64
	CreatedAt          time.Time
}

type Line struct {
	Reference      string
	Designation    string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}

type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `
		SELECT i.id, i.number, i.status, i.is_completed, i.is_complete_delivery, i.delivered_at,
		       COALESCE(SUM(l.total_cents), 0), i.created_at
		FROM invoices i
		LEFT JOIN invoice_lines l ON l.invoice_id = i.id
	`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE i.status = $1`
		args = append(args, filter.Status)
	}
	query += `
		GROUP BY i.id
		ORDER BY i.created_at DESC, i.id DESC
	`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit) + ` OFFSET ` + strconv.Itoa(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID,
			&inv.Number,
			&inv.Status,
			&inv.IsCompleted,
			&inv.IsCompleteDelivery,
			&inv.DeliveredAt,
			&inv.TotalCents,
			&inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *Repository) ByNumber(ctx context.Context, number string) (Invoice, []Line, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT i.id, i.number, i.status, i.is_completed, i.is_complete_delivery, i.delivered_at,
		       COALESCE(SUM(l.total_cents), 0), i.created_at
		FROM invoices i
		LEFT JOIN invoice_lines l ON l.invoice_id = i.id
		WHERE i.number = $1
		GROUP BY i.id
	`, number).Scan(
		&inv.ID,
		&inv.Number,
		&inv.Status,
		&inv.IsCompleted,
		&inv.IsCompleteDelivery,
		&inv.DeliveredAt,
		&inv.TotalCents,
		&inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, nil, ErrNotFound
	}
	if err != nil {
		return Invoice{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT reference, designation, quantity, unit_price_cents, total_cents
		FROM invoice_lines WHERE invoice_id = $1
		ORDER BY reference
	`, inv.ID)
	if err != nil {
		return Invoice{}, nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(
			&line.Reference,
			&line.Designation,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.TotalCents,
		); err != nil {
			return Invoice{}, nil, err
		}
		lines = append(lines, line)
	}
	return inv, lines, rows.Err()
}
