// Package repository persists the append-only activity trail of the delivery
// engine.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Entry struct {
	ID        int64
	ActorID   int64
	Action    string
	Role      string
	InvoiceID int64
	Metadata  json.RawMessage
	CreatedAt time.Time
}

type InsertParams struct {
	ActorID   int64
	Action    string
	Role      string
	InvoiceID int64
	Metadata  any
}

func (r *Repository) Insert(ctx context.Context, p InsertParams) error {
	payload, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_logs (actor_id, action, role, invoice_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ActorID, p.Action, p.Role, p.InvoiceID, payload)
	return err
}

// ListByInvoiceNumber returns the audit trail of one invoice, oldest first.
func (r *Repository) ListByInvoiceNumber(ctx context.Context, number string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.actor_id, a.action, a.role, a.invoice_id, a.metadata, a.created_at
		FROM activity_logs a
		JOIN invoices i ON i.id = a.invoice_id
		WHERE i.number = $1
		ORDER BY a.created_at, a.id
	`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Role, &e.InvoiceID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
