package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cmga_backend/internal/delivery/domain"
)

var ErrNotFound = errors.New("not found")

const noteColumns = `id, invoice_id, driver_id, created_by, status, is_delivered, total_cents, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Tx runs fn in a single transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func (r *Repository) Tx(ctx context.Context, fn func(ops TxOps) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txOps{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) NoteByID(ctx context.Context, id int64) (DeliveryNote, []domain.LineItem, error) {
	var note DeliveryNote
	err := r.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM delivery_notes WHERE id = $1
	`, id).Scan(
		&note.ID,
		&note.InvoiceID,
		&note.DriverID,
		&note.CreatedBy,
		&note.Status,
		&note.IsDelivered,
		&note.TotalCents,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeliveryNote{}, nil, ErrNotFound
	}
	if err != nil {
		return DeliveryNote{}, nil, err
	}

	items, err := scanItems(ctx, r.pool, `
		SELECT reference, designation, quantity, unit_price_cents, total_cents, remaining_qty
		FROM delivery_note_items WHERE note_id = $1
		ORDER BY reference
	`, id)
	if err != nil {
		return DeliveryNote{}, nil, err
	}
	return note, items, nil
}

func (r *Repository) NotesByInvoiceNumber(ctx context.Context, number string) ([]DeliveryNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.id, n.invoice_id, n.driver_id, n.created_by, n.status, n.is_delivered, n.total_cents, n.created_at, n.updated_at
		FROM delivery_notes n
		JOIN invoices i ON i.id = n.invoice_id
		WHERE i.number = $1
		ORDER BY n.created_at DESC, n.id DESC
	`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// querier covers both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txOps struct {
	tx pgx.Tx
}

func (o *txOps) InvoiceForUpdate(ctx context.Context, number string) (Invoice, error) {
	var inv Invoice
	err := o.tx.QueryRow(ctx, `
		SELECT id, number, status, is_completed, is_complete_delivery, delivered_at, created_at
		FROM invoices WHERE number = $1
		FOR UPDATE
	`, number).Scan(
		&inv.ID,
		&inv.Number,
		&inv.Status,
		&inv.IsCompleted,
		&inv.IsCompleteDelivery,
		&inv.DeliveredAt,
		&inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	return inv, err
}

func (o *txOps) OrderLines(ctx context.Context, invoiceID int64) ([]domain.LineItem, error) {
	return scanItems(ctx, o.tx, `
		SELECT reference, designation, quantity, unit_price_cents, total_cents, quantity
		FROM invoice_lines WHERE invoice_id = $1
		ORDER BY reference
	`, invoiceID)
}

func (o *txOps) LatestNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error) {
	return o.oneNote(ctx, `
		SELECT `+noteColumns+`
		FROM delivery_notes WHERE invoice_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, invoiceID)
}

func (o *txOps) LatestValidatedNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error) {
	return o.oneNote(ctx, `
		SELECT `+noteColumns+`
		FROM delivery_notes WHERE invoice_id = $1 AND status = $2
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`, invoiceID, domain.NoteValidated)
}

func (o *txOps) PendingNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error) {
	return o.oneNote(ctx, `
		SELECT `+noteColumns+`
		FROM delivery_notes WHERE invoice_id = $1 AND status = $2
		LIMIT 1
	`, invoiceID, domain.NotePending)
}

func (o *txOps) oneNote(ctx context.Context, query string, args ...any) (*DeliveryNote, error) {
	var note DeliveryNote
	err := o.tx.QueryRow(ctx, query, args...).Scan(
		&note.ID,
		&note.InvoiceID,
		&note.DriverID,
		&note.CreatedBy,
		&note.Status,
		&note.IsDelivered,
		&note.TotalCents,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (o *txOps) NoteItems(ctx context.Context, noteID int64) ([]domain.LineItem, error) {
	return scanItems(ctx, o.tx, `
		SELECT reference, designation, quantity, unit_price_cents, total_cents, remaining_qty
		FROM delivery_note_items WHERE note_id = $1
		ORDER BY reference
	`, noteID)
}

func (o *txOps) CreateNote(ctx context.Context, params CreateNoteParams) (DeliveryNote, error) {
	var note DeliveryNote
	total := domain.SumTotal(params.Items)
	err := o.tx.QueryRow(ctx, `
		INSERT INTO delivery_notes (invoice_id, driver_id, created_by, status, is_delivered, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+noteColumns+`
	`, params.InvoiceID, params.DriverID, params.CreatedBy, params.Status, params.IsDelivered, total).Scan(
		&note.ID,
		&note.InvoiceID,
		&note.DriverID,
		&note.CreatedBy,
		&note.Status,
		&note.IsDelivered,
		&note.TotalCents,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return DeliveryNote{}, err
	}
	if err := o.insertItems(ctx, note.ID, params.Items); err != nil {
		return DeliveryNote{}, err
	}
	return note, nil
}

func (o *txOps) ValidateNote(ctx context.Context, noteID int64, items []domain.LineItem, totalCents int64) error {
	tag, err := o.tx.Exec(ctx, `
		UPDATE delivery_notes
		SET status = $1, is_delivered = true, total_cents = $2, updated_at = now()
		WHERE id = $3
	`, domain.NoteValidated, totalCents, noteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := o.tx.Exec(ctx, `DELETE FROM delivery_note_items WHERE note_id = $1`, noteID); err != nil {
		return err
	}
	return o.insertItems(ctx, noteID, items)
}

func (o *txOps) AddConfirmation(ctx context.Context, userID, noteID int64) error {
	_, err := o.tx.Exec(ctx, `
		INSERT INTO confirmations (note_id, user_id)
		VALUES ($1, $2)
	`, noteID, userID)
	return err
}

func (o *txOps) UpdateInvoiceDelivery(ctx context.Context, params UpdateInvoiceParams) error {
	tag, err := o.tx.Exec(ctx, `
		UPDATE invoices
		SET status = $1, is_completed = $2, is_complete_delivery = $3, delivered_at = $4, updated_at = now()
		WHERE id = $5
	`, params.Status, params.IsCompleted, params.IsCompleteDelivery, params.DeliveredAt, params.InvoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (o *txOps) insertItems(ctx context.Context, noteID int64, items []domain.LineItem) error {
	for _, item := range items {
		if _, err := o.tx.Exec(ctx, `
			INSERT INTO delivery_note_items (note_id, reference, designation, quantity, unit_price_cents, total_cents, remaining_qty)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, noteID, item.Reference, item.Designation, item.Quantity, item.UnitPriceCents, item.TotalCents, item.RemainingQty); err != nil {
			return err
		}
	}
	return nil
}

func scanItems(ctx context.Context, q querier, query string, args ...any) ([]domain.LineItem, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.Reference,
			&item.Designation,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.TotalCents,
			&item.RemainingQty,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanNotes(rows pgx.Rows) ([]DeliveryNote, error) {
	var notes []DeliveryNote
	for rows.Next() {
		var note DeliveryNote
		if err := rows.Scan(
			&note.ID,
			&note.InvoiceID,
			&note.DriverID,
			&note.CreatedBy,
			&note.Status,
			&note.IsDelivered,
			&note.TotalCents,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
