package repository

import (
	"context"
	"time"

	"cmga_backend/internal/delivery/domain"
)

// Invoice is the delivery engine's view of an invoice row. The engine reads
// the order and the delivery flags and writes status/isCompleted/deliveredAt;
// everything else belongs to the invoicing subsystem.
type Invoice struct {
	ID                 int64
	Number             string
	Status             domain.InvoiceStatus
	IsCompleted        bool
	IsCompleteDelivery bool
	DeliveredAt        *time.Time
	CreatedAt          time.Time
}

// DeliveryNote is the database model for a delivery note (BL) header.
type DeliveryNote struct {
	ID          int64
	InvoiceID   int64
	DriverID    int64
	CreatedBy   int64
	Status      domain.NoteStatus
	IsDelivered bool
	TotalCents  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateNoteParams contains everything needed to persist a new note with its
// line items.
type CreateNoteParams struct {
	InvoiceID   int64
	DriverID    int64
	CreatedBy   int64
	Status      domain.NoteStatus
	IsDelivered bool
	Items       []domain.LineItem
}

// UpdateInvoiceParams carries the delivery-state fields the engine is allowed
// to write on an invoice.
type UpdateInvoiceParams struct {
	InvoiceID          int64
	Status             domain.InvoiceStatus
	IsCompleted        bool
	IsCompleteDelivery bool
	DeliveredAt        *time.Time
}

// TxOps are the operations available inside one delivery transaction. Every
// workflow entry point runs entirely within a single transaction; the invoice
// row lock taken by InvoiceForUpdate serializes concurrent requests for the
// same invoice.
type TxOps interface {
	// InvoiceForUpdate loads an invoice by business number with a row lock.
	InvoiceForUpdate(ctx context.Context, number string) (Invoice, error)
	// OrderLines returns the invoice's immutable original order.
	OrderLines(ctx context.Context, invoiceID int64) ([]domain.LineItem, error)
	// LatestNote returns the most recent note for the invoice, nil if none.
	LatestNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error)
	// LatestValidatedNote returns the most recent validated note, nil if none.
	// This is the single canonical baseline query for reconciliation.
	LatestValidatedNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error)
	// PendingNote returns the note awaiting confirmation, nil if none.
	PendingNote(ctx context.Context, invoiceID int64) (*DeliveryNote, error)
	// NoteItems returns a note's recorded line items.
	NoteItems(ctx context.Context, noteID int64) ([]domain.LineItem, error)
	// CreateNote inserts a note and its items.
	CreateNote(ctx context.Context, params CreateNoteParams) (DeliveryNote, error)
	// ValidateNote marks a note validated and replaces its items with the
	// recomputed lines.
	ValidateNote(ctx context.Context, noteID int64, items []domain.LineItem, totalCents int64) error
	// AddConfirmation appends an audit record of who signed off on a note.
	AddConfirmation(ctx context.Context, userID, noteID int64) error
	// UpdateInvoiceDelivery writes the invoice's delivery-state fields.
	UpdateInvoiceDelivery(ctx context.Context, params UpdateInvoiceParams) error
}

// Store is the persistence boundary for the delivery engine.
type Store interface {
	// Tx runs fn inside a single transaction, committing on nil and rolling
	// back on error.
	Tx(ctx context.Context, fn func(ops TxOps) error) error
	// NoteByID loads a note header and its items (plain read).
	NoteByID(ctx context.Context, id int64) (DeliveryNote, []domain.LineItem, error)
	// NotesByInvoiceNumber lists the delivery rounds of an invoice, most
	// recent first.
	NotesByInvoiceNumber(ctx context.Context, number string) ([]DeliveryNote, error)
}
