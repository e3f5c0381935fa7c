// Package transport defines the HTTP request/response shapes for the
// delivery endpoints. Field names follow the wire contract shared with the
// dispatch dashboard, which speaks French for business fields.
package transport

import (
	"time"

	"cmga_backend/internal/delivery/domain"
	"cmga_backend/internal/delivery/repository"
)

// ProductLine is one reported line of a delivery request. Scanners send
// quantiteLivree; older dashboard builds send quantite. Designation and price
// are informational only: the reconciliation always takes them from the
// invoice's order.
type ProductLine struct {
	Reference      string `json:"reference" validate:"required"`
	Designation    string `json:"designation"`
	QuantiteLivree *int   `json:"quantiteLivree" validate:"omitempty,gte=0"`
	Quantite       *int   `json:"quantite" validate:"omitempty,gte=0"`
	PrixUnitaire   *int64 `json:"prixUnitaire"`
}

// DeliveredQuantity resolves the reported quantity, preferring quantiteLivree.
func (p ProductLine) DeliveredQuantity() int {
	if p.QuantiteLivree != nil {
		return *p.QuantiteLivree
	}
	if p.Quantite != nil {
		return *p.Quantite
	}
	return 0
}

// ProcessDeliveryRequest is the body of POST /process-delivery.
type ProcessDeliveryRequest struct {
	InvoiceNumber      string        `json:"invoiceNumber" validate:"required"`
	Products           []ProductLine `json:"products" validate:"omitempty,dive"`
	IsCompleteDelivery bool          `json:"isCompleteDelivery"`
	DriverID           int64         `json:"driverId" validate:"required,gt=0"`
}

// Lines converts the reported products to domain line items.
func (r ProcessDeliveryRequest) Lines() []domain.LineItem {
	lines := make([]domain.LineItem, 0, len(r.Products))
	for _, p := range r.Products {
		lines = append(lines, domain.LineItem{
			Reference: p.Reference,
			Quantity:  p.DeliveredQuantity(),
		})
	}
	return lines
}

// ConfirmRequest is the body of POST /confirm-bl.
type ConfirmRequest struct {
	InvoiceNumber string `json:"invoiceNumber" validate:"required"`
}

// ProcessDeliveryResponse reports what the workflow did with the request.
type ProcessDeliveryResponse struct {
	Message string `json:"message"`
	BlID    int64  `json:"blId"`
	Pending bool   `json:"pending"`
	Outcome string `json:"outcome,omitempty"`
}

// ConfirmResponse reports the result of a confirmation.
type ConfirmResponse struct {
	Message   string `json:"message"`
	BlID      int64  `json:"blId"`
	Outcome   string `json:"outcome"`
	Completed bool   `json:"completed"`
}

// LineItemResponse is one reconciled line on a note, prices in cents.
type LineItemResponse struct {
	Reference    string `json:"reference"`
	Designation  string `json:"designation"`
	Quantite     int    `json:"quantite"`
	PrixUnitaire int64  `json:"prixUnitaire"`
	Total        int64  `json:"total"`
	RemainingQty int    `json:"remainingQty"`
}

// DeliveryNoteResponse is the full representation of a delivery note.
type DeliveryNoteResponse struct {
	ID          int64              `json:"id"`
	InvoiceID   int64              `json:"invoiceId"`
	DriverID    int64              `json:"driverId"`
	Status      string             `json:"status"`
	IsDelivered bool               `json:"isDelivered"`
	Total       int64              `json:"total"`
	Products    []LineItemResponse `json:"products,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// FromNote maps a stored note and its items to the response shape.
func FromNote(note repository.DeliveryNote, items []domain.LineItem) DeliveryNoteResponse {
	resp := DeliveryNoteResponse{
		ID:          note.ID,
		InvoiceID:   note.InvoiceID,
		DriverID:    note.DriverID,
		Status:      string(note.Status),
		IsDelivered: note.IsDelivered,
		Total:       note.TotalCents,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
	for _, item := range items {
		resp.Products = append(resp.Products, LineItemResponse{
			Reference:    item.Reference,
			Designation:  item.Designation,
			Quantite:     item.Quantity,
			PrixUnitaire: item.UnitPriceCents,
			Total:        item.TotalCents,
			RemainingQty: item.RemainingQty,
		})
	}
	return resp
}

// FromNotes maps note headers without items, for list endpoints.
func FromNotes(notes []repository.DeliveryNote) []DeliveryNoteResponse {
	out := make([]DeliveryNoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, FromNote(note, nil))
	}
	return out
}
