// Package transport defines the HTTP shapes for the invoice read API.
package transport

import (
	"time"

	"cmga_backend/internal/invoices/repository"
)

type ListRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page" validate:"omitempty,gte=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,gte=1,lte=100"`
}

type LineResponse struct {
	Reference    string `json:"reference"`
	Designation  string `json:"designation"`
	Quantite     int    `json:"quantite"`
	PrixUnitaire int64  `json:"prixUnitaire"`
	Total        int64  `json:"total"`
}

type InvoiceResponse struct {
	ID                 int64          `json:"id"`
	Number             string         `json:"number"`
	Status             string         `json:"status"`
	IsCompleted        bool           `json:"isCompleted"`
	IsCompleteDelivery bool           `json:"isCompleteDelivery"`
	DeliveredAt        *time.Time     `json:"deliveredAt,omitempty"`
	Total              int64          `json:"total"`
	Order              []LineResponse `json:"order,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

func FromInvoice(inv repository.Invoice, lines []repository.Line) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                 inv.ID,
		Number:             inv.Number,
		Status:             inv.Status,
		IsCompleted:        inv.IsCompleted,
		IsCompleteDelivery: inv.IsCompleteDelivery,
		DeliveredAt:        inv.DeliveredAt,
		Total:              inv.TotalCents,
		CreatedAt:          inv.CreatedAt,
	}
	for _, line := range lines {
		resp.Order = append(resp.Order, LineResponse{
			Reference:    line.Reference,
			Designation:  line.Designation,
			Quantite:     line.Quantity,
			PrixUnitaire: line.UnitPriceCents,
			Total:        line.TotalCents,
		})
	}
	return resp
}

func FromInvoices(invoices []repository.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv, nil))
	}
	return out
}
