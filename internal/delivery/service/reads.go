package service

import (
	"context"
	"errors"

	"cmga_backend/internal/delivery/domain"
	"cmga_backend/internal/delivery/repository"
	"cmga_backend/platform/apperr"
)

// Note loads a delivery note with its reconciled lines.
func (s *Service) Note(ctx context.Context, id int64) (repository.DeliveryNote, []domain.LineItem, error) {
	note, items, err := s.store.NoteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.DeliveryNote{}, nil, apperr.NotFound("bon de livraison introuvable")
	}
	if err != nil {
		return repository.DeliveryNote{}, nil, err
	}
	return note, items, nil
}

// NotesForInvoice lists an invoice's delivery rounds, most recent first.
func (s *Service) NotesForInvoice(ctx context.Context, invoiceNumber string) ([]repository.DeliveryNote, error) {
	return s.store.NotesByInvoiceNumber(ctx, invoiceNumber)
}
