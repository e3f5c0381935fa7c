// Package service exposes the read-only invoice API. Invoice mutation
// belongs to the upstream invoicing subsystem and the delivery engine's own
// transaction; nothing here writes.
package service

import (
	"context"
	"errors"

	"cmga_backend/internal/invoices/repository"
	"cmga_backend/platform/apperr"
	"cmga_backend/platform/logger"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

var validStatuses = map[string]bool{
	"NON_RECEPTIONNEE": true,
	"EN_ATTENTE":       true,
	"EN_COURS":         true,
	"LIVREE":           true,
	"RETOUR":           true,
	"REGULE":           true,
}

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns a page of invoices, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, page, pageSize int) ([]repository.Invoice, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperr.Validation("statut de facture inconnu")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return s.repo.List(ctx, repository.ListFilter{
		Status: status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
}

// ByNumber returns an invoice and its order lines.
func (s *Service) ByNumber(ctx context.Context, number string) (repository.Invoice, []repository.Line, error) {
	inv, lines, err := s.repo.ByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Invoice{}, nil, apperr.NotFound("facture introuvable")
	}
	return inv, lines, err
}
