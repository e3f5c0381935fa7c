// Package service exposes the driver directory.
package service

import (
	"context"

	"cmga_backend/internal/drivers/repository"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Exists satisfies the delivery workflow's DriverDirectory.
func (s *Service) Exists(ctx context.Context, driverID int64) (bool, error) {
	return s.repo.Exists(ctx, driverID)
}

// List returns drivers, active ones only unless includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]repository.Driver, error) {
	return s.repo.List(ctx, !includeInactive)
}
