// Package service resolves depot double-check policy and administers it.
package service

import (
	"context"
	"errors"

	"cmga_backend/internal/depots/repository"
	"cmga_backend/platform/apperr"
	"cmga_backend/platform/logger"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// PolicyForUser resolves whether the depot of the given user requires a
// second check on delivery notes. Satisfies the delivery workflow's
// DepotPolicyReader.
func (s *Service) PolicyForUser(ctx context.Context, userID int64) (bool, error) {
	depot, err := s.repo.ByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, apperr.NotFound("dépôt introuvable pour cet utilisateur")
	}
	if err != nil {
		return false, err
	}
	return depot.NeedDoubleCheck, nil
}

// List returns all depots.
func (s *Service) List(ctx context.Context) ([]repository.Depot, error) {
	return s.repo.List(ctx)
}

// Get returns one depot.
func (s *Service) Get(ctx context.Context, id int64) (repository.Depot, error) {
	depot, err := s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Depot{}, apperr.NotFound("dépôt introuvable")
	}
	return depot, err
}

// SetDoubleCheck toggles the policy flag on a depot.
func (s *Service) SetDoubleCheck(ctx context.Context, id int64, need bool) (repository.Depot, error) {
	depot, err := s.repo.SetDoubleCheck(ctx, id, need)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Depot{}, apperr.NotFound("dépôt introuvable")
	}
	if err == nil {
		s.log.Info("depot double-check policy changed", "depot_id", id, "need_double_check", need)
	}
	return depot, err
}
