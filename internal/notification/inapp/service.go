package inapp

import (
	"context"

	"github.com/google/uuid"

	"cmga_backend/platform/logger"
)

type Service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type SendParams struct {
	UserID   int64
	Title    string
	Content  string
	Category string
	NoteID   *int64
}

// Send persists one in-app notification.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	_, err := s.repo.Create(ctx, CreateParams{
		UserID:   p.UserID,
		Title:    p.Title,
		Content:  p.Content,
		Category: p.Category,
		NoteID:   p.NoteID,
	})
	if err != nil {
		s.log.Error("failed to persist in-app notification", "error", err, "user_id", p.UserID)
	}
	return err
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) AdminRecipients(ctx context.Context) ([]Recipient, error) {
	return s.repo.AdminRecipients(ctx)
}
