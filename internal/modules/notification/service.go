package notification

import (
	"context"
	"fmt"

	"profinder/internal/domain"
)

type Service struct {
	repo NotificationRepository
}

func NewService(repo NotificationRepository) *Service {
	return &Service{repo: repo}
}

type ListQuery struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

type ListResult struct {
	Notifications []domain.Notification
	UnreadCount   int64
	Total         int64
}

func (s *Service) List(ctx context.Context, recipientID int64, q ListQuery) (*ListResult, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	list, total, err := s.repo.ListByRecipient(ctx, recipientID, q.UnreadOnly, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	return &ListResult{Notifications: list, UnreadCount: unread, Total: total}, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead flips only the given notification, and only for its recipient.
func (s *Service) MarkRead(ctx context.Context, recipientID, id int64) (*domain.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, fmt.Errorf("%w: notification belongs to another account", domain.ErrForbidden)
	}
	if n.Read {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.MarkAsRead()
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}
