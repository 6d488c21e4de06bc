package activity

import (
	"context"
	"time"

	"profinder/internal/domain"
)

const topActorsLimit = 5

type Service struct {
	repo  ActivityRepository
	users UserReader
	now   func() time.Time
}

func NewService(repo ActivityRepository, users UserReader) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

func (s *Service) List(ctx context.Context, f domain.ActivityFilter, p domain.PaginationParams) (domain.PaginatedResponse[domain.ActivityRecord], error) {
	p.Validate()
	list, total, err := s.repo.List(ctx, f, p.PageSize, p.Offset())
	if err != nil {
		return domain.PaginatedResponse[domain.ActivityRecord]{}, err
	}
	return domain.NewPaginatedResponse(list, p.Page, p.PageSize, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.ActivityRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats aggregates over the optional [start, end] window. The last-seven-days
// figure is always relative to now but still respects the window.
func (s *Service) Stats(ctx context.Context, start, end *time.Time) (*domain.ActivityStats, error) {
	window := domain.ActivityFilter{StartDate: start, EndDate: end}

	total, err := s.repo.Count(ctx, window)
	if err != nil {
		return nil, err
	}

	weekAgo := s.now().AddDate(0, 0, -7)
	recent := window
	if recent.StartDate == nil || recent.StartDate.Before(weekAgo) {
		recent.StartDate = &weekAgo
	}
	lastWeek, err := s.repo.Count(ctx, recent)
	if err != nil {
		return nil, err
	}

	byAction, err := s.repo.CountByAction(ctx, window)
	if err != nil {
		return nil, err
	}

	top, err := s.repo.TopActors(ctx, window, topActorsLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(top))
	for i, a := range top {
		ids[i] = a.ActorID
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range top {
		if u, ok := users[top[i].ActorID]; ok {
			top[i].Name = u.Name
			top[i].Email = u.Email
		}
	}

	if byAction == nil {
		byAction = []domain.ActionCount{}
	}
	if top == nil {
		top = []domain.ActorCount{}
	}

	return &domain.ActivityStats{
		Total:        total,
		LastSevenDay: lastWeek,
		ByAction:     byAction,
		TopActors:    top,
	}, nil
}
