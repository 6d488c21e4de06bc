package activity

import (
	"context"

	"profinder/internal/domain"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.ActivityRecord) error
	GetByID(ctx context.Context, id int64) (*domain.ActivityRecord, error)
	List(ctx context.Context, f domain.ActivityFilter, limit, offset int) ([]domain.ActivityRecord, int64, error)
	Count(ctx context.Context, f domain.ActivityFilter) (int64, error)
	CountByAction(ctx context.Context, f domain.ActivityFilter) ([]domain.ActionCount, error)
	TopActors(ctx context.Context, f domain.ActivityFilter, limit int) ([]domain.ActorCount, error)
}

type UserReader interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
}
