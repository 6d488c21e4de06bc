package request

import (
	"context"

	"profinder/internal/domain"
	"profinder/internal/modules/notification"
	"profinder/internal/repository"
)

type RequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]domain.ServiceRequest, error)
	ListByProfessional(ctx context.Context, profileID int64) ([]domain.ServiceRequest, error)
	ListAll(ctx context.Context) ([]domain.ServiceRequest, error)
	TransitionIf(ctx context.Context, id int64, from domain.RequestStatus, change repository.RequestChange) error
}

type ProfileReader interface {
	GetByID(ctx context.Context, id int64) (*domain.ProfessionalProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.ProfessionalProfile, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ProfessionalProfile, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	ListIDsByRole(ctx context.Context, role domain.UserRole) ([]int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) ([]domain.Notification, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, rec *domain.ActivityRecord, meta domain.RequestMeta) error
}
