package verification

import (
	"context"

	"profinder/internal/domain"
	"profinder/internal/modules/notification"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ProfessionalProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.ProfessionalProfile, error)
	List(ctx context.Context, status domain.ProfileStatus) ([]domain.ProfessionalProfile, error)
	CreateAndPromote(ctx context.Context, p *domain.ProfessionalProfile, role domain.UserRole) error
	DecideIf(ctx context.Context, id int64, from, to domain.ProfileStatus, decidedBy int64) error
	Resubmit(ctx context.Context, p *domain.ProfessionalProfile) error
	CountByStatus(ctx context.Context, status domain.ProfileStatus) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	ListIDsByRole(ctx context.Context, role domain.UserRole) ([]int64, error)
	List(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) ([]domain.Notification, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, rec *domain.ActivityRecord, meta domain.RequestMeta) error
}
