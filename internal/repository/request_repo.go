package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"profinder/internal/domain"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// RequestChange is applied together with a status move.
type RequestChange struct {
	Status     domain.RequestStatus
	AdminNotes *string
	UserNotes  *string
	StartDate  *time.Time
	EndDate    *time.Time
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err, "service request")
	}
	return &req, nil
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.ServiceRequest, error) {
	return r.list(ctx, r.db.Where("requester_id = ?", requesterID))
}

func (r *RequestRepository) ListByProfessional(ctx context.Context, profileID int64) ([]domain.ServiceRequest, error) {
	return r.list(ctx, r.db.Where("professional_id = ?", profileID))
}

func (r *RequestRepository) ListAll(ctx context.Context) ([]domain.ServiceRequest, error) {
	return r.list(ctx, r.db)
}

// id breaks created_at ties: it grows with insertion order.
func (r *RequestRepository) list(ctx context.Context, q *gorm.DB) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := q.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// TransitionIf applies change only while the row is still in status from.
// Zero affected rows means a concurrent transition won and nothing was written.
func (r *RequestRepository) TransitionIf(ctx context.Context, id int64, from domain.RequestStatus, change RequestChange) error {
	updates := map[string]any{
		"status":     change.Status,
		"updated_at": time.Now(),
	}
	if change.AdminNotes != nil {
		updates["admin_notes"] = *change.AdminNotes
	}
	if change.UserNotes != nil {
		updates["user_notes"] = *change.UserNotes
	}
	if change.StartDate != nil {
		updates["start_date"] = *change.StartDate
	}
	if change.EndDate != nil {
		updates["end_date"] = *change.EndDate
	}

	res := r.db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrap(domain.ErrInvalidState, "request is no longer "+string(from))
	}
	return nil
}
