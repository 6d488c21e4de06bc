package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"profinder/internal/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends a record. There is no update or delete on this table.
func (r *ActivityRepository) Create(ctx context.Context, a *domain.ActivityRecord) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*domain.ActivityRecord, error) {
	var a domain.ActivityRecord
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "activity record")
	}
	return &a, nil
}

func (r *ActivityRepository) List(ctx context.Context, f domain.ActivityFilter, limit, offset int) ([]domain.ActivityRecord, int64, error) {
	q := applyActivityFilter(r.db.WithContext(ctx).Model(&domain.ActivityRecord{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.ActivityRecord
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}

func (r *ActivityRepository) Count(ctx context.Context, f domain.ActivityFilter) (int64, error) {
	var n int64
	err := applyActivityFilter(r.db.WithContext(ctx).Model(&domain.ActivityRecord{}), f).Count(&n).Error
	return n, err
}

func (r *ActivityRepository) CountByAction(ctx context.Context, f domain.ActivityFilter) ([]domain.ActionCount, error) {
	var out []domain.ActionCount
	err := applyActivityFilter(r.db.WithContext(ctx).Model(&domain.ActivityRecord{}), f).
		Select("action_type, COUNT(*) AS count").
		Group("action_type").
		Order("count DESC").
		Order("action_type ASC").
		Scan(&out).Error
	return out, err
}

func (r *ActivityRepository) TopActors(ctx context.Context, f domain.ActivityFilter, limit int) ([]domain.ActorCount, error) {
	var out []domain.ActorCount
	err := applyActivityFilter(r.db.WithContext(ctx).Model(&domain.ActivityRecord{}), f).
		Select("actor_id, COUNT(*) AS count").
		Group("actor_id").
		Order("count DESC").
		Order("actor_id ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

var activitySearchColumns = []string{
	"description",
	"details_request_title",
	"details_admin_name",
	"details_user_name",
	"details_notes",
}

func applyActivityFilter(q *gorm.DB, f domain.ActivityFilter) *gorm.DB {
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.ActorID != 0 {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.ProfileID != 0 {
		q = q.Where("profile_id = ?", f.ProfileID)
	}
	if f.RequestID != 0 {
		q = q.Where("request_id = ?", f.RequestID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		conds := make([]string, len(activitySearchColumns))
		args := make([]any, len(activitySearchColumns))
		for i, col := range activitySearchColumns {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return q
}
