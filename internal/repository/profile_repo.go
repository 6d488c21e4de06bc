package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"profinder/internal/domain"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.ProfessionalProfile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return wrap(domain.ErrConflict, "profile already submitted")
		}
		return err
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*domain.ProfessionalProfile, error) {
	var p domain.ProfessionalProfile
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "professional profile")
	}
	return &p, nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.ProfessionalProfile, error) {
	var p domain.ProfessionalProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, "professional profile")
	}
	return &p, nil
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ProfessionalProfile, error) {
	out := make(map[int64]*domain.ProfessionalProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []domain.ProfessionalProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}

// List returns profiles newest first; an empty status lists all of them.
func (r *ProfileRepository) List(ctx context.Context, status domain.ProfileStatus) ([]domain.ProfessionalProfile, error) {
	q := r.db.WithContext(ctx).Model(&domain.ProfessionalProfile{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.ProfessionalProfile
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

// CreateAndPromote stores a new application and sets the applicant's role
// in one transaction.
func (r *ProfileRepository) CreateAndPromote(ctx context.Context, p *domain.ProfessionalProfile, role domain.UserRole) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if isUniqueViolation(err) {
				return wrap(domain.ErrConflict, "profile already submitted")
			}
			return err
		}
		return setRole(tx, p.UserID, role)
	})
}

// DecideIf moves a profile out of from. Zero rows means someone else decided
// first. A verified decision also copies the professional fields onto the
// owning account in the same transaction.
func (r *ProfileRepository) DecideIf(ctx context.Context, id int64, from, to domain.ProfileStatus, decidedBy int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&domain.ProfessionalProfile{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{
				"status":     to,
				"decided_by": decidedBy,
				"decided_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return wrap(domain.ErrInvalidState, "profile is no longer "+string(from))
		}
		if to != domain.ProfileVerified {
			return nil
		}

		var p domain.ProfessionalProfile
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		return applyVerification(tx, &p)
	})
}

// Resubmit stores edited professional fields on the application of p.UserID,
// puts it back to pending and clears the account's verified flag, all in one
// transaction.
func (r *ProfileRepository) Resubmit(ctx context.Context, p *domain.ProfessionalProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.ProfessionalProfile{}).
			Where("user_id = ?", p.UserID).
			Updates(map[string]any{
				"profession":  p.Profession,
				"experience":  p.Experience,
				"city":        p.City,
				"postal_code": p.PostalCode,
				"mobile":      p.Mobile,
				"status":      domain.ProfilePending,
				"decided_by":  nil,
				"decided_at":  nil,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return wrap(domain.ErrNotFound, "professional profile not found")
		}
		return resetVerification(tx, p)
	})
}

func (r *ProfileRepository) CountByStatus(ctx context.Context, status domain.ProfileStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.ProfessionalProfile{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
