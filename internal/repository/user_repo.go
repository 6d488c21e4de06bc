package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"profinder/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return wrap(domain.ErrConflict, "email already registered")
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		First(&u).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// GetByIDs returns the users that exist among ids, keyed by id.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	out := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// ListIDsByRole is read on every broadcast event; never cache the result.
func (r *UserRepository) ListIDsByRole(ctx context.Context, role domain.UserRole) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ?", role).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// List returns accounts in id order; an empty role lists every account.
func (r *UserRepository) List(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []domain.User
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.UserRole) error {
	return setRole(r.db.WithContext(ctx), id, role)
}

func setRole(tx *gorm.DB, id int64, role domain.UserRole) error {
	res := tx.Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrap(domain.ErrNotFound, "user not found")
	}
	return nil
}

// applyVerification copies the verified professional fields onto the account.
func applyVerification(tx *gorm.DB, p *domain.ProfessionalProfile) error {
	res := tx.Model(&domain.User{}).
		Where("id = ?", p.UserID).
		Updates(map[string]any{
			"profession":  p.Profession,
			"experience":  p.Experience,
			"city":        p.City,
			"postal_code": p.PostalCode,
			"verified":    true,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrap(domain.ErrNotFound, "user not found")
	}
	return nil
}

// resetVerification writes the edited professional fields onto the account
// and clears its verified flag.
func resetVerification(tx *gorm.DB, p *domain.ProfessionalProfile) error {
	res := tx.Model(&domain.User{}).
		Where("id = ?", p.UserID).
		Updates(map[string]any{
			"profession":  p.Profession,
			"experience":  p.Experience,
			"city":        p.City,
			"postal_code": p.PostalCode,
			"mobile":      p.Mobile,
			"verified":    false,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrap(domain.ErrNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}
