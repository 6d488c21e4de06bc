package domain

import "time"

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is an account. Professional fields are copied here from the
// ProfessionalProfile when a superadmin verifies it.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role" gorm:"index;not null;default:user"`
	Profession   string    `json:"profession,omitempty"`
	Experience   int       `json:"experience,omitempty"`
	City         string    `json:"city,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Mobile       string    `json:"mobile,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the identity context of the caller.
type Actor struct {
	ID   int64
	Role UserRole
}

func (a Actor) IsSuperAdmin() bool { return a.Role == RoleSuperAdmin }

// RequestMeta is caller network info recorded on activity records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
