package domain

import "time"

type ProfileStatus string

const (
	ProfilePending  ProfileStatus = "pending"
	ProfileVerified ProfileStatus = "verified"
	ProfileRejected ProfileStatus = "rejected"
)

// ProfessionalProfile is a verification application; one per account.
type ProfessionalProfile struct {
	ID         int64         `json:"id" gorm:"primaryKey"`
	UserID     int64         `json:"user_id" gorm:"uniqueIndex;not null"`
	Profession string        `json:"profession" gorm:"not null"`
	Experience int           `json:"experience"`
	City       string        `json:"city" gorm:"index"`
	PostalCode string        `json:"postal_code"`
	Mobile     string        `json:"mobile,omitempty"`
	Email      string        `json:"email,omitempty"`
	AadharCard string        `json:"aadhar_card,omitempty"`
	VoterID    string        `json:"voter_id,omitempty"`
	Status     ProfileStatus `json:"status" gorm:"index;not null;default:pending"`
	DecidedBy  *int64        `json:"decided_by,omitempty"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (p *ProfessionalProfile) IsVerified() bool {
	return p.Status == ProfileVerified
}
