package verification

import (
	"time"

	"profinder/internal/domain"
)

// SubmitRequest is the application body. At least one document ref is required.
type SubmitRequest struct {
	Profession string `json:"profession" binding:"required"`
	Experience int    `json:"experience" binding:"min=0"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email" binding:"omitempty,email"`
	AadharCard string `json:"aadhar_card"`
	VoterID    string `json:"voter_id"`
}

type SubmitInput struct {
	Profession string
	Experience int
	City       string
	PostalCode string
	Mobile     string
	Email      string
	AadharCard string
	VoterID    string
}

// ProfileUpdateRequest edits a professional's own application.
type ProfileUpdateRequest struct {
	Profession string `json:"profession" binding:"required"`
	Experience int    `json:"experience" binding:"min=0"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Mobile     string `json:"mobile" binding:"required"`
}

type ProfileUpdateInput struct {
	Profession string
	Experience int
	City       string
	PostalCode string
	Mobile     string
}

type DecisionRequest struct {
	Decision domain.ProfileStatus `json:"decision" binding:"required"`
}

type DocumentResponse struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

// ProfileView is a profile with its owner resolved. Document refs are only
// filled for superadmin listings.
type ProfileView struct {
	ID         int64                `json:"id"`
	UserID     int64                `json:"user_id"`
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Profession string               `json:"profession"`
	Experience int                  `json:"experience"`
	City       string               `json:"city"`
	PostalCode string               `json:"postal_code"`
	Mobile     string               `json:"mobile,omitempty"`
	AadharCard string               `json:"aadhar_card,omitempty"`
	VoterID    string               `json:"voter_id,omitempty"`
	Status     domain.ProfileStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
}

type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalProfessionals int64 `json:"total_professionals"`
	Verified           int64 `json:"verified"`
	Pending            int64 `json:"pending"`
	Rejected           int64 `json:"rejected"`
}
