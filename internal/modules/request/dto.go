package request

import (
	"time"

	"profinder/internal/domain"
)

type CreateRequest struct {
	ProfessionalID int64  `json:"professional_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description" binding:"required"`
	EstimatedDays  int    `json:"estimated_days" binding:"required"`
	UserNotes      string `json:"user_notes"`
}

// RespondRequest carries dates as YYYY-MM-DD or RFC3339.
type RespondRequest struct {
	Decision  domain.RequestStatus `json:"decision" binding:"required"`
	Notes     string               `json:"notes"`
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
}

type ProgressRequest struct {
	Status domain.RequestStatus `json:"status" binding:"required"`
	Notes  string               `json:"notes"`
}

type CreateInput struct {
	ProfessionalID int64
	Title          string
	Description    string
	EstimatedDays  int
	UserNotes      string
}

type RespondInput struct {
	Decision  domain.RequestStatus
	Notes     string
	StartDate *time.Time
	EndDate   *time.Time
}

type ProgressInput struct {
	Next  domain.RequestStatus
	Notes string
}

type PartyView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ProfessionalView struct {
	ProfileID  int64  `json:"profile_id"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
	Experience int    `json:"experience"`
	City       string `json:"city"`
}

// RequestView is a ServiceRequest with its references resolved.
type RequestView struct {
	domain.ServiceRequest
	Requester    PartyView        `json:"requester"`
	Professional ProfessionalView `json:"professional"`
}
