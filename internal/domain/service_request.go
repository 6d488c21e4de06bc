package domain

import "time"

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestApproved   RequestStatus = "approved"
	RequestRejected   RequestStatus = "rejected"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
)

// requestTransitions lists every legal status change.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:    {RequestApproved, RequestRejected},
	RequestApproved:   {RequestInProgress},
	RequestInProgress: {RequestCompleted},
}

// CanTransition reports whether from -> to is a legal ServiceRequest transition.
func CanTransition(from, to RequestStatus) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == RequestRejected || s == RequestCompleted
}

type Timeline struct {
	EstimatedDays int        `json:"estimated_days" gorm:"column:estimated_days;not null"`
	StartDate     *time.Time `json:"start_date,omitempty" gorm:"column:start_date"`
	EndDate       *time.Time `json:"end_date,omitempty" gorm:"column:end_date"`
}

type ServiceRequest struct {
	ID             int64         `json:"id" gorm:"primaryKey"`
	RequesterID    int64         `json:"requester_id" gorm:"index:idx_requests_requester_created,priority:1;not null"`
	ProfessionalID int64         `json:"professional_id" gorm:"index:idx_requests_professional_created,priority:1;not null"`
	Title          string        `json:"title" gorm:"not null"`
	Description    string        `json:"description" gorm:"type:text;not null"`
	Status         RequestStatus `json:"status" gorm:"index;not null;default:pending"`
	Timeline       Timeline      `json:"timeline" gorm:"embedded"`
	AdminNotes     string        `json:"admin_notes,omitempty" gorm:"type:text"`
	UserNotes      string        `json:"user_notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time     `json:"created_at" gorm:"index:idx_requests_requester_created,priority:2;index:idx_requests_professional_created,priority:2"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}
