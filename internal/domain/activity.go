package domain

import "time"

type ActionType string

const (
	ActionRequestCreated        ActionType = "request_created"
	ActionRequestApproved       ActionType = "request_approved"
	ActionRequestRejected       ActionType = "request_rejected"
	ActionRequestInProgress     ActionType = "request_in_progress"
	ActionRequestCompleted      ActionType = "request_completed"
	ActionAdminVerified         ActionType = "admin_verified"
	ActionAdminRejected         ActionType = "admin_rejected"
	ActionVerificationSubmitted ActionType = "verification_submitted"
	ActionProfileUpdated        ActionType = "profile_updated"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionRequestCreated, ActionRequestApproved, ActionRequestRejected,
		ActionRequestInProgress, ActionRequestCompleted, ActionAdminVerified,
		ActionAdminRejected, ActionVerificationSubmitted, ActionProfileUpdated:
		return true
	}
	return false
}

// ActionForStatus returns the action recorded when a request enters status.
func ActionForStatus(s RequestStatus) (ActionType, bool) {
	switch s {
	case RequestPending:
		return ActionRequestCreated, true
	case RequestApproved:
		return ActionRequestApproved, true
	case RequestRejected:
		return ActionRequestRejected, true
	case RequestInProgress:
		return ActionRequestInProgress, true
	case RequestCompleted:
		return ActionRequestCompleted, true
	}
	return "", false
}

// ActivityDetails is denormalized so the audit log can be searched without joins.
type ActivityDetails struct {
	RequestTitle  string     `json:"request_title,omitempty"`
	AdminName     string     `json:"admin_name,omitempty"`
	UserName      string     `json:"user_name,omitempty"`
	Status        string     `json:"status,omitempty"`
	Notes         string     `json:"notes,omitempty" gorm:"type:text"`
	EstimatedDays int        `json:"estimated_days,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// ActivityRecord is append-only.
type ActivityRecord struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	ActorID     int64           `json:"actor_id" gorm:"index:idx_activity_actor_created,priority:1;not null"`
	ProfileID   *int64          `json:"profile_id,omitempty" gorm:"index"`
	RequestID   *int64          `json:"request_id,omitempty" gorm:"index"`
	ActionType  ActionType      `json:"action_type" gorm:"index:idx_activity_action_created,priority:1;not null"`
	Description string          `json:"description" gorm:"not null"`
	Details     ActivityDetails `json:"details" gorm:"embedded;embeddedPrefix:details_"`
	IPAddress   string          `json:"ip_address,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index;index:idx_activity_actor_created,priority:2;index:idx_activity_action_created,priority:2"`
}

func (ActivityRecord) TableName() string {
	return "activity_records"
}

// ActivityFilter narrows an activity log query. Zero values mean "any".
type ActivityFilter struct {
	ActionType ActionType
	ActorID    int64
	ProfileID  int64
	RequestID  int64
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
}

type ActionCount struct {
	ActionType ActionType `json:"action_type"`
	Count      int64      `json:"count"`
}

type ActorCount struct {
	ActorID int64  `json:"actor_id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Count   int64  `json:"count"`
}

type ActivityStats struct {
	Total        int64         `json:"total"`
	LastSevenDay int64         `json:"last_7_days"`
	ByAction     []ActionCount `json:"by_action"`
	TopActors    []ActorCount  `json:"top_actors"`
}
