package domain

import "time"

type NotificationType string

const (
	NotifAdminVerificationRequest NotificationType = "admin_verification_request"
	NotifAdminVerified            NotificationType = "admin_verified"
	NotifAdminRejected            NotificationType = "admin_rejected"
	NotifUserRequest              NotificationType = "user_request"
	NotifUserRequestCreated       NotificationType = "user_request_created"
	NotifRequestApproved          NotificationType = "request_approved"
	NotifRequestRejected          NotificationType = "request_rejected"
	NotifRequestStatusUpdated     NotificationType = "request_status_updated"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifAdminVerificationRequest, NotifAdminVerified, NotifAdminRejected,
		NotifUserRequest, NotifUserRequestCreated, NotifRequestApproved,
		NotifRequestRejected, NotifRequestStatusUpdated:
		return true
	}
	return false
}

type Notification struct {
	ID               int64            `json:"id" gorm:"primaryKey"`
	RecipientID      int64            `json:"recipient_id" gorm:"index:idx_notifications_recipient_read,priority:1;not null"`
	SenderID         int64            `json:"sender_id" gorm:"not null"`
	Type             NotificationType `json:"type" gorm:"not null"`
	Title            string           `json:"title" gorm:"not null"`
	Message          string           `json:"message" gorm:"type:text;not null"`
	RelatedProfileID *int64           `json:"related_profile_id,omitempty"`
	RelatedRequestID *int64           `json:"related_request_id,omitempty"`
	Read             bool             `json:"read" gorm:"column:is_read;index:idx_notifications_recipient_read,priority:2;not null;default:false"`
	ReadAt           *time.Time       `json:"read_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// MarkAsRead marks notification as read with timestamp
func (n *Notification) MarkAsRead() {
	n.Read = true
	now := time.Now()
	n.ReadAt = &now
}
