package notification

import (
	"time"

	"profinder/internal/domain"
)

type NotificationResponse struct {
	ID               int64                   `json:"id"`
	SenderID         int64                   `json:"sender_id"`
	Type             domain.NotificationType `json:"type"`
	Title            string                  `json:"title"`
	Message          string                  `json:"message"`
	RelatedProfileID *int64                  `json:"related_profile_id,omitempty"`
	RelatedRequestID *int64                  `json:"related_request_id,omitempty"`
	Read             bool                    `json:"read"`
	ReadAt           *time.Time              `json:"read_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

func NotificationResponseFromEntity(n *domain.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:               n.ID,
		SenderID:         n.SenderID,
		Type:             n.Type,
		Title:            n.Title,
		Message:          n.Message,
		RelatedProfileID: n.RelatedProfileID,
		RelatedRequestID: n.RelatedRequestID,
		Read:             n.Read,
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
	Total         int64                   `json:"total"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
