package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	"profinder/internal/domain"
	"profinder/internal/metrics"
	"profinder/internal/realtime"
)

// Event is one logical occurrence to deliver. Recipients are computed by the
// caller and used as given.
type Event struct {
	SenderID         int64
	Type             domain.NotificationType
	Title            string
	Message          string
	Recipients       []int64
	RelatedProfileID *int64
	RelatedRequestID *int64
}

// urgent types are also pushed on the superadmin broadcast topic.
var urgent = map[domain.NotificationType]string{
	domain.NotifAdminVerificationRequest: realtime.EventNewAdminVerification,
}

type Dispatcher struct {
	repo      NotificationRepository
	publisher realtime.Publisher
}

// NewDispatcher accepts a nil publisher; urgent events are then only persisted.
func NewDispatcher(repo NotificationRepository, publisher realtime.Publisher) *Dispatcher {
	return &Dispatcher{repo: repo, publisher: publisher}
}

// Notify writes one notification per recipient, in order. Recipients are not
// deduplicated. A failed write does not stop the remaining ones; the returned
// slice holds what was stored and the error joins every failure.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) ([]domain.Notification, error) {
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", domain.ErrInvalidInput, ev.Type)
	}

	created := make([]domain.Notification, 0, len(ev.Recipients))
	var errs []error
	for _, recipientID := range ev.Recipients {
		n := domain.Notification{
			RecipientID:      recipientID,
			SenderID:         ev.SenderID,
			Type:             ev.Type,
			Title:            ev.Title,
			Message:          ev.Message,
			RelatedProfileID: ev.RelatedProfileID,
			RelatedRequestID: ev.RelatedRequestID,
		}
		if err := d.repo.Create(ctx, &n); err != nil {
			errs = append(errs, fmt.Errorf("notify recipient %d: %w", recipientID, err))
			continue
		}
		metrics.NotificationsCreated.WithLabelValues(string(ev.Type)).Inc()
		created = append(created, n)
	}

	if eventType, ok := urgent[ev.Type]; ok {
		d.push(eventType, ev)
	}

	return created, errors.Join(errs...)
}

func (d *Dispatcher) push(eventType string, ev Event) {
	if d.publisher == nil {
		return
	}
	payload := map[string]any{"message": ev.Message}
	if ev.RelatedProfileID != nil {
		payload["related_profile_id"] = *ev.RelatedProfileID
	}
	err := d.publisher.Publish(realtime.TopicSuperAdmin, realtime.Event{Type: eventType, Payload: payload})
	if err != nil {
		metrics.SecondaryWriteFailures.WithLabelValues(metrics.KindRealtime).Inc()
		log.Printf("realtime_publish_failed type=%s error=%q", ev.Type, err.Error())
	}
}
