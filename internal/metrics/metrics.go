package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profinder_request_transitions_total",
		Help: "Accepted service request status transitions, by target status.",
	}, []string{"to"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profinder_notifications_created_total",
		Help: "Notifications persisted by the dispatcher, by type.",
	}, []string{"type"})

	// SecondaryWriteFailures counts audit and notification writes that failed
	// after the primary mutation was committed.
	SecondaryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profinder_secondary_write_failures_total",
		Help: "Swallowed activity/notification/realtime failures, by kind.",
	}, []string{"kind"})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profinder_realtime_dropped_total",
		Help: "Realtime frames dropped because a session or relay queue was full.",
	})
)

const (
	KindActivity     = "activity"
	KindNotification = "notification"
	KindRealtime     = "realtime"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
