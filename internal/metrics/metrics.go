package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type recorder struct {
	lockCalls     *prometheus.CounterVec
	rooms         *prometheus.CounterVec
	notifications *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	checkinTime   prometheus.Observer
	sessionRuns   *prometheus.CounterVec
}

var (
	once sync.Once
	inst *recorder
)

func global() *recorder {
	once.Do(func() {
		inst = &recorder{
			lockCalls: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "guestotp",
				Subsystem: "lock",
				Name:      "vendor_calls_total",
				Help:      "Calls to the lock vendor API, labeled by operation and outcome",
			}, []string{"operation", "outcome"}),
			rooms: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "guestotp",
				Subsystem: "checkin",
				Name:      "rooms_total",
				Help:      "Rooms processed by the check-in flow, labeled by final state",
			}, []string{"state"}),
			notifications: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "guestotp",
				Subsystem: "notify",
				Name:      "messages_total",
				Help:      "Guest notifications, labeled by channel and outcome",
			}, []string{"channel", "outcome"}),
			webhooks: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "guestotp",
				Subsystem: "checkin",
				Name:      "webhooks_total",
				Help:      "Check-in webhooks, labeled by HTTP status class",
			}, []string{"status"}),
			checkinTime: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "guestotp",
				Subsystem: "checkin",
				Name:      "duration_seconds",
				Help:      "Duration of check-in webhook processing",
				Buckets:   prometheus.DefBuckets,
			}),
			sessionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "guestotp",
				Subsystem: "lock",
				Name:      "session_refresh_total",
				Help:      "Scheduled lock session refreshes, labeled by outcome",
			}, []string{"outcome"}),
		}
	})
	return inst
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// LockCall counts one vendor API call
func LockCall(operation string, ok bool) {
	global().lockCalls.WithLabelValues(operation, outcome(ok)).Inc()
}

// Room counts a room reaching its final state
func Room(state string) {
	global().rooms.WithLabelValues(state).Inc()
}

// Notification counts one channel send
func Notification(channel string, ok bool) {
	global().notifications.WithLabelValues(channel, outcome(ok)).Inc()
}

// Webhook counts a finished webhook by status class ("2xx", "4xx", "5xx")
func Webhook(status int) {
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 500:
		class = "4xx"
	}
	global().webhooks.WithLabelValues(class).Inc()
}

// StartCheckin starts the duration timer; call the returned func when done
func StartCheckin() func() {
	timer := prometheus.NewTimer(global().checkinTime)
	return func() {
		timer.ObserveDuration()
	}
}

// SessionRefresh counts a scheduled refresh
func SessionRefresh(ok bool) {
	global().sessionRuns.WithLabelValues(outcome(ok)).Inc()
}
