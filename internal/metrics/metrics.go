package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welllink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "welllink_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SlotsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welllink_slots_generated_total",
			Help: "Total number of time slots produced by generation runs",
		},
		[]string{"outcome"},
	)

	SlotsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "welllink_slots_expired_total",
			Help: "Total number of time slots expired by the sweeper",
		},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welllink_reservations_total",
			Help: "Total number of reservation requests by resolution",
		},
		[]string{"status"},
	)

	ReservationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "welllink_reservations_expired_total",
			Help: "Total number of reservation requests expired by the sweeper",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welllink_notifications_total",
			Help: "Total number of notifications by type and status",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "welllink_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	PendingReservations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "welllink_pending_reservations",
			Help: "Number of reservation requests awaiting advisor review",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSlotsGenerated(created, skipped, failed int) {
	SlotsGeneratedTotal.WithLabelValues("created").Add(float64(created))
	SlotsGeneratedTotal.WithLabelValues("skipped").Add(float64(skipped))
	SlotsGeneratedTotal.WithLabelValues("failed").Add(float64(failed))
}

func RecordReservation(status string) {
	ReservationsTotal.WithLabelValues(status).Inc()
}

func RecordReservationsExpired(n int) {
	ReservationsExpiredTotal.Add(float64(n))
}

func RecordSlotsExpired(n int) {
	SlotsExpiredTotal.Add(float64(n))
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
