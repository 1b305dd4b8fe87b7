package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "bookings_created_total",
			Help:      "Bookings created, by restaurant.",
		},
		[]string{"restaurant"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions, by target status.",
		},
		[]string{"to_status"},
	)

	snapshotLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "availability_snapshot_lookups_total",
			Help:      "Availability snapshot cache lookups, by outcome (hit, miss).",
		},
		[]string{"outcome"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "maitred",
			Name:      "ws_connections",
			Help:      "Open dashboard websocket connections.",
		},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maitred",
			Name:      "sync_tasks_total",
			Help:      "Outbound sync tasks, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, statusTransitions,
			snapshotLookups, wsConnections, syncTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(restaurant string) {
	bookingsCreated.WithLabelValues(restaurant).Inc()
}

func IncTransition(toStatus string) {
	statusTransitions.WithLabelValues(toStatus).Inc()
}

func IncSnapshotLookup(outcome string) {
	snapshotLookups.WithLabelValues(outcome).Inc()
}

func WSConnected()    { wsConnections.Inc() }
func WSDisconnected() { wsConnections.Dec() }

func IncSyncTask(taskType, outcome string) {
	syncTasks.WithLabelValues(taskType, outcome).Inc()
}
