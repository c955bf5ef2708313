package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "reservations_created_total",
			Help:      "Reservations created by initial status.",
		},
		[]string{"status"},
	)

	reservationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "reservations_rejected_total",
			Help:      "Reservation attempts rejected at write time.",
		},
		[]string{"reason"},
	)

	weatherHolds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "weather_holds_total",
			Help:      "Weather hold operations by kind (placed, removed, rescheduled).",
		},
		[]string{"kind"},
	)

	slotCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "slot_cache_lookups_total",
			Help:      "Availability cache lookups by outcome (hit, miss).",
		},
		[]string{"outcome"},
	)

	sweeperExpirations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helmsman",
			Name:      "sweeper_expirations_total",
			Help:      "Records expired by the background sweeper.",
		},
		[]string{"kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			reservationsCreated,
			reservationsRejected,
			weatherHolds,
			slotCacheLookups,
			sweeperExpirations,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncReservationCreated(status string) {
	reservationsCreated.WithLabelValues(status).Inc()
}

func IncReservationRejected(reason string) {
	reservationsRejected.WithLabelValues(reason).Inc()
}

func IncWeatherHold(kind string) {
	weatherHolds.WithLabelValues(kind).Inc()
}

func IncSlotCacheLookup(outcome string) {
	slotCacheLookups.WithLabelValues(outcome).Inc()
}

func AddSweeperExpirations(kind string, n int) {
	sweeperExpirations.WithLabelValues(kind).Add(float64(n))
}
