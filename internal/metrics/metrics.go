package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "bookings_created_total",
			Help:      "Bookings created by pricing type.",
		},
		[]string{"pricing_type"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "booking_status_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"to"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "availability_checks_total",
			Help:      "Availability checks by outcome (available, full, inactive, fail_open).",
		},
		[]string{"outcome"},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	hubSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "deskhive",
			Name:      "hub_subscribers",
			Help:      "Observers currently attached to the sync hub.",
		},
	)

	feedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskhive",
			Name:      "feed_events_total",
			Help:      "Change-feed events relayed by operation.",
		},
		[]string{"op"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			statusTransitions,
			availabilityChecks,
			availabilityCache,
			hubSubscribers,
			feedEvents,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(pricingType string) {
	bookingsCreated.WithLabelValues(pricingType).Inc()
}

func IncStatusTransition(to string) {
	statusTransitions.WithLabelValues(to).Inc()
}

func IncAvailabilityCheck(outcome string) {
	availabilityChecks.WithLabelValues(outcome).Inc()
}

func IncAvailabilityCache(result string) {
	availabilityCache.WithLabelValues(result).Inc()
}

func SetHubSubscribers(n int) {
	hubSubscribers.Set(float64(n))
}

func IncFeedEvent(op string) {
	feedEvents.WithLabelValues(op).Inc()
}
