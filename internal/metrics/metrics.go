package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "festbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings committed.",
		},
	)

	bookingDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "festbook",
			Name:      "booking_deleted_total",
			Help:      "Count of bookings deleted.",
		},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "festbook",
			Name:      "booking_rejected_total",
			Help:      "Count of booking attempts rejected by eligibility rule.",
		},
		[]string{"reason"},
	)

	importRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "festbook",
			Name:      "import_records_total",
			Help:      "Count of records inserted by bulk import, by kind.",
		},
		[]string{"kind"},
	)

	login = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "festbook",
			Name:      "login_total",
			Help:      "Count of group login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingDeleted, bookingRejected, importRecords, login)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingDeleted() {
	bookingDeleted.Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func AddImported(kind string, count int) {
	importRecords.WithLabelValues(kind).Add(float64(count))
}

func IncLogin(outcome string) {
	login.WithLabelValues(outcome).Inc()
}
