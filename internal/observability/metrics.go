package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoscan",
		Subsystem: "activities",
		Name:      "logged_total",
		Help:      "Number of activities logged, by category.",
	}, []string{"category"})

	activityCO2 = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecoscan",
		Subsystem: "activities",
		Name:      "co2_kg",
		Help:      "Estimated CO2 of logged activities in kg.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	}, []string{"category"})

	lastActivityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ecoscan",
		Subsystem: "activities",
		Name:      "last_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recently logged activity.",
	})

	logsQuarantined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ecoscan",
		Subsystem: "store",
		Name:      "logs_quarantined_total",
		Help:      "Number of unreadable activity logs archived before being overwritten.",
	})

	authEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoscan",
		Subsystem: "auth",
		Name:      "events_total",
		Help:      "Authentication events, by kind and provider.",
	}, []string{"event", "provider"})

	sessionStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ecoscan",
		Subsystem: "session",
		Name:      "open_streams",
		Help:      "Open session event streams.",
	})
)

func init() {
	prometheus.MustRegister(activitiesLogged, activityCO2, lastActivityGauge, logsQuarantined, authEvents, sessionStreams)
}

// RecordActivityLogged updates the activity counters for one stored record.
func RecordActivityLogged(category string, co2 float64, ts time.Time) {
	activitiesLogged.WithLabelValues(category).Inc()
	activityCO2.WithLabelValues(category).Observe(co2)
	if !ts.IsZero() {
		lastActivityGauge.Set(float64(ts.Unix()))
	}
}

func RecordLogQuarantined() {
	logsQuarantined.Inc()
}

// RecordAuthEvent counts sign-ins, sign-ups, verifications and sign-outs.
func RecordAuthEvent(event, provider string) {
	authEvents.WithLabelValues(event, provider).Inc()
}

// SessionStreamOpened tracks an open stream and returns the matching close func.
func SessionStreamOpened() func() {
	sessionStreams.Inc()
	return sessionStreams.Dec
}
