package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	HabitToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_toggles_total",
			Help: "Completion toggles by resulting state",
		},
		[]string{"result"},
	)
	LedgerConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habit_ledger_conflicts_total",
			Help: "Concurrent completion inserts resolved as already completed",
		},
	)
	StaleStatsRepaired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "habit_stale_stats_repaired_total",
			Help: "Habits whose stored statistics were recomputed on read",
		},
	)
	NotificationsPushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_pushed_total",
			Help: "Push notification deliveries by outcome",
		},
		[]string{"outcome"},
	)
)

var once sync.Once

// InitPrometheus registers the collectors with the default registry. Safe to call more than once.
func InitPrometheus() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthRejections,
			HabitToggles,
			LedgerConflicts,
			StaleStatsRepaired,
			NotificationsPushed,
		)
	})
}
