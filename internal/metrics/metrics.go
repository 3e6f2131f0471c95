package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for commands received, messages sent, new users and
// cache operations, plus histograms for database query and timesheet
// generation durations.
type Metrics struct {
	CommandReceived     *prometheus.CounterVec   // Counter for received commands
	SentMessages        *prometheus.CounterVec   // Counter for sent messages
	NewUsers            prometheus.Counter       // Counter for new users
	CacheOps            *prometheus.CounterVec   // Counter for cache operations by outcome
	DBQueryDuration     *prometheus.HistogramVec // Histogram for database query durations
	TimesheetGeneration *prometheus.HistogramVec // Histogram for timesheet generation durations
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, /timesheet, /refresh
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, document, error
		NewUsers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_new_users_total",
			Help: "Total number of new users via /start command",
		}),
		CacheOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations by kind and outcome",
		}, []string{"cache", "result"}), // cache: employee, template; result: hit, miss
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: get_employee, get_or_create, update_email
		TimesheetGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "timesheet_generation_duration_seconds",
			Help: "Duration of timesheet excel generation.",
		}, []string{"source"}), // source: request
	}
}
