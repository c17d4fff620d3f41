package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Live feed metrics
	FeedConnections prometheus.Gauge
	TaskEvents      *prometheus.CounterVec

	// Background sweep metrics
	DelayedTasks  prometheus.Counter
	SweepDuration prometheus.Histogram

	// Feed reference for dynamic metrics
	feed *ProjectFeed
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(feed *ProjectFeed) *Metrics {
	metrics := &Metrics{
		feed: feed,

		// Active WebSocket feed subscribers (gauge - can go up and down)
		FeedConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ganttboard_feed_connections_active",
			Help: "Number of active WebSocket feed subscribers",
		}),

		// Task change events by operation (counter - only goes up)
		TaskEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ganttboard_task_events_total",
			Help: "Total number of task change events by operation",
		}, []string{"op"}), // insert, update, delete

		// Tasks flipped to delayed by the overdue sweep
		DelayedTasks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ganttboard_delayed_tasks_total",
			Help: "Total number of tasks marked delayed by the sweep",
		}),

		// Sweep run duration
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ganttboard_sweep_duration_seconds",
			Help:    "Delayed-task sweep duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}

	// Register a collector that reads the live subscriber count
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ganttboard_feed_connections_current",
			Help: "Current number of feed subscribers (from the feed)",
		},
		func() float64 {
			if feed != nil {
				return float64(feed.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordFeedConnect records a new feed subscriber
func (m *Metrics) RecordFeedConnect() {
	m.FeedConnections.Inc()
}

// RecordFeedDisconnect records a feed subscriber leaving
func (m *Metrics) RecordFeedDisconnect() {
	m.FeedConnections.Dec()
}

// RecordTaskEvent records a task change event
func (m *Metrics) RecordTaskEvent(op string) {
	m.TaskEvents.WithLabelValues(op).Inc()
}

// RecordDelayedTasks records tasks flipped by the sweep
func (m *Metrics) RecordDelayedTasks(n int) {
	m.DelayedTasks.Add(float64(n))
}

// RecordSweepDuration records how long a sweep run took
func (m *Metrics) RecordSweepDuration(seconds float64) {
	m.SweepDuration.Observe(seconds)
}
