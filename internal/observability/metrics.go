package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedPagesServed counts feed pages by filter and page kind (first, next).
	FeedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_feed_pages_served_total",
		Help: "Total number of feed pages served",
	}, []string{"filter", "kind"})

	// FeedPageSize observes how many posts each served page carried.
	FeedPageSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_feed_page_posts",
		Help:    "Number of posts per served feed page",
		Buckets: prometheus.LinearBuckets(0, 2, 11),
	}, []string{"filter"})

	// CounterMutations counts counter-changing mutations by entity and outcome,
	// e.g. ("like", "added") or ("comment", "removed").
	CounterMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_counter_mutations_total",
		Help: "Total number of denormalized counter mutations",
	}, []string{"entity", "outcome"})

	// WebSocketConnectionsTotal is the gauge of live feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "network_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts events pushed to live feed connections.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "network_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordMutation bumps CounterMutations.
func RecordMutation(entity, outcome string) {
	CounterMutations.WithLabelValues(entity, outcome).Inc()
}
