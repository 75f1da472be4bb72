package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldsight_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CollabConnections tracks live WebSocket connections on the collab hub.
	CollabConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldsight_collab_connections",
			Help: "Number of open collaboration connections",
		},
	)

	// CollabBroadcasts counts messages relayed by the collab hub per message type.
	CollabBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsight_collab_broadcasts_total",
			Help: "Total messages broadcast to entity subscribers",
		},
		[]string{"type"},
	)

	// CollabDroppedClients counts clients disconnected due to backpressure.
	CollabDroppedClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldsight_collab_dropped_clients_total",
			Help: "Connections closed because their send buffer overflowed",
		},
	)

	// NotificationFanout counts persisted notification writes per type and result.
	NotificationFanout = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsight_notification_fanout_total",
			Help: "Notification records written by the dispatch fan-out",
		},
		[]string{"type", "result"},
	)
)
