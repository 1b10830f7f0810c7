package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps prometheus collectors for conduit's message-plane.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	acceptsTotal *prometheus.CounterVec // buffer, status

	acceptWait *prometheus.HistogramVec // buffer
	consumeWait *prometheus.HistogramVec // buffer

	uptime     prometheus.GaugeFunc
	queueDepth *prometheus.GaugeVec // buffer

	broadcastFanout *prometheus.GaugeVec // node

	circuitBreakerState      *prometheus.GaugeVec // key
	circuitBreakerTripsTotal *prometheus.CounterVec // key, to_state
}

var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 10000, 50000}

var promMetrics *PrometheusMetrics

// InitPrometheus initializes the Prometheus metrics subsystem.
func InitPrometheus(namespace string, buckets []float64) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry: registry,

		acceptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accepts_total",
				Help:      "Total Accept calls by buffer and resulting status",
			},
			[]string{"buffer", "status"},
		),

		acceptWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "accept_wait_microseconds",
				Help:      "Time spent inside Accept, in microseconds",
				Buckets:   buckets,
			},
			[]string{"buffer"},
		),

		consumeWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "consume_wait_microseconds",
				Help:      "Time a Consume call spent blocked waiting for a message, in microseconds",
				Buckets:   buckets,
			},
			[]string{"buffer"},
		),

		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Current backlog depth by buffer",
			},
			[]string{"buffer"},
		),

		broadcastFanout: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "broadcast_target_count",
				Help:      "Current number of targets registered on a broadcast node",
			},
			[]string{"node"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half_open)",
			},
			[]string{"key"},
		),

		circuitBreakerTripsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_trips_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"key", "to_state"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the process started",
		},
		func() float64 {
			return time.Since(StartTime()).Seconds()
		},
	)

	registry.MustRegister(
		pm.acceptsTotal,
		pm.acceptWait,
		pm.consumeWait,
		pm.uptime,
		pm.queueDepth,
		pm.broadcastFanout,
		pm.circuitBreakerState,
		pm.circuitBreakerTripsTotal,
	)

	promMetrics = pm
}

// RecordPrometheusAccept records an Accept outcome in Prometheus collectors.
func RecordPrometheusAccept(buffer, status string, waitUs int64) {
	if promMetrics == nil {
		return
	}
	promMetrics.acceptsTotal.WithLabelValues(buffer, status).Inc()
	promMetrics.acceptWait.WithLabelValues(buffer).Observe(float64(waitUs))
}

// RecordConsumeWait records how long a Consume call blocked before a
// message became available.
func RecordConsumeWait(buffer string, waitUs int64) {
	if promMetrics == nil {
		return
	}
	promMetrics.consumeWait.WithLabelValues(buffer).Observe(float64(waitUs))
}

// RecordPrometheusQueueDepth sets the queue depth gauge for a buffer.
func RecordPrometheusQueueDepth(buffer string, depth int64) {
	if promMetrics == nil {
		return
	}
	promMetrics.queueDepth.WithLabelValues(buffer).Set(float64(depth))
}

// SetBroadcastFanout sets the target-count gauge for a broadcast node.
func SetBroadcastFanout(node string, count int) {
	if promMetrics == nil {
		return
	}
	promMetrics.broadcastFanout.WithLabelValues(node).Set(float64(count))
}

// SetCircuitBreakerState sets the circuit breaker state gauge for a key.
// state: 0=closed, 1=open, 2=half_open
func SetCircuitBreakerState(key string, state int) {
	if promMetrics == nil {
		return
	}
	promMetrics.circuitBreakerState.WithLabelValues(key).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker state transition.
func RecordCircuitBreakerTrip(key, toState string) {
	if promMetrics == nil {
		return
	}
	promMetrics.circuitBreakerTripsTotal.WithLabelValues(key, toState).Inc()
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics scraping.
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}

// PrometheusRegistry returns the prometheus registry (for custom collectors).
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
