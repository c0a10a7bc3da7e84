package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// InstancesActive tracks the number of live instances.
	InstancesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vizhost_instances_active",
			Help: "Number of live visualization instances",
		},
	)

	// InstancesCreatedTotal tracks instance creations by backend.
	InstancesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizhost_instances_created_total",
			Help: "Total visualization instances created",
		},
		[]string{"backend"},
	)

	// OperationsTotal tracks registry operations by name and outcome.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizhost_operations_total",
			Help: "Total registry operations processed",
		},
		[]string{"op", "outcome"},
	)

	// OperationSeconds tracks registry operation latency.
	OperationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizhost_operation_seconds",
			Help:    "Registry operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// SnapshotsTotal tracks frame exports by backend, format, and outcome.
	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizhost_snapshots_total",
			Help: "Total frame exports",
		},
		[]string{"backend", "format", "outcome"},
	)

	// SnapshotSeconds tracks frame export latency.
	SnapshotSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizhost_snapshot_seconds",
			Help:    "Frame export latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "format"},
	)

	// SnapshotBytesTotal tracks exported frame payload sizes.
	SnapshotBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizhost_snapshot_bytes_total",
			Help: "Total bytes of exported frames",
		},
		[]string{"format"},
	)

	// CacheOpsTotal tracks cache activity by key type and outcome.
	CacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizhost_cache_ops_total",
			Help: "Total cache operations",
		},
		[]string{"key_type", "outcome"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(InstancesActive)
	prometheus.MustRegister(InstancesCreatedTotal)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationSeconds)
	prometheus.MustRegister(SnapshotsTotal)
	prometheus.MustRegister(SnapshotSeconds)
	prometheus.MustRegister(SnapshotBytesTotal)
	prometheus.MustRegister(CacheOpsTotal)
}

// PrometheusHooks exports hook events to the metrics above. One value
// implements all three hook categories.
type PrometheusHooks struct{}

var (
	_ RegistryHooks = PrometheusHooks{}
	_ RenderHooks   = PrometheusHooks{}
	_ CacheHooks    = PrometheusHooks{}
)

// EnablePrometheus routes every hook category to Prometheus metrics.
// Call once at startup; pair with an exposed /metrics endpoint.
func EnablePrometheus() {
	SetRegistryHooks(PrometheusHooks{})
	SetRenderHooks(PrometheusHooks{})
	SetCacheHooks(PrometheusHooks{})
}

func (PrometheusHooks) OnInstanceCreated(_ context.Context, _ string, backend string) {
	InstancesActive.Inc()
	InstancesCreatedTotal.WithLabelValues(backend).Inc()
}

func (PrometheusHooks) OnInstanceDestroyed(context.Context, string) {
	InstancesActive.Dec()
}

func (PrometheusHooks) OnOperation(_ context.Context, op string, duration time.Duration, err error) {
	OperationsTotal.WithLabelValues(op, outcome(err)).Inc()
	OperationSeconds.WithLabelValues(op).Observe(duration.Seconds())
}

func (PrometheusHooks) OnSnapshotStart(context.Context, string, string) {}

func (PrometheusHooks) OnSnapshotComplete(_ context.Context, backend, format string, size int, duration time.Duration, err error) {
	SnapshotsTotal.WithLabelValues(backend, format, outcome(err)).Inc()
	SnapshotSeconds.WithLabelValues(backend, format).Observe(duration.Seconds())
	if err == nil {
		SnapshotBytesTotal.WithLabelValues(format).Add(float64(size))
	}
}

func (PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (PrometheusHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
