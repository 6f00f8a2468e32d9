package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockinsight",
			Subsystem: "dashboard",
			Name:      "latency_seconds",
			Help:      "Latency of dashboard endpoints",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 15, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinsight",
			Subsystem: "dashboard",
			Name:      "errors_total",
			Help:      "Errors by dashboard endpoint and code",
		},
		[]string{"endpoint", "code"},
	)

	RefreshThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinsight",
			Subsystem: "dashboard",
			Name:      "refresh_throttled_total",
			Help:      "Manual refreshes rejected by the limiter",
		},
		[]string{"symbol"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, RefreshThrottled)
	})
}

// ObserveSince records the latency of endpoint measured from start.
func ObserveSince(endpoint string, start time.Time) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
