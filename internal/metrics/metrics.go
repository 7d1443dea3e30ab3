package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	outboundTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prebook",
			Name:      "outbound_tasks_total",
			Help:      "Outbound automation tasks by type and result.",
		},
		[]string{"type", "result"},
	)

	availabilityFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prebook",
			Name:      "availability_fallbacks_total",
			Help:      "Times availability was served fail-open due to a storage error.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, outboundTasks, availabilityFallbacks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncOutboundTask records an automation task outcome.
func IncOutboundTask(taskType, result string) {
	outboundTasks.WithLabelValues(taskType, result).Inc()
}

// IncAvailabilityFallback counts a fail-open availability response.
func IncAvailabilityFallback() {
	availabilityFallbacks.Inc()
}
