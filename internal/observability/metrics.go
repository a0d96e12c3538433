package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	serverResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modbusctl",
			Subsystem: "server",
			Name:      "responses_total",
			Help:      "Responses produced, labeled by manipulation mode.",
		},
		[]string{"mode"},
	)
	serverConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modbusctl",
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		},
	)
	serverFrameErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modbusctl",
			Subsystem: "server",
			Name:      "frame_errors_total",
			Help:      "Requests dropped for malformed MBAP framing.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(serverResponses, serverConnections, serverFrameErrors)
	})
}

func RecordResponse(mode string) {
	RegisterMetrics()
	serverResponses.WithLabelValues(mode).Inc()
}

func RecordConnection() {
	RegisterMetrics()
	serverConnections.Inc()
}

func RecordFrameError() {
	RegisterMetrics()
	serverFrameErrors.Inc()
}
