package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLabels = []string{"operation", "success"}
	requestTimer = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "astore",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Round-trip duration of artifact store requests, by SDK operation.",
	}, metricLabels)
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "astore",
		Subsystem: "client",
		Name:      "request_total",
		Help:      "Artifact store request count, by SDK operation.",
	}, metricLabels)
)

// startTimer begins timing a request for the named operation. The returned
// function records the observation; success covers both transport failures
// and mapped error statuses.
func startTimer(op string) func(success bool) {
	timer := prometheus.NewTimer(nil)
	return func(success bool) {
		labels := prometheus.Labels{
			"operation": op,
			"success":   strconv.FormatBool(success),
		}
		requestTimer.With(labels).Observe(timer.ObserveDuration().Seconds())
		requestCounter.With(labels).Inc()
	}
}
