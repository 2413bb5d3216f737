package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartcare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by route
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heartcare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PredictionsTotal counts persisted predictions by label
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartcare_predictions_total",
			Help: "Total number of risk predictions by predicted label",
		},
		[]string{"label"},
	)

	// ModelLoadsTotal counts model artifact loads by result (loaded, cached, failed)
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartcare_model_loads_total",
			Help: "Total number of model artifact loads",
		},
		[]string{"result"},
	)
)

// RecordPrediction increments the prediction counter for label
func RecordPrediction(label int) {
	PredictionsTotal.WithLabelValues(strconv.Itoa(label)).Inc()
}

// RecordModelLoad increments the model load counter for result
func RecordModelLoad(result string) {
	ModelLoadsTotal.WithLabelValues(result).Inc()
}
