// Package metrics provides Prometheus metrics for the waste inspector.
//
// Exposed at /metrics:
//   - waste_requests_total: HTTP requests by route and status class
//   - waste_request_duration_seconds: HTTP request latency
//   - waste_detections_total: detect actions by task and outcome
//   - waste_detection_duration_seconds: end-to-end detect latency by task
//   - waste_inference_duration_seconds: backend call latency by task
//   - waste_objects_detected_total: detected instances by category
//   - waste_errors_total: failures by error type
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waste_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// DetectionsTotal counts detect actions
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_detections_total",
			Help: "Total number of detect actions",
		},
		[]string{"task", "outcome"},
	)

	// DetectionDuration tracks end-to-end detect latency
	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waste_detection_duration_seconds",
			Help:    "Detect action duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"task"},
	)

	// InferenceDuration tracks backend call latency
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waste_inference_duration_seconds",
			Help:    "Inference backend call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"task"},
	)

	// ObjectsDetected counts detected instances per category
	ObjectsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_objects_detected_total",
			Help: "Total number of detected instances by category",
		},
		[]string{"category"},
	)

	// ErrorsTotal counts failures by error type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"stage", "type"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDetection records a finished detect action
func RecordDetection(task string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	DetectionsTotal.WithLabelValues(task, outcome).Inc()
	if success {
		DetectionDuration.WithLabelValues(task).Observe(duration.Seconds())
	}
}

// RecordInference records one backend call
func RecordInference(task string, duration time.Duration) {
	InferenceDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordObjects adds per-category instance counts
func RecordObjects(counts map[string]int) {
	for category, n := range counts {
		ObjectsDetected.WithLabelValues(category).Add(float64(n))
	}
}

// RecordError records a failure at stage
func RecordError(stage, errorType string) {
	ErrorsTotal.WithLabelValues(stage, errorType).Inc()
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}
