package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photos",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photos",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	// Presigned handles issued, by operation (put/get) and version.
	PresignsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photos",
			Subsystem: "api",
			Name:      "presigned_urls_total",
			Help:      "Total presigned URLs issued",
		},
		[]string{"operation", "version"},
	)

	BlobOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photos",
			Subsystem: "blob_store",
			Name:      "operations_total",
			Help:      "Total blob store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	BlobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photos",
			Subsystem: "blob_store",
			Name:      "operation_duration_seconds",
			Help:      "Blob store operation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"backend", "operation"},
	)

	MetadataOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photos",
			Subsystem: "metadata_store",
			Name:      "operations_total",
			Help:      "Total metadata store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	MetadataOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photos",
			Subsystem: "metadata_store",
			Name:      "operation_duration_seconds",
			Help:      "Metadata store operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"backend", "operation"},
	)

	// Blobs left behind by a delete whose blob removal failed.
	DeleteInconsistenciesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photos",
			Subsystem: "api",
			Name:      "delete_blob_failures_total",
			Help:      "Blob deletions that failed during photo delete",
		},
		[]string{"version"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordPresign records an issued presigned URL
func RecordPresign(operation, version string) {
	PresignsTotal.WithLabelValues(operation, version).Inc()
}

// RecordBlobOperation records a blob store call
func RecordBlobOperation(backend, operation string, err error, durationSec float64) {
	BlobOperationsTotal.WithLabelValues(backend, operation, statusLabel(err)).Inc()
	BlobOperationDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordMetadataOperation records a metadata store call
func RecordMetadataOperation(backend, operation string, err error, durationSec float64) {
	MetadataOperationsTotal.WithLabelValues(backend, operation, statusLabel(err)).Inc()
	MetadataOperationDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordDeleteFailure records a blob that could not be removed during delete
func RecordDeleteFailure(version string) {
	DeleteInconsistenciesTotal.WithLabelValues(version).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
