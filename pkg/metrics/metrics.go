package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// FHIR client metrics
	FHIRRequests       *prometheus.CounterVec
	FHIRRequestLatency *prometheus.HistogramVec
	FHIRRetries        prometheus.Counter

	// Population metrics
	PopulateRuns       *prometheus.CounterVec
	PopulateDuration   prometheus.Histogram
	PatientsUpserted   prometheus.Counter
	ObservationsStored prometheus.Counter
	RecordErrors       prometheus.Counter

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		FHIRRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fhir_requests_total",
			Help:      "Total number of requests issued to the FHIR server",
		}, []string{"resource", "result"}),
		FHIRRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fhir_request_duration_seconds",
			Help:      "Latency of FHIR server requests",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"resource"}),
		FHIRRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fhir_retry_attempts_total",
			Help:      "Total number of retried FHIR requests",
		}),
		PopulateRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "populate_runs_total",
			Help:      "Total number of population runs by outcome",
		}, []string{"result"}),
		PopulateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "populate_duration_seconds",
			Help:      "Time spent in a full population run",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		PatientsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "patients_upserted_total",
			Help:      "Total number of patient rows staged and committed",
		}),
		ObservationsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "observations_stored_total",
			Help:      "Total number of observation rows staged and committed",
		}),
		RecordErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "record_errors_total",
			Help:      "Total number of per-record errors tolerated during population",
		}),
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}
