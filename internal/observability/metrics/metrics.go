// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinical_ehr_gateway"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Document metrics
	DocumentsBuilt             *prometheus.CounterVec
	DocumentValidationFailures prometheus.Counter
	DocumentDecodeFailures     prometheus.Counter

	// HL7 metrics
	HL7MessagesBuilt *prometheus.CounterVec

	// EHR submission metrics
	EHRSubmissions       *prometheus.CounterVec
	EHRSubmissionErrors  *prometheus.CounterVec
	EHRSubmissionLatency *prometheus.HistogramVec

	// Transcription metrics
	TranscriptionRequests *prometheus.CounterVec
	TranscriptionErrors   *prometheus.CounterVec
	TranscriptionLatency  *prometheus.HistogramVec
	UtterancesTranscribed prometheus.Counter

	// Pipeline metrics
	PipelineDuration *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Document metrics
		DocumentsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_built_total",
			Help:      "Total number of DocumentReference resources built",
		}, []string{"doc_type"}),
		DocumentValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_validation_failures_total",
			Help:      "Total number of DocumentReference validation failures",
		}),
		DocumentDecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_decode_failures_total",
			Help:      "Total number of attachment decode failures",
		}),

		// HL7 metrics
		HL7MessagesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hl7_messages_built_total",
			Help:      "Total number of HL7v2 messages built",
		}, []string{"message_type"}),

		// EHR submission metrics
		EHRSubmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ehr_submissions_total",
			Help:      "Total number of EHR submission attempts",
		}, []string{"vendor", "status_class"}),
		EHRSubmissionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ehr_submission_errors_total",
			Help:      "Total number of EHR submissions that failed before a response",
		}, []string{"vendor"}),
		EHRSubmissionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ehr_submission_latency_seconds",
			Help:      "EHR submission round trip latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"vendor"}),

		// Transcription metrics
		TranscriptionRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_requests_total",
			Help:      "Total number of transcription requests",
		}, []string{"provider"}),
		TranscriptionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Total number of transcription errors",
		}, []string{"provider"}),
		TranscriptionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Transcription request latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		UtterancesTranscribed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_transcribed_total",
			Help:      "Total number of diarized utterances returned by providers",
		}),

		// Pipeline metrics
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End to end pipeline duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"pipeline"}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
	}
}

// RecordDocumentBuilt records a successfully built and validated
// DocumentReference.
func (m *Metrics) RecordDocumentBuilt(docType string) {
	m.DocumentsBuilt.WithLabelValues(docType).Inc()
}

// RecordValidationFailure records a DocumentReference rejected by the
// schema validator.
func (m *Metrics) RecordValidationFailure() {
	m.DocumentValidationFailures.Inc()
}

// RecordDecodeFailure records a failed attachment decode.
func (m *Metrics) RecordDecodeFailure() {
	m.DocumentDecodeFailures.Inc()
}

// RecordHL7Built records a built HL7v2 message by type (MDM^T02, ORU^R01).
func (m *Metrics) RecordHL7Built(messageType string) {
	m.HL7MessagesBuilt.WithLabelValues(messageType).Inc()
}

// RecordEHRSubmission records a submission attempt. A transport error
// (no HTTP response) counts separately from a non-2xx status.
func (m *Metrics) RecordEHRSubmission(vendor string, statusCode int, err error, latencySeconds float64) {
	if err != nil {
		m.EHRSubmissionErrors.WithLabelValues(vendor).Inc()
		return
	}
	m.EHRSubmissions.WithLabelValues(vendor, statusClass(statusCode)).Inc()
	m.EHRSubmissionLatency.WithLabelValues(vendor).Observe(latencySeconds)
}

// RecordTranscription records a transcription request and its utterance
// yield.
func (m *Metrics) RecordTranscription(provider string, utterances int, err error, latencySeconds float64) {
	m.TranscriptionRequests.WithLabelValues(provider).Inc()
	if err != nil {
		m.TranscriptionErrors.WithLabelValues(provider).Inc()
		return
	}
	m.TranscriptionLatency.WithLabelValues(provider).Observe(latencySeconds)
	m.UtterancesTranscribed.Add(float64(utterances))
}

// RecordPipeline records an end to end pipeline run.
func (m *Metrics) RecordPipeline(pipeline string, durationSeconds float64) {
	m.PipelineDuration.WithLabelValues(pipeline).Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records an API request against its chi route pattern.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// statusClass collapses a status code to 2xx/4xx/5xx style buckets to
// keep label cardinality down.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
