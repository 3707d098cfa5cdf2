package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the metric families emitted by the chat backend.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC Layer
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Conversation Layer
	MessagesTotal   CounterVec
	IntentsTotal    CounterVec
	SummariesTotal  CounterVec
	ActiveSessions  GaugeVec
	SessionsEvicted CounterVec
	SweepDuration   HistogramVec

	// Prediction Layer
	PredictionsTotal      CounterVec
	PredictionDuration    HistogramVec
	PredictionCacheHits   CounterVec
	PredictionCacheMisses CounterVec

	// LLM Layer
	LLMRequestsTotal      CounterVec
	LLMRequestDuration    HistogramVec
	LLMExtractionFailures CounterVec

	// Infrastructure Layer
	EventsPublishedTotal CounterVec
	ReportsStoredTotal   CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultLLMDurationBuckets        = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultPredictionDurationBuckets = []float64{1, 5, 10, 15, 30, 60, 90, 120, 300}
	DefaultSweepDurationBuckets      = []float64{.0001, .001, .01, .1, 1}
)

// NewAppMetrics registers all metric families on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	// gRPC
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	// Conversation
	m.MessagesTotal = collector.RegisterCounter("chat_messages_total", "Chat messages stored", "role")
	m.IntentsTotal = collector.RegisterCounter("chat_intents_total", "Routed messages by intent", "intent", "outcome")
	m.SummariesTotal = collector.RegisterCounter("chat_summaries_total", "Chat summaries generated", "source")
	m.ActiveSessions = collector.RegisterGauge("sessions_active", "Live in-memory sessions")
	m.SessionsEvicted = collector.RegisterCounter("sessions_evicted_total", "Sessions removed by the idle sweeper")
	m.SweepDuration = collector.RegisterHistogram("session_sweep_duration_seconds", "Idle sweep duration", DefaultSweepDurationBuckets)

	// Prediction
	m.PredictionsTotal = collector.RegisterCounter("predictions_total", "Prediction runs", "task", "status")
	m.PredictionDuration = collector.RegisterHistogram("prediction_duration_seconds", "Prediction run duration", DefaultPredictionDurationBuckets, "task")
	m.PredictionCacheHits = collector.RegisterCounter("prediction_cache_hits_total", "Prediction cache hits", "task")
	m.PredictionCacheMisses = collector.RegisterCounter("prediction_cache_misses_total", "Prediction cache misses", "task")

	// LLM
	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total", "LLM requests", "operation", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds", "LLM request duration", DefaultLLMDurationBuckets, "operation")
	m.LLMExtractionFailures = collector.RegisterCounter("llm_extraction_failures_total", "Structured extraction failures", "kind")

	// Infrastructure
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Domain events published", "type", "status")
	m.ReportsStoredTotal = collector.RegisterCounter("reports_stored_total", "Prediction reports archived", "status")

	return m
}

// ── Recording helpers ─────────────────────────────────────────────────────────
// Every helper is nil-safe so components can run without metrics wired.

// RecordHTTPRequest records one finished HTTP request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordGRPCRequest records one finished gRPC call.
func (m *AppMetrics) RecordGRPCRequest(service, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

// RecordMessage counts a stored chat message.
func (m *AppMetrics) RecordMessage(role string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(role).Inc()
}

// RecordIntent counts one routed message.
func (m *AppMetrics) RecordIntent(intent, outcome string) {
	if m == nil {
		return
	}
	m.IntentsTotal.WithLabelValues(intent, outcome).Inc()
}

// RecordSummary counts a summary, source is "llm", "cache" or "fallback".
func (m *AppMetrics) RecordSummary(source string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(source).Inc()
}

// SetActiveSessions sets the live-session gauge.
func (m *AppMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues().Set(float64(n))
}

// RecordSweep records one sweeper iteration.
func (m *AppMetrics) RecordSweep(evicted int, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionsEvicted.WithLabelValues().Add(float64(evicted))
	m.SweepDuration.WithLabelValues().Observe(d.Seconds())
}

// RecordPrediction records one prediction run.
func (m *AppMetrics) RecordPrediction(task, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(task, status).Inc()
	m.PredictionDuration.WithLabelValues(task).Observe(d.Seconds())
}

// RecordPredictionCache records a cache lookup outcome.
func (m *AppMetrics) RecordPredictionCache(task string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.PredictionCacheHits.WithLabelValues(task).Inc()
		return
	}
	m.PredictionCacheMisses.WithLabelValues(task).Inc()
}

// ObserveLLMCall records one LLM call.
func (m *AppMetrics) ObserveLLMCall(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, status).Inc()
	m.LLMRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordExtractionFailure counts a failed structured extraction.
func (m *AppMetrics) RecordExtractionFailure(kind string) {
	if m == nil {
		return
	}
	m.LLMExtractionFailures.WithLabelValues(kind).Inc()
}

// RecordEvent counts a published (or failed) domain event.
func (m *AppMetrics) RecordEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// RecordReportStored counts an archived prediction report.
func (m *AppMetrics) RecordReportStored(status string) {
	if m == nil {
		return
	}
	m.ReportsStoredTotal.WithLabelValues(status).Inc()
}

//Personal.AI order the ending
