// Package metrics defines Prometheus instrumentation for the voice and
// workflow pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for worklens.
type Metrics struct {
	// Audio pipeline
	WindowsCaptured prometheus.Counter
	WindowsSilent   prometheus.Counter
	WindowsAborted  prometheus.Counter

	// Transcription
	TranscriptionsOK     prometheus.Counter
	TranscriptionsFailed prometheus.Counter
	TranscriptionSeconds prometheus.Histogram

	// Workflow synthesis
	ModelAttempts      *prometheus.CounterVec
	WorkflowsGenerated prometheus.Counter
	WorkflowsFallback  prometheus.Counter

	// Relay
	EventsDelivered prometheus.Counter
	EventsDropped   prometheus.Counter
	Subscribers     prometheus.Gauge
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WindowsCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_audio_windows_captured_total",
			Help: "Completed audio windows handed to the silence gate",
		}),
		WindowsSilent: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_audio_windows_silent_total",
			Help: "Windows dropped by the silence gate before transcription",
		}),
		WindowsAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_audio_windows_aborted_total",
			Help: "Partial windows discarded on session stop or read error",
		}),
		TranscriptionsOK: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_transcriptions_total",
			Help: "Successful transcription API calls",
		}),
		TranscriptionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_transcriptions_failed_total",
			Help: "Failed transcription API calls",
		}),
		TranscriptionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worklens_transcription_duration_seconds",
			Help:    "Round-trip time of transcription API calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ModelAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worklens_model_attempts_total",
			Help: "LLM attempts by model and outcome",
		}, []string{"model", "outcome"}),
		WorkflowsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_workflows_generated_total",
			Help: "Workflows synthesized successfully",
		}),
		WorkflowsFallback: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_workflows_fallback_total",
			Help: "Fallback workflows produced after synthesis failure",
		}),
		EventsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_relay_events_delivered_total",
			Help: "Events delivered to at least one subscriber",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "worklens_relay_events_dropped_total",
			Help: "Events dropped because the relay queue was full",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worklens_relay_subscribers",
			Help: "Currently attached relay subscribers",
		}),
	}
}

// NewDefault registers against the default registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
