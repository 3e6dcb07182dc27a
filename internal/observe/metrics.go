// Package observe provides application-wide observability primitives for the
// embed runtime: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all runtime metrics.
const meterName = "github.com/salesagent/runtime"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks LLM inference latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// S2SDuration tracks end-to-end speech-to-speech latency.
	S2SDuration metric.Float64Histogram

	// ToolExecutionDuration tracks action-tool execution latency (scroll,
	// highlight, click, navigate and the other Action Executor tools — see
	// internal/action.ToolHost).
	ToolExecutionDuration metric.Float64Histogram

	// ExtractionDuration tracks Page Model extraction pass latency, whether
	// or not the pass completed inside its extraction budget.
	ExtractionDuration metric.Float64Histogram

	// VoiceTurnDuration tracks one Voice Runtime turn's total latency, from
	// the final STT transcript to the last TTS audio frame.
	VoiceTurnDuration metric.Float64Histogram

	// --- Counters ---

	// EngagementTriggerFires counts engagement-trigger rule matches. Use
	// with attribute: attribute.String("rule", ...)
	EngagementTriggerFires metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// AgentResponses counts completed agent turns delivered to a session.
	// Use with attribute: attribute.String("session_id", ...)
	AgentResponses metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveVoiceSessions tracks the number of embed sessions currently in
	// voice mode.
	ActiveVoiceSessions metric.Int64UpDownCounter

	// ActiveSessions tracks the number of live embed sessions (text or voice).
	ActiveSessions metric.Int64UpDownCounter

	// ActiveEmbeds tracks the number of connected widget embeds across all
	// pages currently being served.
	ActiveEmbeds metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("salesagent.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("salesagent.llm.duration",
		metric.WithDescription("Latency of LLM inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("salesagent.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.S2SDuration, err = m.Float64Histogram("salesagent.s2s.duration",
		metric.WithDescription("End-to-end speech-to-speech latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("salesagent.tool_execution.duration",
		metric.WithDescription("Latency of action tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractionDuration, err = m.Float64Histogram("salesagent.extraction.duration",
		metric.WithDescription("Latency of a Page Model DOM extraction pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VoiceTurnDuration, err = m.Float64Histogram("salesagent.voice_turn.duration",
		metric.WithDescription("End-to-end latency of one voice runtime turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("salesagent.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("salesagent.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.AgentResponses, err = m.Int64Counter("salesagent.agent.responses",
		metric.WithDescription("Total agent turns delivered by session ID."),
	); err != nil {
		return nil, err
	}
	if met.EngagementTriggerFires, err = m.Int64Counter("salesagent.engagement.trigger_fires",
		metric.WithDescription("Total engagement-trigger rule matches by rule name."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("salesagent.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveVoiceSessions, err = m.Int64UpDownCounter("salesagent.active_voice_sessions",
		metric.WithDescription("Number of embed sessions currently in voice mode."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("salesagent.active_sessions",
		metric.WithDescription("Number of live embed sessions, text or voice."),
	); err != nil {
		return nil, err
	}
	if met.ActiveEmbeds, err = m.Int64UpDownCounter("salesagent.active_embeds",
		metric.WithDescription("Number of connected widget embeds across all pages."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("salesagent.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordAgentResponse is a convenience method that records an agent-response
// counter increment.
func (m *Metrics) RecordAgentResponse(ctx context.Context, sessionID string) {
	m.AgentResponses.Add(ctx, 1,
		metric.WithAttributes(attribute.String("session_id", sessionID)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordToolExecution records one Action Executor tool invocation's latency
// to [Metrics.ToolExecutionDuration] and its outcome to [Metrics.ToolCalls]
// in a single call, so call sites need not duplicate the attribute set.
func (m *Metrics) RecordToolExecution(ctx context.Context, tool string, dur time.Duration, status string) {
	m.ToolExecutionDuration.Record(ctx, dur.Seconds(),
		metric.WithAttributes(attribute.String("tool", tool)),
	)
	m.RecordToolCall(ctx, tool, status)
}

// RecordExtraction records one Page Model extraction pass's wall-clock
// duration. budgetExceeded marks whether the pass ran past its configured
// extraction budget and returned a partial result.
func (m *Metrics) RecordExtraction(ctx context.Context, dur time.Duration, budgetExceeded bool) {
	m.ExtractionDuration.Record(ctx, dur.Seconds(),
		metric.WithAttributes(attribute.Bool("budget_exceeded", budgetExceeded)),
	)
}

// RecordVoiceTurn records one Voice Runtime turn's end-to-end duration.
func (m *Metrics) RecordVoiceTurn(ctx context.Context, dur time.Duration) {
	m.VoiceTurnDuration.Record(ctx, dur.Seconds())
}

// RecordEngagementTrigger is a convenience method that records an
// engagement-trigger rule match counter increment.
func (m *Metrics) RecordEngagementTrigger(ctx context.Context, rule string) {
	m.EngagementTriggerFires.Add(ctx, 1,
		metric.WithAttributes(attribute.String("rule", rule)),
	)
}
