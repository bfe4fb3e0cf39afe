// Package observe provides application-wide observability primitives for
// livecortex: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all livecortex
// metrics.
const meterName = "github.com/livecortex/livecortex"

// Metrics holds all OpenTelemetry metric instruments the pipeline records.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per external call kind ---

	// LLMDuration tracks LLM completion latency across all call types
	// (topic extraction, claim selection, query optimization,
	// verification). Use with attribute.String("call_type", ...).
	LLMDuration metric.Float64Histogram

	// TextSearchDuration tracks evidence-retrieval search latency.
	TextSearchDuration metric.Float64Histogram

	// ImageSearchDuration tracks topic-image-enrichment search latency.
	ImageSearchDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// TopicsCreated counts new TopicNode creations.
	TopicsCreated metric.Int64Counter

	// TopicsReused counts topic-reuse decisions.
	TopicsReused metric.Int64Counter

	// ClaimsEnqueued counts claims enqueued by the claim-selection step.
	ClaimsEnqueued metric.Int64Counter

	// FactVerdicts counts completed verifications by verdict. Use with
	// attribute.String("verdict", ...).
	FactVerdicts metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// FactQueueDepth tracks the current depth of the fact-check queue.
	FactQueueDepth metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time for the
	// demo health/metrics surface. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// network calls to LLM and search providers, which run a few hundred
// milliseconds to several seconds.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.LLMDuration, err = m.Float64Histogram("livecortex.llm.duration",
		metric.WithDescription("Latency of LLM completion calls, by call_type."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TextSearchDuration, err = m.Float64Histogram("livecortex.search.text.duration",
		metric.WithDescription("Latency of text evidence-search calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ImageSearchDuration, err = m.Float64Histogram("livecortex.search.image.duration",
		metric.WithDescription("Latency of topic-image-enrichment search calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("livecortex.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.TopicsCreated, err = m.Int64Counter("livecortex.topics.created",
		metric.WithDescription("Total new topic nodes created."),
	); err != nil {
		return nil, err
	}
	if met.TopicsReused, err = m.Int64Counter("livecortex.topics.reused",
		metric.WithDescription("Total topic-reuse decisions."),
	); err != nil {
		return nil, err
	}
	if met.ClaimsEnqueued, err = m.Int64Counter("livecortex.claims.enqueued",
		metric.WithDescription("Total claims enqueued for verification."),
	); err != nil {
		return nil, err
	}
	if met.FactVerdicts, err = m.Int64Counter("livecortex.fact.verdicts",
		metric.WithDescription("Total completed verifications by verdict."),
	); err != nil {
		return nil, err
	}

	if met.ProviderErrors, err = m.Int64Counter("livecortex.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	if met.FactQueueDepth, err = m.Int64UpDownCounter("livecortex.fact.queue_depth",
		metric.WithDescription("Current depth of the fact-check queue."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("livecortex.http.request.duration",
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

// RecordFactVerdict is a convenience method that records a completed
// verification's verdict.
func (m *Metrics) RecordFactVerdict(ctx context.Context, verdict string) {
	m.FactVerdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", verdict)))
}
