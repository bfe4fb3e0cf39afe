package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/livecortex/livecortex/internal/corepipeline"
)

// MetricsObserver adapts a [Metrics] instance into a [corepipeline.Observer],
// recording every pipeline notification as an OTel instrument update instead
// of doing anything with the notification payload itself. Construct one
// with NewMetricsObserver and pass it wherever a corepipeline.Observer is
// expected; wrap it with other observers (e.g. a logging one) using
// [corepipeline.MultiObserver] if both are needed.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns a MetricsObserver backed by m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

// OnTranscript implements corepipeline.Observer. Transcript volume is not a
// first-class metric; this exists only to satisfy the interface.
func (o *MetricsObserver) OnTranscript(corepipeline.TranscriptNotification) {}

// OnTopicUpdate implements corepipeline.Observer.
func (o *MetricsObserver) OnTopicUpdate(n corepipeline.TopicUpdateNotification) {
	ctx := context.Background()
	if n.IsNew {
		o.metrics.TopicsCreated.Add(ctx, 1)
	} else {
		o.metrics.TopicsReused.Add(ctx, 1)
	}
}

// OnClaimSelected implements corepipeline.Observer.
func (o *MetricsObserver) OnClaimSelected(n corepipeline.ClaimSelectedNotification) {
	o.metrics.ClaimsEnqueued.Add(context.Background(), 1)
	o.metrics.FactQueueDepth.Add(context.Background(), 1)
}

// OnFactResult implements corepipeline.Observer. The fact queue shrinks by
// one for every result the worker appends, so FactQueueDepth is decremented
// here to mirror ClaimSelected's increment.
func (o *MetricsObserver) OnFactResult(r corepipeline.FactResult) {
	ctx := context.Background()
	o.metrics.FactQueueDepth.Add(ctx, -1)
	o.metrics.FactVerdicts.Add(ctx, 1, metric.WithAttributes(
		Attr("verdict", string(r.Verdict)),
	))
}

// OnError implements corepipeline.Observer.
func (o *MetricsObserver) OnError(n corepipeline.ErrorNotification) {
	o.metrics.ProviderErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", string(n.Kind)),
	))
}

var _ corepipeline.Observer = (*MetricsObserver)(nil)
