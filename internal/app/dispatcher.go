package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/internal/factengine"
	"github.com/livecortex/livecortex/internal/topicengine"
)

// taskDispatcher fans out the fire-and-forget tasks Ingest and the topic
// engine trigger — topic update, claim selection, and the image-enrichment
// child a new topic spawns — onto one errgroup.Group so Shutdown can Wait()
// for all of them to drain within a grace period instead of abandoning
// in-flight provider calls outright.
//
// engine, images, and selector are assigned once during Pipeline
// construction, before any dispatch method can be called, so no further
// synchronization is needed to read them.
type taskDispatcher struct {
	group *errgroup.Group

	engine   *topicengine.Engine
	images   *topicengine.ImageEnricher
	selector *factengine.Selector
}

func newTaskDispatcher() *taskDispatcher {
	return &taskDispatcher{group: &errgroup.Group{}}
}

// DispatchTopicUpdate implements corepipeline.Dispatcher.
func (d *taskDispatcher) DispatchTopicUpdate(ctx context.Context, sentences []string) {
	d.group.Go(func() error {
		d.engine.RunTopicUpdate(ctx, sentences)
		return nil
	})
}

// DispatchClaimSelection implements corepipeline.Dispatcher.
func (d *taskDispatcher) DispatchClaimSelection(ctx context.Context, sentences []string, batchIndex int) {
	d.group.Go(func() error {
		d.selector.RunClaimSelection(ctx, sentences, batchIndex)
		return nil
	})
}

// DispatchImageEnrichment implements topicengine.ImageDispatcher.
func (d *taskDispatcher) DispatchImageEnrichment(ctx context.Context, topicID corepipeline.TopicID, topicText string, keywords []string) {
	d.group.Go(func() error {
		d.images.Enrich(ctx, topicID, topicText, keywords)
		return nil
	})
}

// Wait blocks until every dispatched task has returned, or grace elapses,
// whichever comes first.
func (d *taskDispatcher) Wait(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
	}
}

var (
	_ corepipeline.Dispatcher     = (*taskDispatcher)(nil)
	_ topicengine.ImageDispatcher = (*taskDispatcher)(nil)
)
