// Package app wires the configuration, providers, and pipeline engines
// (state core, transcript ingest, topic engine, fact engine) into one
// runnable Pipeline, the way the teacher's internal/app package wires its
// NPC agents and transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/livecortex/livecortex/internal/apphealth"
	"github.com/livecortex/livecortex/internal/config"
	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/internal/factengine"
	"github.com/livecortex/livecortex/internal/observe"
	"github.com/livecortex/livecortex/internal/topicengine"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/search"
	"github.com/livecortex/livecortex/pkg/provider/transcript"
)

const (
	defaultGracePeriod      = 10 * time.Second
	defaultReadinessMaxStale = 30 * time.Second
)

// Providers bundles the external capability adapters a Pipeline depends on.
// Transcript is optional: a Pipeline built without one only reacts to
// HandleEvent calls the caller drives directly (the shape used by tests and
// by any future push-style transport).
type Providers struct {
	LLM        llm.Provider
	Search     search.Provider
	Transcript transcript.Open
}

// Option configures a Pipeline during construction.
type Option func(*Pipeline)

// WithObserver overrides the downstream notification sink. The default is
// [corepipeline.NopObserver].
func WithObserver(o corepipeline.Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithGracePeriod overrides how long Shutdown waits for in-flight
// fire-and-forget tasks to finish before giving up on them. Default 10s.
func WithGracePeriod(d time.Duration) Option {
	return func(p *Pipeline) { p.gracePeriod = d }
}

// WithReadinessMaxStaleness overrides how long the fact worker's dequeue
// loop may go without an iteration before /readyz reports unavailable.
// Default 30s.
func WithReadinessMaxStaleness(d time.Duration) Option {
	return func(p *Pipeline) { p.readinessMaxStale = d }
}

// Pipeline is the live conversation-understanding pipeline: one State Core,
// one transcript-ingest entry point, one topic engine, one claim selector,
// and one fact-check worker, wired together per cfg.
type Pipeline struct {
	cfg      *config.Config
	observer corepipeline.Observer

	state      *corepipeline.State
	ingest     *corepipeline.Ingest
	dispatcher *taskDispatcher
	engine     *topicengine.Engine
	images     *topicengine.ImageEnricher
	selector   *factengine.Selector
	worker     *factengine.Worker
	health     *apphealth.Handler

	transcriptOpen    transcript.Open
	gracePeriod       time.Duration
	readinessMaxStale time.Duration

	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New builds a Pipeline from cfg and providers. It performs no I/O: nothing
// runs until Run is called.
func New(cfg *config.Config, providers Providers, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg: cfg,
		observer: corepipeline.MultiObserver{
			observe.NewMetricsObserver(observe.DefaultMetrics()),
			observe.NewLogObserver(slog.Default()),
		},
		gracePeriod:       defaultGracePeriod,
		readinessMaxStale: defaultReadinessMaxStale,
		transcriptOpen:    providers.Transcript,
	}
	for _, o := range opts {
		o(p)
	}

	p.state = corepipeline.NewState(
		corepipeline.WithTranscriptBufferSize(cfg.Pipeline.TranscriptBufferSize),
		corepipeline.WithBatchSize(cfg.Pipeline.ClaimSelectionBatchSize),
	)

	p.dispatcher = newTaskDispatcher()

	p.engine = topicengine.New(providers.LLM, p.state, p.observer, p.dispatcher,
		topicengine.WithSimilarityThreshold(cfg.Pipeline.SimilarityThreshold),
		topicengine.WithTemperature(cfg.Pipeline.TopicExtraction.Temperature),
		topicengine.WithMaxTokens(cfg.Pipeline.TopicExtraction.MaxTokens),
	)

	p.images = topicengine.NewImageEnricher(providers.Search, p.state, p.observer,
		topicengine.WithImageSafeSearch(toSearchSafeSearch(cfg.Search.SafeSearch)),
		topicengine.WithImageRegion(cfg.Search.Region),
	)

	p.selector = factengine.NewSelector(providers.LLM, p.state, p.observer,
		factengine.WithMaxClaimsPerBatch(cfg.Pipeline.MaxClaimsPerBatch),
		factengine.WithSelectionTemperature(cfg.Pipeline.ClaimSelection.Temperature),
		factengine.WithSelectionMaxTokens(cfg.Pipeline.ClaimSelection.MaxTokens),
	)

	p.worker = factengine.NewWorker(providers.LLM, providers.Search, p.state, p.observer,
		time.Duration(cfg.Pipeline.FactCheckRateLimitSeconds)*time.Second,
		factengine.WithSearchMaxResults(cfg.Search.MaxResults),
		factengine.WithSearchSafeSearch(toSearchSafeSearch(cfg.Search.SafeSearch)),
		factengine.WithSearchRegion(cfg.Search.Region),
		factengine.WithURLBlocklist(cfg.Search.URLBlocklist),
		factengine.WithQueryTemperature(cfg.Pipeline.QueryOptimization.Temperature),
		factengine.WithVerifyTemperature(cfg.Pipeline.Verification.Temperature),
	)

	// The dispatcher's fields are assigned after the components it fans
	// tasks out to are built, closing the otherwise-circular
	// dispatcher<->engine dependency: nothing calls a Dispatch* method
	// until Run starts accepting events, well after construction finishes.
	p.dispatcher.engine = p.engine
	p.dispatcher.images = p.images
	p.dispatcher.selector = p.selector

	p.ingest = corepipeline.NewIngest(p.state, p.observer, p.dispatcher, cfg.Pipeline.TopicUpdateThreshold)

	p.health = apphealth.New(apphealth.WorkerChecker("fact_worker", p.worker, p.readinessMaxStale))

	return p
}

// State returns the Pipeline's State Core, for callers that need read-only
// introspection (export/replay, stats, snapshots).
func (p *Pipeline) State() *corepipeline.State { return p.state }

// Health returns the HTTP health/readiness handler for this Pipeline.
func (p *Pipeline) Health() *apphealth.Handler { return p.health }

// HandleEvent feeds one transcript event into the pipeline directly,
// bypassing any configured transcript source. Tests and push-style
// transports use this entry point.
func (p *Pipeline) HandleEvent(ctx context.Context, evt transcript.Event) {
	p.ingest.HandleEvent(ctx, corepipeline.TranscriptSegment{
		Text:       evt.Text,
		IsFinal:    evt.IsFinal,
		Confidence: evt.Confidence,
		Timestamp:  evt.Timestamp,
	})
}

// Run starts the fact-check worker and, if a transcript source was
// configured, the transcript-ingest loop. It blocks until ctx is cancelled
// or a fatal error occurs, then returns the joined errors from every task
// that did not exit cleanly.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Go(func() {
		if err := p.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("fact worker: %w", err)
		}
	})

	if p.transcriptOpen != nil {
		wg.Go(func() {
			if err := p.runTranscriptLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("transcript loop: %w", err)
			}
		})
	}

	slog.Info("pipeline started")
	<-ctx.Done()
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// runTranscriptLoop opens the configured transcript source and feeds every
// event it produces into Ingest until the source closes or ctx is
// cancelled.
func (p *Pipeline) runTranscriptLoop(ctx context.Context) error {
	source, err := p.transcriptOpen(ctx)
	if err != nil {
		return fmt.Errorf("open transcript source: %w", err)
	}
	defer source.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-source.Events():
			if !ok {
				return source.Err()
			}
			p.HandleEvent(ctx, evt)
		}
	}
}

// Shutdown stops the Pipeline: it cancels the context passed to Run and
// waits up to gracePeriod for in-flight dispatched tasks (topic update, claim
// selection, image enrichment) to finish. It does not wait for Run itself
// to return; Run's result reaches only Run's caller. If ctx is already done
// when the grace wait ends, Shutdown may return ctx.Err(). Calling Shutdown
// more than once is safe; only the first call has effect.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.dispatcher.Wait(p.gracePeriod)

		done := make(chan struct{})
		go func() {
			// done is closed at once; nothing here waits for Run.
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		slog.Info("pipeline stopped")
	})
	return err
}

func toSearchSafeSearch(level config.SafeSearchLevel) search.SafeSearch {
	switch level {
	case config.SafeSearchOff:
		return search.SafeSearchOff
	case config.SafeSearchModerate:
		return search.SafeSearchModerate
	default:
		return search.SafeSearchStrict
	}
}
