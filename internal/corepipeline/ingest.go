package corepipeline

import (
	"context"
	"sync"
)

// Dispatcher hands a snapshot of recent sentences off to the topic-update or
// claim-selection tasks. Implementations must return without blocking on the
// work they start — the usual shape is to launch a goroutine tracked by the
// caller's WaitGroup and return immediately. Ingest never calls an external
// service itself; it only ever calls through Dispatcher.
type Dispatcher interface {
	// DispatchTopicUpdate runs the topic engine over sentences. ctx
	// governs the dispatched task's external calls, not the dispatch
	// itself.
	DispatchTopicUpdate(ctx context.Context, sentences []string)

	// DispatchClaimSelection runs claim selection over sentences, drawn
	// from batch batchIndex (0-based, incremented once per drain).
	DispatchClaimSelection(ctx context.Context, sentences []string, batchIndex int)
}

// Ingest is the single entry point for incoming transcript events. It
// performs only cheap, local state mutations and never awaits an external
// service; all LLM/search work happens in tasks it dispatches.
//
// Per the design note on partial transcripts, partial events never
// advance any counter — only a transcript notification is emitted for them.
type Ingest struct {
	state      *State
	observer   Observer
	dispatcher Dispatcher

	topicUpdateThreshold int

	mu                        sync.Mutex
	sentencesSinceTopicUpdate int
	topicWindow               []string
	nextBatchIndex            int
}

// NewIngest builds an Ingest over state, notifying obs and dispatching
// through d. topicUpdateThreshold is the number of final sentences between
// topic-update dispatches (spec default 5).
func NewIngest(state *State, obs Observer, d Dispatcher, topicUpdateThreshold int) *Ingest {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Ingest{
		state:                state,
		observer:             obs,
		dispatcher:           d,
		topicUpdateThreshold: topicUpdateThreshold,
	}
}

// HandleEvent processes one incoming transcript event. Partial events only
// emit a transcript notification. Final events append to the transcript
// buffer and the sentence batch, advance the topic-update counter, and
// dispatch topic-update and/or claim-selection tasks when their respective
// thresholds are crossed. HandleEvent itself never blocks on those tasks.
func (i *Ingest) HandleEvent(ctx context.Context, seg TranscriptSegment) {
	i.observer.OnTranscript(TranscriptNotification{
		Text:       seg.Text,
		IsFinal:    seg.IsFinal,
		Confidence: seg.Confidence,
	})

	if !seg.IsFinal {
		return
	}

	i.state.AppendSegment(seg)
	_, overflow := i.state.AppendSentenceToBatch(seg.Text)

	i.mu.Lock()
	i.topicWindow = append(i.topicWindow, seg.Text)
	i.sentencesSinceTopicUpdate++
	var topicSnapshot []string
	crossedTopic := i.sentencesSinceTopicUpdate >= i.topicUpdateThreshold
	if crossedTopic {
		topicSnapshot = i.topicWindow
		i.topicWindow = nil
		i.sentencesSinceTopicUpdate = 0
	}
	i.mu.Unlock()

	if crossedTopic {
		i.dispatcher.DispatchTopicUpdate(ctx, topicSnapshot)
	}

	if overflow {
		batch := i.state.DrainBatch()

		i.mu.Lock()
		idx := i.nextBatchIndex
		i.nextBatchIndex++
		i.mu.Unlock()

		i.dispatcher.DispatchClaimSelection(ctx, batch, idx)
	}
}
