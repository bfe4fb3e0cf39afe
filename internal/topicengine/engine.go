// Package topicengine extracts the current topic from a window of recent
// transcript sentences, decides whether it is a new topic or a return to
// one already in the graph, and kicks off asynchronous image enrichment for
// newly created topics.
package topicengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/llm/jsonutil"
)

const topicExtractionSystemPrompt = `You analyze a short window of a live spoken conversation transcript and identify the single topic currently being discussed.

Respond with JSON only, no commentary, no markdown fences:
{"topic": "short topic phrase", "keywords": ["keyword1", "keyword2", ...]}

"topic" must be a concise noun phrase (2-6 words). "keywords" must be 2-5 short, distinct terms useful for an image search about this topic. If the window contains no identifiable topic, return {"topic": "", "keywords": []}.`

const (
	defaultSimilarityThreshold = 0.7
	defaultTemperature         = 0.2
	defaultMaxTokens           = 200
	defaultCallTimeout         = 10 * time.Second
)

// ImageDispatcher hands a newly created topic off to asynchronous image
// enrichment without blocking the topic-update task that discovered it.
type ImageDispatcher interface {
	DispatchImageEnrichment(ctx context.Context, topicID corepipeline.TopicID, topicText string, keywords []string)
}

type topicResponse struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
}

// Option configures an [Engine].
type Option func(*Engine)

// WithSimilarity overrides the reuse-detection similarity function. The
// default is [JaroWinklerSimilarity].
func WithSimilarity(fn SimilarityFunc) Option {
	return func(e *Engine) { e.similarity = fn }
}

// WithSimilarityThreshold overrides the reuse cutoff. Default 0.7.
func WithSimilarityThreshold(threshold float64) Option {
	return func(e *Engine) { e.similarityThreshold = threshold }
}

// WithTemperature overrides the LLM temperature used for topic extraction.
func WithTemperature(t float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithMaxTokens overrides the LLM max-tokens budget for topic extraction.
func WithMaxTokens(n int) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// WithCallTimeout overrides the per-call timeout applied to the LLM call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// Engine runs the topic-update task: one LLM call per trigger, followed by
// either a reuse decision or a new-node creation plus an image-enrichment
// dispatch.
type Engine struct {
	llmProvider llm.Provider
	state       *corepipeline.State
	observer    corepipeline.Observer
	images      ImageDispatcher

	similarity          SimilarityFunc
	similarityThreshold float64
	temperature         float64
	maxTokens           int
	callTimeout         time.Duration
}

// New builds an Engine. observer may be nil, in which case notifications are
// discarded.
func New(llmProvider llm.Provider, state *corepipeline.State, observer corepipeline.Observer, images ImageDispatcher, opts ...Option) *Engine {
	if observer == nil {
		observer = corepipeline.NopObserver{}
	}
	e := &Engine{
		llmProvider:         llmProvider,
		state:               state,
		observer:            observer,
		images:              images,
		similarity:          JaroWinklerSimilarity,
		similarityThreshold: defaultSimilarityThreshold,
		temperature:         defaultTemperature,
		maxTokens:           defaultMaxTokens,
		callTimeout:         defaultCallTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunTopicUpdate is the body of one topic-update task: it owns exactly one
// LLM call and, on new-topic creation, dispatches exactly one
// image-enrichment task. It never panics and never returns an error to the
// caller — all failures are classified and reported through the observer.
func (e *Engine) RunTopicUpdate(ctx context.Context, sentences []string) {
	window := strings.Join(sentences, " ")
	if strings.TrimSpace(window) == "" {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	resp, err := e.llmProvider.Complete(callCtx, llm.Request{
		SystemPrompt: topicExtractionSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: window}},
		Temperature:  e.temperature,
		MaxTokens:    e.maxTokens,
	})
	cancel()
	if err != nil {
		e.reportProviderError(err)
		return
	}

	var parsed topicResponse
	if err := jsonutil.Decode(resp.Content, &parsed); err != nil {
		e.observer.OnError(corepipeline.ErrorNotification{
			Kind:    corepipeline.ErrorKindParse,
			Message: fmt.Sprintf("topic extraction: %v", err),
		})
		return
	}

	topic := strings.TrimSpace(parsed.Topic)
	if topic == "" {
		return
	}

	now := time.Now().UnixNano()

	if existingID, found := e.findReuse(topic); found {
		if err := e.state.SwitchToTopic(existingID); err != nil {
			e.reportInvariant(err)
			return
		}
		node := e.lookupNode(existingID)
		e.observer.OnTopicUpdate(corepipeline.TopicUpdateNotification{
			TopicID:     existingID,
			Topic:       node.Topic,
			Keywords:    node.Keywords,
			IsNew:       false,
			ImageURL:    node.ImageURL,
			TotalTopics: e.state.Stats().TopicCount,
		})
		return
	}

	id := e.state.AddTopicNode(topic, parsed.Keywords, now)
	e.observer.OnTopicUpdate(corepipeline.TopicUpdateNotification{
		TopicID:     id,
		Topic:       topic,
		Keywords:    parsed.Keywords,
		IsNew:       true,
		TotalTopics: e.state.Stats().TopicCount,
	})

	if e.images != nil {
		e.images.DispatchImageEnrichment(ctx, id, topic, parsed.Keywords)
	}
}

// findReuse returns the id of the best-matching existing topic whose
// similarity to topic meets the threshold, breaking ties by lowest id
// (earliest creation). Nodes are read in ascending-id order so a strict ">"
// comparison naturally keeps the earliest of any tied scores.
func (e *Engine) findReuse(topic string) (corepipeline.TopicID, bool) {
	var (
		bestID    corepipeline.TopicID
		bestScore float64
		found     bool
	)
	for _, node := range e.state.Nodes() {
		score := e.similarity(topic, node.Topic)
		if score >= e.similarityThreshold && score > bestScore {
			bestScore = score
			bestID = node.ID
			found = true
		}
	}
	return bestID, found
}

func (e *Engine) lookupNode(id corepipeline.TopicID) corepipeline.TopicNode {
	for _, node := range e.state.Nodes() {
		if node.ID == id {
			return node
		}
	}
	return corepipeline.TopicNode{ID: id}
}

func (e *Engine) reportProviderError(err error) {
	kind := corepipeline.ErrorKindTransport
	switch err.(type) {
	case *llm.AuthError:
		kind = corepipeline.ErrorKindAuth
	}
	e.observer.OnError(corepipeline.ErrorNotification{
		Kind:    kind,
		Message: fmt.Sprintf("topic extraction: %v", err),
	})
}

func (e *Engine) reportInvariant(err error) {
	e.observer.OnError(corepipeline.ErrorNotification{
		Kind:    corepipeline.ErrorKindInvariant,
		Message: err.Error(),
	})
}
