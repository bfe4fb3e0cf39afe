// Package factengine runs the claim-selection step over drained sentence
// batches and the verification worker that turns selected claims into
// FactResults: query optimization, evidence retrieval, and a final
// verification call, rate-limited and run strictly in dequeue order.
package factengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/llm/jsonutil"
)

const claimSelectionSystemPrompt = `You read a batch of sentences from a live spoken conversation transcript and identify which, if any, contain a specific, checkable factual claim (a statement about the world whose truth can be verified against external sources, not an opinion, prediction, or question).

Respond with JSON only, no commentary, no markdown fences:
{"selected_claims": [{"claim": "the claim as a standalone sentence", "reason": "why this is checkable"}, ...]}

Return {"selected_claims": []} if the batch contains no checkable claim. Prefer precision over recall: when in doubt, leave a claim out.`

const (
	defaultSelectionTemperature = 0.0
	defaultSelectionMaxTokens   = 400
	defaultSelectionCallTimeout = 10 * time.Second
	defaultMaxClaimsPerBatch    = 2
)

type claimsResponse struct {
	SelectedClaims []struct {
		Claim  string `json:"claim"`
		Reason string `json:"reason"`
	} `json:"selected_claims"`
}

// SelectorOption configures a [Selector].
type SelectorOption func(*Selector)

// WithSelectionTemperature overrides the LLM temperature used for claim
// selection. Default 0.0 (deterministic): claim selection is a
// classification task, not a creative one.
func WithSelectionTemperature(t float64) SelectorOption {
	return func(s *Selector) { s.temperature = t }
}

// WithSelectionMaxTokens overrides the LLM max-tokens budget.
func WithSelectionMaxTokens(n int) SelectorOption {
	return func(s *Selector) { s.maxTokens = n }
}

// WithSelectionCallTimeout overrides the per-call timeout applied to the
// LLM call.
func WithSelectionCallTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) { s.callTimeout = d }
}

// WithMaxClaimsPerBatch caps how many claims a single batch may enqueue,
// even when the model proposes more. Default 2.
func WithMaxClaimsPerBatch(n int) SelectorOption {
	return func(s *Selector) { s.maxClaimsPerBatch = n }
}

// Selector runs the claim-selection task: one LLM call per drained sentence
// batch, followed by enqueuing up to maxClaimsPerBatch candidate claims onto
// the fact queue.
type Selector struct {
	llmProvider llm.Provider
	state       *corepipeline.State
	observer    corepipeline.Observer

	temperature       float64
	maxTokens         int
	callTimeout       time.Duration
	maxClaimsPerBatch int
}

// NewSelector builds a Selector. observer may be nil, in which case
// notifications are discarded.
func NewSelector(llmProvider llm.Provider, state *corepipeline.State, observer corepipeline.Observer, opts ...SelectorOption) *Selector {
	if observer == nil {
		observer = corepipeline.NopObserver{}
	}
	s := &Selector{
		llmProvider:       llmProvider,
		state:             state,
		observer:          observer,
		temperature:       defaultSelectionTemperature,
		maxTokens:         defaultSelectionMaxTokens,
		callTimeout:       defaultSelectionCallTimeout,
		maxClaimsPerBatch: defaultMaxClaimsPerBatch,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RunClaimSelection is the body of one claim-selection task: one LLM call
// over the batch, then up to maxClaimsPerBatch enqueues. It never panics and
// never returns an error — all failures are classified and reported through
// the observer, matching the topic-update task's shape.
func (s *Selector) RunClaimSelection(ctx context.Context, sentences []string, batchIndex int) {
	window := strings.Join(sentences, " ")
	if strings.TrimSpace(window) == "" {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	resp, err := s.llmProvider.Complete(callCtx, llm.Request{
		SystemPrompt: claimSelectionSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: window}},
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	cancel()
	if err != nil {
		s.reportProviderError(err)
		return
	}

	var parsed claimsResponse
	if err := jsonutil.Decode(resp.Content, &parsed); err != nil {
		s.observer.OnError(corepipeline.ErrorNotification{
			Kind:    corepipeline.ErrorKindParse,
			Message: fmt.Sprintf("claim selection: %v", err),
		})
		return
	}

	raw := parsed.SelectedClaims
	if len(raw) > s.maxClaimsPerBatch {
		raw = raw[:s.maxClaimsPerBatch]
	}

	for _, c := range raw {
		text := strings.TrimSpace(c.Claim)
		if text == "" {
			continue
		}
		claim := corepipeline.Claim{Text: text, BatchIndex: batchIndex, Reason: c.Reason}
		size := s.state.EnqueueClaim(claim.Text)
		s.observer.OnClaimSelected(corepipeline.ClaimSelectedNotification{
			Claim:     claim.Text,
			QueueSize: size,
		})
	}
}

func (s *Selector) reportProviderError(err error) {
	kind := corepipeline.ErrorKindTransport
	if _, ok := err.(*llm.AuthError); ok {
		kind = corepipeline.ErrorKindAuth
	}
	s.observer.OnError(corepipeline.ErrorNotification{
		Kind:    kind,
		Message: fmt.Sprintf("claim selection: %v", err),
	})
}
