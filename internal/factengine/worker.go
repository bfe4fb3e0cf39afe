package factengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/llm/jsonutil"
	"github.com/livecortex/livecortex/pkg/provider/search"
)

const queryOptimizationSystemPrompt = `You turn a factual claim into a short, effective web search query for finding evidence that confirms or refutes it.

Respond with JSON only, no commentary, no markdown fences:
{"query": "the search query"}`

const verificationSystemPrompt = `You are a fact-checker. Given a claim and a list of web search results as evidence, decide whether the evidence supports, refutes, or is insufficient to judge the claim.

Respond with JSON only, no commentary, no markdown fences:
{"verdict": "SUPPORTED" | "REFUTED" | "UNCERTAIN", "confidence": 0.0-1.0, "explanation": "one or two sentences", "key_facts": ["fact1", "fact2", ...]}

Use "UNCERTAIN" whenever the evidence is insufficient, contradictory, or absent. Never invent facts not present in the evidence.`

const (
	defaultQueryTemperature  = 0.0
	defaultQueryMaxTokens    = 100
	defaultVerifyTemperature = 0.0
	defaultVerifyMaxTokens   = 400
	defaultWorkerCallTimeout = 15 * time.Second
	defaultSearchMaxResults  = 5
)

type queryResponse struct {
	Query string `json:"query"`
}

type verificationResponse struct {
	Verdict     string   `json:"verdict"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	KeyFacts    []string `json:"key_facts"`
}

// WorkerOption configures a [Worker].
type WorkerOption func(*Worker)

// WithQueryTemperature overrides the LLM temperature used for query
// optimization.
func WithQueryTemperature(t float64) WorkerOption {
	return func(w *Worker) { w.queryTemperature = t }
}

// WithVerifyTemperature overrides the LLM temperature used for verification.
func WithVerifyTemperature(t float64) WorkerOption {
	return func(w *Worker) { w.verifyTemperature = t }
}

// WithWorkerCallTimeout overrides the per-call timeout applied to every LLM
// and search call the worker issues.
func WithWorkerCallTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) { w.callTimeout = d }
}

// WithSearchMaxResults overrides the number of evidence results requested
// per verification.
func WithSearchMaxResults(n int) WorkerOption {
	return func(w *Worker) { w.searchMaxResults = n }
}

// WithSearchSafeSearch overrides the content-filtering level applied to
// evidence search.
func WithSearchSafeSearch(s search.SafeSearch) WorkerOption {
	return func(w *Worker) { w.safeSearch = s }
}

// WithSearchRegion overrides the locale hint passed to the search provider.
func WithSearchRegion(region string) WorkerOption {
	return func(w *Worker) { w.region = region }
}

// WithURLBlocklist sets the hostname patterns whose evidence is dropped
// before verification sees it.
func WithURLBlocklist(patterns []string) WorkerOption {
	return func(w *Worker) { w.urlBlocklist = patterns }
}

// Worker is the single fact-check verification worker described in the
// component design: it dequeues one claim at a time and runs it through
// query optimization, evidence retrieval, and verification, strictly one
// claim at a time and strictly in dequeue order. A single worker enforces
// that ordering for free — there is never a second goroutine racing to
// append a FactResult out of turn.
type Worker struct {
	llmProvider    llm.Provider
	searchProvider search.Provider
	state          *corepipeline.State
	observer       corepipeline.Observer
	limiter        *rate.Limiter

	queryTemperature  float64
	verifyTemperature float64
	callTimeout       time.Duration
	searchMaxResults  int
	safeSearch        search.SafeSearch
	region            string
	urlBlocklist      []string

	lastIterationNanos atomic.Int64
	dequeueParked      atomic.Bool
}

// NewWorker builds a Worker rate-limited to at most one verification start
// every rateLimitInterval (the spec's fact_check_rate_limit_seconds
// tunable). An interval of zero disables rate limiting. observer may be
// nil, in which case notifications are discarded.
func NewWorker(llmProvider llm.Provider, searchProvider search.Provider, state *corepipeline.State, observer corepipeline.Observer, rateLimitInterval time.Duration, opts ...WorkerOption) *Worker {
	if observer == nil {
		observer = corepipeline.NopObserver{}
	}
	limit := rate.Inf
	if rateLimitInterval > 0 {
		limit = rate.Every(rateLimitInterval)
	}
	w := &Worker{
		llmProvider:       llmProvider,
		searchProvider:    searchProvider,
		state:             state,
		observer:          observer,
		limiter:           rate.NewLimiter(limit, 1),
		queryTemperature:  defaultQueryTemperature,
		verifyTemperature: defaultVerifyTemperature,
		callTimeout:       defaultWorkerCallTimeout,
		searchMaxResults:  defaultSearchMaxResults,
		safeSearch:        search.SafeSearchStrict,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run dequeues and verifies claims until ctx is cancelled, at which point it
// returns ctx.Err(). Intended to run as a single long-lived goroutine — the
// caller's WaitGroup tracks it the same way it tracks the transcript-ingest
// loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		w.dequeueParked.Store(true)
		claim, err := w.state.DequeueClaim(ctx)
		w.dequeueParked.Store(false)
		w.lastIterationNanos.Store(time.Now().UnixNano())
		if err != nil {
			return err
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}

		w.verify(ctx, claim)
	}
}

// LastIteration returns the time the worker last returned from its blocking
// dequeue call, used by the readiness checker to detect a genuinely stopped
// worker. While the worker is parked waiting on an empty queue, [Worker.Parked]
// reports true instead of letting this timestamp go stale. It returns the
// zero time until the worker has returned from its first dequeue.
func (w *Worker) LastIteration() time.Time {
	n := w.lastIterationNanos.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Parked reports whether the worker is currently blocked in its dequeue
// call waiting for the next claim — the common, healthy idle state, not a
// stall. An empty fact queue is the normal condition between claim batches.
func (w *Worker) Parked() bool {
	return w.dequeueParked.Load()
}

// verify runs the Optimizing -> Searching -> Verifying sequence for one
// claim and appends its FactResult, or reports a classified error and
// appends nothing. Per spec §9, a TransportError from either provider is
// never retried; the claim is simply dropped from this pipeline's output.
func (w *Worker) verify(ctx context.Context, claim string) {
	query, ok := w.optimizeQuery(ctx, claim)
	if !ok {
		return
	}
	if query == "" {
		query = claim
	}

	results, err := w.retrieveEvidence(ctx, query)
	if err != nil {
		w.reportProviderError("search", err)
		return
	}

	resp, err := w.runVerification(ctx, claim, results)
	if err != nil {
		var parseErr *jsonutil.ParseError
		if errors.As(err, &parseErr) {
			w.observer.OnError(corepipeline.ErrorNotification{
				Kind:    corepipeline.ErrorKindParse,
				Message: fmt.Sprintf("verification: %v", err),
			})
			return
		}
		w.reportProviderError("llm", err)
		return
	}

	verdict := corepipeline.Verdict(strings.ToUpper(strings.TrimSpace(resp.Verdict)))
	if !verdict.Valid() {
		w.observer.OnError(corepipeline.ErrorNotification{
			Kind:    corepipeline.ErrorKindPolicy,
			Message: fmt.Sprintf("verification: %v", &corepipeline.PolicyError{Stage: "verification", Detail: fmt.Sprintf("unrecognized verdict %q", resp.Verdict)}),
		})
		return
	}

	sources := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.URL)
	}

	result := corepipeline.FactResult{
		Claim:           claim,
		Verdict:         verdict,
		Confidence:      resp.Confidence,
		Explanation:     resp.Explanation,
		KeyFacts:        resp.KeyFacts,
		EvidenceSources: sources,
		Timestamp:       time.Now().UnixNano(),
	}
	w.state.AppendFactResult(result)
	w.observer.OnFactResult(result)
}

// optimizeQuery turns claim into a search query via one LLM call. A
// provider failure or an unparsable response is reported through the
// observer and returns ok=false, which ends verification of the claim. A
// parsed but empty query returns ("", true); the caller then searches with
// the raw claim text.
func (w *Worker) optimizeQuery(ctx context.Context, claim string) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	resp, err := w.llmProvider.Complete(callCtx, llm.Request{
		SystemPrompt: queryOptimizationSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: claim}},
		Temperature:  w.queryTemperature,
		MaxTokens:    defaultQueryMaxTokens,
	})
	cancel()
	if err != nil {
		w.reportProviderError("llm", err)
		return "", false
	}

	var parsed queryResponse
	if err := jsonutil.Decode(resp.Content, &parsed); err != nil {
		w.observer.OnError(corepipeline.ErrorNotification{
			Kind:    corepipeline.ErrorKindParse,
			Message: fmt.Sprintf("query optimization: %v", err),
		})
		return "", false
	}
	return strings.TrimSpace(parsed.Query), true
}

func (w *Worker) retrieveEvidence(ctx context.Context, query string) ([]search.TextResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	results, err := w.searchProvider.TextSearch(callCtx, search.TextQuery{
		Query:      query,
		MaxResults: w.searchMaxResults,
		SafeSearch: w.safeSearch,
		Region:     w.region,
	})
	if err != nil {
		return nil, err
	}
	return filterBlocklist(results, w.urlBlocklist), nil
}

func (w *Worker) runVerification(ctx context.Context, claim string, evidence []search.TextResult) (*verificationResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	resp, err := w.llmProvider.Complete(callCtx, llm.Request{
		SystemPrompt: verificationSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: buildVerificationPrompt(claim, evidence)}},
		Temperature:  w.verifyTemperature,
		MaxTokens:    defaultVerifyMaxTokens,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	var parsed verificationResponse
	if err := jsonutil.Decode(resp.Content, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func buildVerificationPrompt(claim string, evidence []search.TextResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\nEvidence:\n", claim)
	if len(evidence) == 0 {
		b.WriteString("(no search results returned)\n")
	}
	for i, r := range evidence {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Snippet, r.URL)
	}
	return b.String()
}

func (w *Worker) reportProviderError(kind string, err error) {
	errKind := corepipeline.ErrorKindTransport
	switch err.(type) {
	case *llm.AuthError, *search.AuthError:
		errKind = corepipeline.ErrorKindAuth
	}
	w.observer.OnError(corepipeline.ErrorNotification{
		Kind:    errKind,
		Message: fmt.Sprintf("fact verification (%s): %v", kind, err),
	})
}
