package topicengine

import (
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/livecortex/livecortex/internal/corepipeline"
	"github.com/livecortex/livecortex/pkg/provider/search"
)

const (
	defaultImageKeywordLimit = 3
	defaultImageCallTimeout  = 10 * time.Second
	defaultImageMaxResults   = 5
)

// ImageEnricherOption configures an [ImageEnricher].
type ImageEnricherOption func(*ImageEnricher)

// WithImageSafeSearch overrides the content-filtering level. Default strict.
func WithImageSafeSearch(s search.SafeSearch) ImageEnricherOption {
	return func(e *ImageEnricher) { e.safeSearch = s }
}

// WithImageRegion overrides the locale hint passed to the search provider.
func WithImageRegion(region string) ImageEnricherOption {
	return func(e *ImageEnricher) { e.region = region }
}

// WithImageCallTimeout overrides the per-call timeout.
func WithImageCallTimeout(d time.Duration) ImageEnricherOption {
	return func(e *ImageEnricher) { e.callTimeout = d }
}

// ImageEnricher runs one image-search call per new topic and records the
// first usable result URL, or nil on failure or an empty result set. Image
// lookup never blocks topic creation and never fails the topic update that
// spawned it — callers run it as a fire-and-forget task.
type ImageEnricher struct {
	search   search.Provider
	state    *corepipeline.State
	observer corepipeline.Observer

	safeSearch  search.SafeSearch
	region      string
	callTimeout time.Duration
}

// NewImageEnricher builds an ImageEnricher. observer may be nil.
func NewImageEnricher(provider search.Provider, state *corepipeline.State, observer corepipeline.Observer, opts ...ImageEnricherOption) *ImageEnricher {
	if observer == nil {
		observer = corepipeline.NopObserver{}
	}
	e := &ImageEnricher{
		search:      provider,
		state:       state,
		observer:    observer,
		safeSearch:  search.SafeSearchStrict,
		callTimeout: defaultImageCallTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich resolves one image for topicID. On any failure it records a nil
// URL rather than leaving the topic unresolved, so record_topic_image is
// always eventually called exactly once per distinct outcome.
func (e *ImageEnricher) Enrich(ctx context.Context, topicID corepipeline.TopicID, topicText string, keywords []string) {
	query := buildImageQuery(topicText, keywords)

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	results, err := e.search.ImageSearch(callCtx, search.ImageQuery{
		Query:      query,
		MaxResults: defaultImageMaxResults,
		SafeSearch: e.safeSearch,
		Region:     e.region,
	})
	cancel()

	if err != nil {
		kind := corepipeline.ErrorKindTransport
		if _, ok := err.(*search.AuthError); ok {
			kind = corepipeline.ErrorKindAuth
		}
		e.observer.OnError(corepipeline.ErrorNotification{
			Kind:    kind,
			Message: fmt.Sprintf("image enrichment: %v", err),
		})
		e.state.RecordTopicImage(topicID, topicText, nil)
		return
	}

	url, ok := firstUsableImageURL(results)
	if !ok {
		e.state.RecordTopicImage(topicID, topicText, nil)
		return
	}
	e.state.RecordTopicImage(topicID, topicText, &url)
}

// firstUsableImageURL returns the first non-empty image URL among results,
// skipping entries a provider returned with no URL, per the "first usable
// image URL" contract.
func firstUsableImageURL(results []search.ImageResult) (string, bool) {
	for _, r := range results {
		if strings.TrimSpace(r.ImageURL) != "" {
			return r.ImageURL, true
		}
	}
	return "", false
}

func buildImageQuery(topicText string, keywords []string) string {
	parts := []string{topicText}
	limit := defaultImageKeywordLimit
	if len(keywords) < limit {
		limit = len(keywords)
	}
	parts = append(parts, keywords[:limit]...)
	return strings.Join(parts, " ")
}
