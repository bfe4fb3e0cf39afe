// Package mock provides a test double for the search.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/livecortex/livecortex/pkg/provider/search"
)

// TextSearchCall records a single invocation of TextSearch.
type TextSearchCall struct {
	Ctx context.Context
	Q   search.TextQuery
}

// ImageSearchCall records a single invocation of ImageSearch.
type ImageSearchCall struct {
	Ctx context.Context
	Q   search.ImageQuery
}

// Provider is a mock implementation of search.Provider.
type Provider struct {
	mu sync.Mutex

	// TextResults is returned by TextSearch once TextResponses is
	// exhausted (or always, if TextResponses is never set).
	TextResults []search.TextResult
	TextErr     error

	// TextResponses, if non-empty, is consumed one entry per call to
	// TextSearch, in order.
	TextResponses [][]search.TextResult

	// ImageResults is returned by ImageSearch once ImageResponses is
	// exhausted (or always, if ImageResponses is never set).
	ImageResults []search.ImageResult
	ImageErr     error

	// ImageResponses, if non-empty, is consumed one entry per call to
	// ImageSearch, in order.
	ImageResponses [][]search.ImageResult

	TextSearchCalls  []TextSearchCall
	ImageSearchCalls []ImageSearchCall
}

// TextSearch implements search.Provider.
func (p *Provider) TextSearch(ctx context.Context, q search.TextQuery) ([]search.TextResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.TextSearchCalls = append(p.TextSearchCalls, TextSearchCall{Ctx: ctx, Q: q})

	if p.TextErr != nil {
		return nil, p.TextErr
	}
	if len(p.TextResponses) > 0 {
		r := p.TextResponses[0]
		p.TextResponses = p.TextResponses[1:]
		return r, nil
	}
	return p.TextResults, nil
}

// ImageSearch implements search.Provider.
func (p *Provider) ImageSearch(ctx context.Context, q search.ImageQuery) ([]search.ImageResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ImageSearchCalls = append(p.ImageSearchCalls, ImageSearchCall{Ctx: ctx, Q: q})

	if p.ImageErr != nil {
		return nil, p.ImageErr
	}
	if len(p.ImageResponses) > 0 {
		r := p.ImageResponses[0]
		p.ImageResponses = p.ImageResponses[1:]
		return r, nil
	}
	return p.ImageResults, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TextSearchCalls = nil
	p.ImageSearchCalls = nil
}

// Ensure Provider implements search.Provider at compile time.
var _ search.Provider = (*Provider)(nil)
