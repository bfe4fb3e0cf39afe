// Package searxng implements search.Provider against a SearXNG metasearch
// instance's JSON API. TextSearch falls back to scraping the HTML results
// page for instances that disable the JSON format; ImageSearch has no such
// fallback.
package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/livecortex/livecortex/pkg/provider/search"
)

var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:102.0) Gecko/20100101 Firefox/102.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36 Edg/115.0.0.0",
}

const (
	defaultTimeout           = 12 * time.Second
	defaultRequestsPerSecond = 0.5
	defaultBurst             = 2
)

// Option configures a [Provider].
type Option func(*Provider)

// WithHTTPClient overrides the HTTP client used for requests to the SearXNG
// instance. Default is a client with a 12s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.http = c }
}

// WithRateLimit overrides the request rate allowed against the SearXNG
// instance. Defaults to 0.5 req/s with a burst of 2, matched to a single
// shared public instance that bans aggressive clients.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(p *Provider) { p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst) }
}

// Provider implements search.Provider against a SearXNG instance. A single
// Provider is shared by the fact worker's TextSearch calls and the topic
// engine's concurrent ImageSearch calls, so every field touched per-request
// must be safe for concurrent use.
type Provider struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	uaIndex atomic.Uint64
}

// New constructs a Provider against the SearXNG instance at baseURL (e.g.
// "https://searx.example.org").
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("searxng: baseURL must not be empty")
	}
	p := &Provider{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// TextSearch implements search.Provider.
func (p *Provider) TextSearch(ctx context.Context, q search.TextQuery) ([]search.TextResult, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, search.ErrEmptyQuery
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := p.searchJSON(ctx, "general", q.Query, q.SafeSearch, q.Region)
	if err != nil {
		raw, err = p.searchHTML(ctx, "general", q.Query, q.SafeSearch, q.Region)
		if err != nil {
			return nil, classifyError(err)
		}
	}

	results := make([]search.TextResult, 0, len(raw))
	for i, r := range raw {
		if q.MaxResults > 0 && i >= q.MaxResults {
			break
		}
		results = append(results, search.TextResult{
			Title:   strings.TrimSpace(r.Title),
			Snippet: strings.TrimSpace(r.Content),
			URL:     r.URL,
		})
	}
	return results, nil
}

// ImageSearch implements search.Provider.
func (p *Provider) ImageSearch(ctx context.Context, q search.ImageQuery) ([]search.ImageResult, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, search.ErrEmptyQuery
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := p.searchJSON(ctx, "images", q.Query, q.SafeSearch, q.Region)
	if err != nil {
		return nil, classifyError(err)
	}

	results := make([]search.ImageResult, 0, len(raw))
	for i, r := range raw {
		if q.MaxResults > 0 && i >= q.MaxResults {
			break
		}
		imgURL := r.ImgSrc
		if imgURL == "" {
			imgURL = r.URL
		}
		results = append(results, search.ImageResult{
			ImageURL:  imgURL,
			SourceURL: r.URL,
			Title:     strings.TrimSpace(r.Title),
		})
	}
	return results, nil
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	ImgSrc  string `json:"img_src"`
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

func (p *Provider) searchJSON(ctx context.Context, category, query string, safe search.SafeSearch, region string) ([]searxngResult, error) {
	req, err := p.buildRequest(ctx, category, query, safe, region, "json")
	if err != nil {
		return nil, err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("searxng: http %d", resp.StatusCode)
	}

	var decoded searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Results, nil
}

// searchHTML falls back to scraping result links when the instance's JSON
// format is disabled. It can only recover a URL and title, never a snippet.
func (p *Provider) searchHTML(ctx context.Context, category, query string, safe search.SafeSearch, region string) ([]searxngResult, error) {
	req, err := p.buildRequest(ctx, category, query, safe, region, "")
	if err != nil {
		return nil, err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("searxng: http %d", resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []searxngResult
	seen := map[string]struct{}{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.Contains(attr.Val, "http") {
					continue
				}
				if _, dup := seen[attr.Val]; dup {
					continue
				}
				seen[attr.Val] = struct{}{}
				title := attr.Val
				if u, err := url.Parse(attr.Val); err == nil && u.Host != "" {
					title = u.Host + u.Path
				}
				results = append(results, searxngResult{Title: title, URL: attr.Val})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results, nil
}

func (p *Provider) buildRequest(ctx context.Context, category, query string, safe search.SafeSearch, region, format string) (*http.Request, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("categories", category)
	v.Set("safesearch", strconv.Itoa(safeSearchParam(safe)))
	if format != "" {
		v.Set("format", format)
	}
	if region != "" && region != "worldwide" {
		v.Set("language", region)
	}

	searchURL := p.baseURL + "/search?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	idx := p.uaIndex.Add(1) - 1
	req.Header.Set("User-Agent", userAgents[idx%uint64(len(userAgents))])
	return req, nil
}

func safeSearchParam(s search.SafeSearch) int {
	switch s {
	case search.SafeSearchOff:
		return 0
	case search.SafeSearchModerate:
		return 1
	case search.SafeSearchStrict:
		return 2
	default:
		return 2
	}
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &search.TransportError{Provider: "searxng", Err: err}
	}
	return &search.TransportError{Provider: "searxng", Err: err}
}

// Ensure Provider implements search.Provider at compile time.
var _ search.Provider = (*Provider)(nil)
