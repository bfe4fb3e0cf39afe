package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/livecortex/livecortex/pkg/provider/search"
)

func newTestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTextSearch_ParsesJSONResults(t *testing.T) {
	srv := newTestServer(t, `{"results": [
		{"title": "A", "url": "https://a.test", "content": "snippet a"},
		{"title": "B", "url": "https://b.test", "content": "snippet b"}
	]}`, http.StatusOK)

	p, err := New(srv.URL, WithRateLimit(1000, 1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	results, err := p.TextSearch(context.Background(), search.TextQuery{Query: "test", MaxResults: 1})
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].URL != "https://a.test" || results[0].Snippet != "snippet a" {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestTextSearch_EmptyQueryReturnsErrEmptyQuery(t *testing.T) {
	p, err := New("https://example.org")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.TextSearch(context.Background(), search.TextQuery{Query: "  "}); err != search.ErrEmptyQuery {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestImageSearch_UsesImgSrcWhenPresent(t *testing.T) {
	srv := newTestServer(t, `{"results": [
		{"title": "Pic", "url": "https://source.test/page", "img_src": "https://cdn.test/pic.jpg"}
	]}`, http.StatusOK)

	p, err := New(srv.URL, WithRateLimit(1000, 1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	results, err := p.ImageSearch(context.Background(), search.ImageQuery{Query: "test", MaxResults: 5})
	if err != nil {
		t.Fatalf("ImageSearch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].ImageURL != "https://cdn.test/pic.jpg" || results[0].SourceURL != "https://source.test/page" {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestTextSearch_NonOKStatusIsTransportError(t *testing.T) {
	srv := newTestServer(t, `{}`, http.StatusInternalServerError)

	p, err := New(srv.URL, WithRateLimit(1000, 1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = p.TextSearch(context.Background(), search.TextQuery{Query: "test"})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if _, ok := err.(*search.TransportError); !ok {
		t.Errorf("err = %T, want *search.TransportError", err)
	}
}
