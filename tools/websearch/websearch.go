// Package websearch abstracts the evidence-gathering search backend.
package websearch

import (
	"context"
	"fmt"

	"github.com/mgcnb666/Predictive-AI-agent/tools/websearch/serper"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs one query and returns up to k results.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]Result, error)
}

// Provider names a search backend.
type Provider string

const SerperProvider Provider = "serper"

// ErrUnsupportedProvider is returned for unknown backends.
var ErrUnsupportedProvider = fmt.Errorf("unsupported search provider")

// NewSearcher builds the configured backend.
func NewSearcher(provider Provider, apiKey string) (Searcher, error) {
	switch provider {
	case SerperProvider:
		return &serperSearcher{client: serper.Search{APIKey: apiKey}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}

type serperSearcher struct {
	client serper.Search
}

func (s *serperSearcher) Search(ctx context.Context, q string, k int) ([]Result, error) {
	hits, err := s.client.Discover(ctx, q, k)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{Title: h.Title, URL: h.URL, Snippet: h.Snippet})
	}
	return out, nil
}

// FormatResults renders hits as plain text for prompt embedding.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "no results found"
	}
	var out string
	for i, r := range results {
		out += fmt.Sprintf("%d. %s\n%s\n", i+1, r.Title, r.Snippet)
	}
	return out
}
