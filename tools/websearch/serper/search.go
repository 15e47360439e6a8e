// Package serper implements search via the serper.dev Google API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const endpoint = "https://google.serper.dev/search"

// Search is a serper.dev client.
type Search struct {
	APIKey string
	// BaseURL overrides the endpoint, used by tests.
	BaseURL string
	// Client overrides the HTTP client; nil uses http.DefaultClient.
	Client *http.Client
}

// Hit is one organic search result.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"link"`
	Snippet string `json:"snippet"`
}

// Discover runs one query and returns up to k organic hits.
func (s Search) Discover(ctx context.Context, q string, k int) ([]Hit, error) {
	payload, err := json.Marshal(map[string]interface{}{"q": q, "num": k})
	if err != nil {
		return nil, fmt.Errorf("marshaling search payload: %w", err)
	}

	url := s.BaseURL
	if url == "" {
		url = endpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search api status %d", resp.StatusCode)
	}

	var raw struct {
		Organic []Hit `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := raw.Organic
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
