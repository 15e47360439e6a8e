package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("missing api key header")
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if payload["q"] != "arsenal injuries" {
			t.Errorf("q = %v", payload["q"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic": []map[string]string{
				{"title": "Injury report", "link": "https://example.com/a", "snippet": "Two out"},
				{"title": "More news", "link": "https://example.com/b", "snippet": "One back"},
				{"title": "Extra", "link": "https://example.com/c", "snippet": "padding"},
			},
		})
	}))
	defer srv.Close()

	s := Search{APIKey: "key", BaseURL: srv.URL}
	hits, err := s.Discover(context.Background(), "arsenal injuries", 2)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (k cap)", len(hits))
	}
	if hits[0].Title != "Injury report" || hits[0].Snippet != "Two out" {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}
}

func TestDiscoverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	s := Search{BaseURL: srv.URL}
	if _, err := s.Discover(context.Background(), "q", 3); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}
