package contextstore

import (
	"path/filepath"
	"testing"
)

func TestSmartCompleteWeatherFromHistory(t *testing.T) {
	s := New("t1")
	s.AddPrediction("weather",
		map[string]interface{}{"location": "Beijing", "date": "2025-10-16"},
		map[string]interface{}{"forecast": "sunny"})

	completed := s.SmartCompleteParams("weather", map[string]interface{}{"date": "2025-10-17"})
	if completed["location"] != "Beijing" {
		t.Fatalf("location = %v, want Beijing from history", completed["location"])
	}
}

func TestSmartCompleteWeatherPreferenceFallback(t *testing.T) {
	s := New("t2")
	s.SetPreference("default_location", "Shanghai")
	completed := s.SmartCompleteParams("weather", map[string]interface{}{})
	if completed["location"] != "Shanghai" {
		t.Fatalf("location = %v, want Shanghai from preference", completed["location"])
	}
}

func TestSmartCompleteWeatherLiteralDefault(t *testing.T) {
	s := New("t3")
	completed := s.SmartCompleteParams("weather", map[string]interface{}{})
	if completed["location"] != "Beijing" {
		t.Fatalf("location = %v, want literal Beijing default", completed["location"])
	}
}

func TestSmartCompleteSportsOpponentRecall(t *testing.T) {
	s := New("t4")
	s.AddPrediction("sports",
		map[string]interface{}{"team1": "Arsenal", "team2": "Spurs"}, nil)
	s.AddPrediction("sports",
		map[string]interface{}{"team1": "Arsenal", "team2": "Chelsea"}, nil)
	s.AddPrediction("sports",
		map[string]interface{}{"team1": "Liverpool", "team2": "Everton"}, nil)

	completed := s.SmartCompleteParams("sports", map[string]interface{}{"team1": "Arsenal"})
	// Most recent matching record wins.
	if completed["team2"] != "Chelsea" {
		t.Fatalf("team2 = %v, want Chelsea", completed["team2"])
	}

	noMatch := s.SmartCompleteParams("sports", map[string]interface{}{"team1": "Barcelona"})
	if _, ok := noMatch["team2"]; ok {
		t.Fatalf("team2 should stay absent without a matching record")
	}
}

func TestRecentParamsCrossDomainOverlay(t *testing.T) {
	s := New("t5")
	s.AddPrediction("sports", map[string]interface{}{"team1": "Arsenal", "location": "London"}, nil)
	s.AddPrediction("weather", map[string]interface{}{"location": "Paris"}, nil)

	ctx := s.ContextForDomain("sports")
	// Last write wins across domains.
	if ctx.RecentParams["location"] != "Paris" {
		t.Fatalf("location overlay = %v, want Paris", ctx.RecentParams["location"])
	}
	if ctx.RecentParams["team1"] != "Arsenal" {
		t.Fatalf("team1 overlay = %v, want Arsenal", ctx.RecentParams["team1"])
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New("round-trip")
	s.AddMessage("user", "predict the weather", nil)
	s.AddMessage("assistant", "sunny", nil)
	s.SetPreference("default_location", "Shanghai")
	s.SetContextVar("last_intent", "weather")
	s.AddPrediction("weather",
		map[string]interface{}{"location": "Shanghai"},
		map[string]interface{}{"condition": "sunny"})

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	restored := New("other")
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if restored.SessionID() != "round-trip" {
		t.Fatalf("session id = %q", restored.SessionID())
	}
	if got := restored.Preference("default_location", nil); got != "Shanghai" {
		t.Fatalf("preference = %v", got)
	}
	if got := restored.ContextVar("last_intent", nil); got != "weather" {
		t.Fatalf("context var = %v", got)
	}
	ctx := restored.ContextForDomain("weather")
	if len(ctx.History) != 1 || ctx.History[0].Params["location"] != "Shanghai" {
		t.Fatalf("domain history not restored: %+v", ctx.History)
	}
	if ctx.RecentParams["location"] != "Shanghai" {
		t.Fatalf("recent params not restored: %v", ctx.RecentParams)
	}
	if len(ctx.Conversation) != 2 {
		t.Fatalf("conversation not restored: %d messages", len(ctx.Conversation))
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := New("file-test")
	s.AddMessage("user", "hello", nil)
	if err := s.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded := New("")
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.SessionID() != "file-test" {
		t.Fatalf("session id = %q", loaded.SessionID())
	}
}

func TestRegistrySharedInstance(t *testing.T) {
	r := NewRegistry()
	a := r.Get("user-001")
	b := r.Get("user-001")
	if a != b {
		t.Fatalf("registry must return the same instance per session")
	}

	a.SetPreference("default_location", "Shanghai")
	if got := b.Preference("default_location", nil); got != "Shanghai" {
		t.Fatalf("mutation through one reference not visible via the other: %v", got)
	}

	r.Remove("user-001")
	c := r.Get("user-001")
	if c == a {
		t.Fatalf("removed session should be recreated fresh")
	}
	if len(r.Sessions()) != 1 {
		t.Fatalf("sessions = %v", r.Sessions())
	}
}

func TestConversationContextWindow(t *testing.T) {
	s := New("conv")
	for i := 0; i < 30; i++ {
		s.AddMessage("user", "question", nil)
		s.AddMessage("assistant", "answer", nil)
	}
	ctx := s.ConversationContext(3)
	lines := 0
	for _, c := range ctx {
		if c == '\n' {
			lines++
		}
	}
	if lines+1 != 6 {
		t.Fatalf("expected 6 lines for 3 turns, got %d", lines+1)
	}
}

func TestEvidenceIndexSearch(t *testing.T) {
	s := New("evidence")
	if err := s.AddEvidence("arsenal injuries", "Two midfielders are doubtful for the derby"); err != nil {
		t.Fatalf("AddEvidence failed: %v", err)
	}
	if err := s.AddEvidence("weather beijing", "Sunny skies expected across northern China"); err != nil {
		t.Fatalf("AddEvidence failed: %v", err)
	}

	hits, err := s.SearchEvidence("midfielders doubtful", 5)
	if err != nil {
		t.Fatalf("SearchEvidence failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit")
	}
	if hits[0].Query != "arsenal injuries" {
		t.Fatalf("top hit query = %q", hits[0].Query)
	}

	empty := New("no-evidence")
	hits, err = empty.SearchEvidence("anything", 5)
	if err != nil || len(hits) != 0 {
		t.Fatalf("empty session should return no hits, got %v / %v", hits, err)
	}
}
