package domain

import (
	"strings"
	"testing"
	"time"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time {
		return time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { nowFunc = prev })
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		d, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if d.Name() != name {
			t.Fatalf("Lookup(%q).Name() = %q", name, d.Name())
		}
	}
	if _, err := Lookup("astrology"); err == nil {
		t.Fatalf("expected error for unknown domain")
	}
}

func TestSportsQueries(t *testing.T) {
	queries := Sports{}.BuildQueries(Params{
		"team1": "Arsenal", "team2": "Chelsea", "league": "Premier League",
	})
	if len(queries) != 7 {
		t.Fatalf("got %d queries, want 7", len(queries))
	}
	if queries[0] != "Arsenal vs Chelsea head to head statistics" {
		t.Fatalf("unexpected first query: %q", queries[0])
	}
	if queries[5] != "Arsenal vs Chelsea betting odds" {
		t.Fatalf("unexpected odds query: %q", queries[5])
	}
}

func TestSportsNormalizeDefaults(t *testing.T) {
	res := Sports{}.Normalize(map[string]interface{}{})
	outcomes := res["outcomes"].(map[string]float64)
	if outcomes["home_win"] != 0 || outcomes["draw"] != 0 || outcomes["away_win"] != 0 {
		t.Fatalf("expected zero outcomes on empty raw, got %v", outcomes)
	}
	if res["confidence"].(float64) != 0 {
		t.Fatalf("expected zero confidence")
	}
}

func TestWeatherQueriesWithEvent(t *testing.T) {
	fixedNow(t)
	queries := Weather{}.BuildQueries(Params{
		"location": "Beijing", "date": "2025-10-18", "event": "marathon",
	})
	if len(queries) != 7 {
		t.Fatalf("got %d queries, want 7", len(queries))
	}
	last := queries[len(queries)-1]
	if last != "Beijing weather forecast for marathon latest" {
		t.Fatalf("unexpected event query: %q", last)
	}
	if !strings.Contains(queries[1], "next 7 days") {
		t.Fatalf("expected default days_ahead 7 in %q", queries[1])
	}
}

func TestElectionQueriesPerCandidate(t *testing.T) {
	queries := Election{}.BuildQueries(Params{
		"election":   "presidential election",
		"region":     "France",
		"candidates": []interface{}{"A", "B"},
	})
	// 7 base queries plus 3 per candidate.
	if len(queries) != 13 {
		t.Fatalf("got %d queries, want 13", len(queries))
	}
	if queries[7] != "A approval rating France" {
		t.Fatalf("unexpected candidate query: %q", queries[7])
	}
}

func TestGeneralChampionshipSwitch(t *testing.T) {
	fixedNow(t)
	champ := General{}.BuildQueries(Params{"query": "Who wins the NBA Finals?"})
	if !strings.Contains(champ[0], "odds") {
		t.Fatalf("championship query should lead with odds: %q", champ[0])
	}
	plain := General{}.BuildQueries(Params{"query": "Will it rain on the parade?"})
	if !strings.Contains(plain[0], "latest update") {
		t.Fatalf("single-claim query shape unexpected: %q", plain[0])
	}

	champPrompt := General{}.BuildPrompt("(evidence)", Params{"query": "premier league title race"})
	if !strings.Contains(champPrompt, "top_contenders") {
		t.Fatalf("championship prompt must request top_contenders")
	}
	plainPrompt := General{}.BuildPrompt("(evidence)", Params{"query": "bitcoin price next month"})
	if strings.Contains(plainPrompt, "top_contenders") {
		t.Fatalf("single-claim prompt must not request top_contenders")
	}
}

func TestGeneralNormalizeBranches(t *testing.T) {
	contender := General{}.Normalize(map[string]interface{}{
		"prediction": "Team X",
		"top_contenders": map[string]interface{}{
			"Team X": 0.4, "Team Y": 0.35, "Other": 0.25,
		},
		"confidence": 0.7,
	})
	tc := contender["top_contenders"].(map[string]float64)
	if tc["Team X"] != 0.4 {
		t.Fatalf("contender map not carried through: %v", tc)
	}

	claim := General{}.Normalize(map[string]interface{}{
		"prediction": "yes", "probability": 0.62, "confidence": 0.55,
	})
	if claim["probability"].(float64) != 0.62 {
		t.Fatalf("single-claim probability lost: %v", claim["probability"])
	}
	if len(claim["top_contenders"].(map[string]float64)) != 0 {
		t.Fatalf("single-claim result should have empty contenders")
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	garbage := map[string]interface{}{
		"confidence": "not a number",
		"analysis":   7,
		"scenarios":  "free text",
		"outcomes":   []interface{}{1, 2, 3},
	}
	for _, name := range Names() {
		d, _ := Lookup(name)
		res := d.Normalize(garbage)
		if res["domain"] != name {
			t.Fatalf("normalize(%s) lost domain tag", name)
		}
	}
}
