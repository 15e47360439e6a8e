package features

import (
	"context"
	"fmt"
	"math"
	"testing"
)

func TestDeriveDefaults(t *testing.T) {
	derived := Derive(map[string]interface{}{})
	// Both win rates default to 0.5 so the differential is zero.
	if derived[FormDifferential] != 0 {
		t.Fatalf("form_differential = %v, want 0", derived[FormDifferential])
	}
	// Missing odds yield the neutral 0.5 implied value on both sides.
	if derived[OddsValueHome] != 0.5 || derived[OddsValueAway] != 0.5 {
		t.Fatalf("odds values = %v / %v, want 0.5 each", derived[OddsValueHome], derived[OddsValueAway])
	}
	if derived[OverallAdvantageScore] != 0 {
		t.Fatalf("overall_advantage_score = %v, want 0", derived[OverallAdvantageScore])
	}
}

func TestDeriveComputation(t *testing.T) {
	base := map[string]interface{}{
		"team1": map[string]interface{}{
			"recent_form": map[string]interface{}{
				"win_rate": 0.7, "goals_scored_avg": 2.0,
			},
			"home_record": map[string]interface{}{"wins": 6, "draws": 2, "losses": 2},
		},
		"team2": map[string]interface{}{
			"recent_form": map[string]interface{}{
				"win_rate": 0.4, "goals_conceded_avg": 1.5,
			},
			"away_record": map[string]interface{}{"wins": 3, "draws": 3, "losses": 4},
		},
		"head_to_head": map[string]interface{}{
			"total_matches": 10, "team1_wins": 5, "team2_wins": 3,
		},
		"betting_odds": map[string]interface{}{
			"team1_win": 2.0, "team2_win": 4.0,
		},
	}
	derived := Derive(base)

	checks := map[string]float64{
		FormDifferential:  0.3,
		GoalsDifferential: 0.5,
		HomeAdvantage:     0.6,
		AwayStrength:      0.3,
		H2HAdvantage:      0.2,
		OddsValueHome:     0.5,
		OddsValueAway:     0.25,
	}
	for key, want := range checks {
		if math.Abs(derived[key]-want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", key, derived[key], want)
		}
	}
	// 0.3*0.3 + 0.6*0.2 + 0.2*0.2 + (0.5-0.25)*0.3 = 0.325
	if math.Abs(derived[OverallAdvantageScore]-0.325) > 1e-9 {
		t.Fatalf("overall = %v, want 0.325", derived[OverallAdvantageScore])
	}
}

func TestDeriveEmptyRecordsDivideSafely(t *testing.T) {
	base := map[string]interface{}{
		"team1": map[string]interface{}{"home_record": map[string]interface{}{}},
		"head_to_head": map[string]interface{}{
			"total_matches": 0, "team1_wins": 2, "team2_wins": 1,
		},
	}
	derived := Derive(base)
	if derived[HomeAdvantage] != 0 {
		t.Fatalf("home_advantage = %v, want 0", derived[HomeAdvantage])
	}
	if derived[H2HAdvantage] != 1 {
		t.Fatalf("h2h_advantage = %v, want 1 (divisor floored at 1)", derived[H2HAdvantage])
	}
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.reply, s.err
}

func TestExtractFallsBackOnError(t *testing.T) {
	e := NewExtractor(stubCompleter{err: fmt.Errorf("llm down")}, nil)
	base := e.ExtractMatchFeatures(context.Background(), map[string]string{"q": "text"})
	odds := base["betting_odds"].(map[string]interface{})
	if odds["team1_win"] != 2.0 {
		t.Fatalf("expected default odds bundle, got %v", odds)
	}
}

func TestExtractFallsBackOnGarbageReply(t *testing.T) {
	e := NewExtractor(stubCompleter{reply: "I cannot help with that"}, nil)
	base := e.ExtractMatchFeatures(context.Background(), nil)
	if _, ok := base["team1"]; !ok {
		t.Fatalf("expected default base features")
	}
}

func TestExtractAllParsesReply(t *testing.T) {
	reply := `{"team1": {"recent_form": {"win_rate": 0.8}}, "team2": {"recent_form": {"win_rate": 0.2}}}`
	e := NewExtractor(stubCompleter{reply: reply}, nil)
	bundle := e.ExtractAll(context.Background(), nil)
	if math.Abs(bundle.Derived[FormDifferential]-0.6) > 1e-9 {
		t.Fatalf("form_differential = %v, want 0.6", bundle.Derived[FormDifferential])
	}
	if bundle.ExtractedAt.IsZero() {
		t.Fatalf("extraction timestamp not set")
	}
}
