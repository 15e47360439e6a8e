// Package features turns raw match evidence into the structured
// feature bundle the prediction engine consumes. Base features come
// from an LLM extraction pass; derived features are closed-form
// functions of the base bundle with documented defaults, so a sparse
// bundle never breaks the downstream math.
package features

import (
	"time"
)

// Bundle is the full feature set for one prediction.
type Bundle struct {
	Base        map[string]interface{} `json:"base_features"`
	Derived     map[string]float64     `json:"derived_features"`
	ExtractedAt time.Time              `json:"extraction_timestamp"`
}

// Derived feature keys produced by Derive.
const (
	FormDifferential      = "form_differential"
	GoalsDifferential     = "goals_differential"
	HomeAdvantage         = "home_advantage"
	AwayStrength          = "away_strength"
	H2HAdvantage          = "h2h_advantage"
	OddsValueHome         = "odds_value_home"
	OddsValueAway         = "odds_value_away"
	OverallAdvantageScore = "overall_advantage_score"
)

// Derive computes the closed-form derived features from a base
// bundle. Missing fields take neutral defaults (win rates 0.5, one
// goal averages) so the output is always complete.
func Derive(base map[string]interface{}) map[string]float64 {
	derived := make(map[string]float64, 8)

	team1Form := nested(base, "team1", "recent_form")
	team2Form := nested(base, "team2", "recent_form")

	derived[FormDifferential] = num(team1Form, "win_rate", 0.5) - num(team2Form, "win_rate", 0.5)
	derived[GoalsDifferential] = num(team1Form, "goals_scored_avg", 1.0) - num(team2Form, "goals_conceded_avg", 1.0)

	team1Home := nested(base, "team1", "home_record")
	team2Away := nested(base, "team2", "away_record")

	derived[HomeAdvantage] = num(team1Home, "wins", 0) / recordTotal(team1Home)
	derived[AwayStrength] = num(team2Away, "wins", 0) / recordTotal(team2Away)

	h2h := nested(base, "head_to_head")
	totalH2H := num(h2h, "total_matches", 0)
	if totalH2H == 0 {
		totalH2H = 1
	}
	derived[H2HAdvantage] = (num(h2h, "team1_wins", 0) - num(h2h, "team2_wins", 0)) / totalH2H

	odds := nested(base, "betting_odds")
	derived[OddsValueHome] = impliedValue(num(odds, "team1_win", 0))
	derived[OddsValueAway] = impliedValue(num(odds, "team2_win", 0))

	derived[OverallAdvantageScore] = derived[FormDifferential]*0.3 +
		derived[HomeAdvantage]*0.2 +
		derived[H2HAdvantage]*0.2 +
		(derived[OddsValueHome]-derived[OddsValueAway])*0.3

	return derived
}

// impliedValue converts decimal odds into implied probability, with a
// neutral 0.5 when odds are absent or invalid.
func impliedValue(odds float64) float64 {
	if odds > 0 {
		return 1.0 / odds
	}
	return 0.5
}

// recordTotal sums a wins/draws/losses record, never returning zero.
func recordTotal(record map[string]interface{}) float64 {
	total := 0.0
	for _, v := range record {
		total += asFloat(v, 0)
	}
	if total == 0 {
		return 1
	}
	return total
}

func nested(m map[string]interface{}, path ...string) map[string]interface{} {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			return map[string]interface{}{}
		}
		cur = next
	}
	return cur
}

func num(m map[string]interface{}, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	return asFloat(v, def)
}

func asFloat(v interface{}, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

// DefaultBase is the neutral bundle used when extraction fails: an
// evenly matched fixture with low injury impact and soft odds.
func DefaultBase() map[string]interface{} {
	neutralForm := func() map[string]interface{} {
		return map[string]interface{}{
			"wins": 5, "draws": 3, "losses": 2,
			"win_rate":           0.5,
			"goals_scored_avg":   1.5,
			"goals_conceded_avg": 1.2,
		}
	}
	return map[string]interface{}{
		"team1": map[string]interface{}{
			"name":            "Unknown",
			"recent_form":     neutralForm(),
			"home_record":     map[string]interface{}{"wins": 6, "draws": 2, "losses": 2},
			"injuries":        map[string]interface{}{"key_players_out": []interface{}{}, "severity": "low"},
			"league_position": 10,
			"form_trend":      "stable",
		},
		"team2": map[string]interface{}{
			"name":            "Unknown",
			"recent_form":     neutralForm(),
			"away_record":     map[string]interface{}{"wins": 4, "draws": 3, "losses": 3},
			"injuries":        map[string]interface{}{"key_players_out": []interface{}{}, "severity": "low"},
			"league_position": 10,
			"form_trend":      "stable",
		},
		"head_to_head": map[string]interface{}{
			"total_matches": 10,
			"team1_wins":    4,
			"team2_wins":    4,
			"draws":         2,
			"avg_goals":     2.5,
		},
		"betting_odds": map[string]interface{}{
			"team1_win":          2.0,
			"draw":               3.5,
			"team2_win":          2.5,
			"implied_prob_team1": 0.4,
			"implied_prob_draw":  0.25,
			"implied_prob_team2": 0.35,
		},
		"expert_consensus": map[string]interface{}{
			"predicted_winner": "draw",
			"confidence":       "low",
		},
		"external_factors": map[string]interface{}{
			"weather":           "good",
			"stadium_advantage": "moderate",
		},
	}
}
