package domain

import (
	"fmt"

	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Sports predicts match outcomes as a home/draw/away distribution.
type Sports struct{}

func (Sports) Name() string { return "sports" }

func (Sports) BuildQueries(params Params) []string {
	team1 := str(params, "team1")
	team2 := str(params, "team2")
	league := str(params, "league")

	return []string{
		fmt.Sprintf("%s vs %s head to head statistics", team1, team2),
		fmt.Sprintf("%s recent form %s", team1, league),
		fmt.Sprintf("%s recent form %s", team2, league),
		fmt.Sprintf("%s injury news", team1),
		fmt.Sprintf("%s injury news", team2),
		fmt.Sprintf("%s vs %s betting odds", team1, team2),
		fmt.Sprintf("%s vs %s expert predictions", team1, team2),
	}
}

func (Sports) SystemPrompt() string {
	return `You are a professional sports analyst.
When analyzing a match, consider:
1. Recent form and performance of both teams
2. Head-to-head record
3. Home/away advantage
4. Injury situation
5. Tactical setup
6. Psychological factors
Provide objective, data-driven predictions.`
}

func (Sports) BuildPrompt(evidence string, params Params) string {
	team1 := strDefault(params, "team1", "Home team")
	team2 := strDefault(params, "team2", "Away team")
	league := str(params, "league")

	return fmt.Sprintf(`Based on the data below, predict the outcome of %s vs %s (%s):

Search data:
%s

Provide a detailed prediction analysis as JSON:

{
  "home_win_prob": 0.0,
  "draw_prob": 0.0,
  "away_win_prob": 0.0,
  "confidence": 0.0,
  "analysis": "detailed analysis...",
  "key_factors": ["factor 1", "factor 2"],
  "risks": ["risk 1", "risk 2"]
}

Requirements:
1. The probabilities must sum to 1.0
2. home_win_prob is the probability %s wins
3. away_win_prob is the probability %s wins
4. Base the analysis objectively on the search data
5. confidence expresses prediction confidence (0-1)
6. Return ONLY the JSON, no other content
`, team1, team2, league, evidence, team1, team2)
}

func (Sports) Normalize(raw map[string]interface{}) Result {
	return Result{
		"domain":          "sports",
		"prediction_type": "match_outcome",
		"outcomes": map[string]float64{
			"home_win": llmjson.Float(raw, "home_win_prob", 0),
			"draw":     llmjson.Float(raw, "draw_prob", 0),
			"away_win": llmjson.Float(raw, "away_win_prob", 0),
		},
		"confidence":  llmjson.Float(raw, "confidence", 0),
		"analysis":    llmjson.String(raw, "analysis", ""),
		"key_factors": llmjson.StringSlice(raw, "key_factors"),
		"risks":       llmjson.StringSlice(raw, "risks"),
	}
}
