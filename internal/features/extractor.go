package features

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Completer is the LLM dependency of the extractor.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor pulls structured match features out of raw evidence.
type Extractor struct {
	llm    Completer
	logger *log.Logger
}

// NewExtractor builds an Extractor. A nil logger gets a discarding
// default via log.Default semantics handled by callers; here we keep
// the provided logger as-is.
func NewExtractor(llm Completer, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(log.Writer(), "[FEATURES] ", log.LstdFlags)
	}
	return &Extractor{llm: llm, logger: logger}
}

const extractionSchema = `{
  "team1": {
    "name": "home team name",
    "recent_form": {
      "wins": 0,
      "draws": 0,
      "losses": 0,
      "win_rate": 0.0,
      "goals_scored_avg": 0.0,
      "goals_conceded_avg": 0.0
    },
    "home_record": {
      "wins": 0,
      "draws": 0,
      "losses": 0
    },
    "injuries": {
      "key_players_out": [],
      "severity": "low/medium/high"
    },
    "league_position": 0,
    "form_trend": "improving/stable/declining"
  },
  "team2": {
    "name": "away team name",
    "recent_form": {
      "wins": 0,
      "draws": 0,
      "losses": 0,
      "win_rate": 0.0,
      "goals_scored_avg": 0.0,
      "goals_conceded_avg": 0.0
    },
    "away_record": {
      "wins": 0,
      "draws": 0,
      "losses": 0
    },
    "injuries": {
      "key_players_out": [],
      "severity": "low/medium/high"
    },
    "league_position": 0,
    "form_trend": "improving/stable/declining"
  },
  "head_to_head": {
    "total_matches": 0,
    "team1_wins": 0,
    "team2_wins": 0,
    "draws": 0,
    "avg_goals": 0.0
  },
  "betting_odds": {
    "team1_win": 0.0,
    "draw": 0.0,
    "team2_win": 0.0,
    "implied_prob_team1": 0.0,
    "implied_prob_draw": 0.0,
    "implied_prob_team2": 0.0
  },
  "expert_consensus": {
    "predicted_winner": "team1/team2/draw",
    "confidence": "low/medium/high"
  },
  "external_factors": {
    "weather": "good/poor",
    "stadium_advantage": "significant/moderate/none"
  }
}`

// ExtractMatchFeatures asks the model to structure raw match evidence
// into the extraction schema. Any failure falls back to DefaultBase.
func (e *Extractor) ExtractMatchFeatures(ctx context.Context, matchData map[string]string) map[string]interface{} {
	rawJSON, err := json.MarshalIndent(matchData, "", "  ")
	if err != nil {
		rawJSON = []byte("{}")
	}

	prompt := "Analyze the following football match data and extract the key features as JSON.\n\n" +
		"Raw data:\n" + string(rawJSON) + "\n\n" +
		"Extract the following features (return strict JSON):\n" + extractionSchema + "\n\n" +
		"Return ONLY the JSON, no explanation. Use reasonable defaults for missing data."

	reply, err := e.llm.Complete(ctx, "", prompt)
	if err != nil {
		e.logger.Printf("feature extraction failed, using defaults: %v", err)
		return DefaultBase()
	}
	base, err := llmjson.Extract(reply)
	if err != nil {
		e.logger.Printf("feature reply had no JSON, using defaults: %v", err)
		return DefaultBase()
	}
	return base
}

// ExtractAll runs the extraction pass and the derived-feature math,
// producing a complete Bundle.
func (e *Extractor) ExtractAll(ctx context.Context, matchData map[string]string) Bundle {
	base := e.ExtractMatchFeatures(ctx, matchData)
	return Bundle{
		Base:        base,
		Derived:     Derive(base),
		ExtractedAt: time.Now(),
	}
}
