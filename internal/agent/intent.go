package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mgcnb666/Predictive-AI-agent/internal/domain"
	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Intent is the parsed prediction intent of one user message. A zero
// confidence with a non-empty Error marks an unparseable input.
type Intent struct {
	Domain     string        `json:"domain"`
	Params     domain.Params `json:"params"`
	Confidence float64       `json:"confidence"`
	Error      string        `json:"error,omitempty"`
}

// nowFunc is swapped in tests for deterministic date normalization.
var nowFunc = time.Now

const intentSystemPrompt = "You are a natural language understanding assistant specialized in extracting prediction intents and their key parameters."

// ParseIntent extracts {domain, params, confidence} from free text.
// Relative weather dates are normalized to absolute ones before the
// intent is returned.
func (a *UniversalAgent) ParseIntent(ctx context.Context, userInput string) Intent {
	prompt := fmt.Sprintf(`Analyze the user input below and extract the prediction intent and key parameters.

User input: %s

Supported prediction domains:
1. sports - match outcome prediction (needs: team1, team2, league). **Only for specific two-team match-ups.**
2. weather - weather prediction (needs: location, date, days_ahead)
3. election - election prediction (needs: election, region, candidates)
4. general - anything else (needs: query, topic), **including championship and tournament-winner questions**

**Important**:
- "Who wins the championship/title/trophy" questions are general, NOT sports
- sports is only for a concrete fixture like "Barcelona vs Real Madrid"

Return JSON:
{
  "domain": "sports/weather/election/general",
  "params": {},
  "confidence": 0.0,
  "raw_dates": {
    "relative": "tomorrow/day after tomorrow/next week",
    "absolute": "2025-10-16"
  }
}

Date rules:
- "tomorrow" -> current date + 1 day
- "day after tomorrow" -> current date + 2 days
- "next week" -> current date + 7 days
- concrete dates pass through unchanged

Example 1:
Input: "Predict tomorrow's weather in New York"
{"domain": "weather", "params": {"location": "New York", "date": "tomorrow", "days_ahead": 1}, "confidence": 0.95, "raw_dates": {"relative": "tomorrow"}}

Example 2:
Input: "Who will win Barcelona vs Real Madrid"
{"domain": "sports", "params": {"team1": "Barcelona", "team2": "Real Madrid", "league": "La Liga"}, "confidence": 0.9}

Example 3:
Input: "Who wins the 2024 US election, Trump or Biden"
{"domain": "election", "params": {"election": "2024 US Presidential Election", "region": "United States", "candidates": ["Donald Trump", "Joe Biden"]}, "confidence": 0.85}

Example 4:
Input: "Will Bitcoin rise"
{"domain": "general", "params": {"query": "Will Bitcoin rise", "topic": "Bitcoin price trend"}, "confidence": 0.8}

Example 5:
Input: "Who will win the 2025 NBA championship"
{"domain": "general", "params": {"query": "Who will win the 2025 NBA championship", "topic": "NBA Championship 2025 winner"}, "confidence": 0.85}

Return ONLY the JSON, no other content.
`, userInput)

	reply, err := a.llm.Complete(ctx, intentSystemPrompt, prompt)
	if err != nil {
		a.logger.Printf("intent parsing failed: %v", err)
		return errorIntent(err.Error())
	}

	raw, err := llmjson.Extract(reply)
	if err != nil {
		a.logger.Printf("intent reply carried no JSON")
		return errorIntent("unable to understand input")
	}

	params := domain.Params{}
	if p, ok := raw["params"].(map[string]interface{}); ok {
		params = p
	}
	intent := Intent{
		Domain:     llmjson.String(raw, "domain", ""),
		Params:     params,
		Confidence: llmjson.Float(raw, "confidence", 0),
	}
	normalizeWeatherDate(&intent)
	return intent
}

// normalizeWeatherDate rewrites relative date phrases into absolute
// dates; weather predictions without a date default to tomorrow.
func normalizeWeatherDate(intent *Intent) {
	if intent.Domain != "weather" {
		return
	}
	today := nowFunc()
	date, _ := intent.Params["date"].(string)

	switch {
	case strings.Contains(strings.ToLower(date), "day after tomorrow"):
		intent.Params["date"] = today.AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(strings.ToLower(date), "tomorrow"):
		intent.Params["date"] = today.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(strings.ToLower(date), "today"):
		intent.Params["date"] = today.Format("2006-01-02")
	case strings.Contains(strings.ToLower(date), "next week"):
		intent.Params["date"] = today.AddDate(0, 0, 7).Format("2006-01-02")
	case date == "":
		intent.Params["date"] = today.AddDate(0, 0, 1).Format("2006-01-02")
	}
}

func errorIntent(msg string) Intent {
	return Intent{
		Error:      msg,
		Params:     domain.Params{},
		Confidence: 0,
	}
}
