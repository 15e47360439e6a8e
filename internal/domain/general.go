package domain

import (
	"fmt"
	"strings"

	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// General handles open-ended prediction questions. Championship-style
// questions get a multi-contender template whose probabilities form a
// distribution; everything else gets a single-claim template with one
// probability. Normalize branches on which keys came back.
type General struct{}

var championshipKeywords = []string{
	"champion", "championship", "winner", "trophy", "title",
	"world series", "nba finals", "super bowl",
}

func isChampionshipQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range championshipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (General) Name() string { return "general" }

func (General) BuildQueries(params Params) []string {
	query := str(params, "query")
	topic := strDefault(params, "topic", query)

	now := nowFunc()
	currentMonth := now.Format("2006-01")
	currentYear := now.Year()

	if isChampionshipQuery(query) {
		return []string{
			fmt.Sprintf("%s odds %d", topic, currentYear),
			fmt.Sprintf("%s predictions %d", topic, currentYear),
			fmt.Sprintf("%s favorites %d", topic, currentYear),
			fmt.Sprintf("%s contenders analysis %d", topic, currentYear),
			fmt.Sprintf("%s betting odds latest", topic),
			fmt.Sprintf("%s expert predictions %s", topic, currentMonth),
		}
	}
	return []string{
		fmt.Sprintf("%s %d latest update", topic, currentYear),
		fmt.Sprintf("%s %s recent news", topic, currentMonth),
		fmt.Sprintf("%s prediction %d", topic, currentYear),
		fmt.Sprintf("%s forecast latest analysis", topic),
		fmt.Sprintf("%s current trends %d", topic, currentYear),
		fmt.Sprintf("%s latest data %s", topic, currentMonth),
	}
}

func (General) SystemPrompt() string {
	return `You are a versatile prediction analyst.
You can analyze and predict questions in any domain, including but not limited to:
- Economic trends
- Technology development
- Social events
- Natural phenomena
- Human behavior
- Market movements

When analyzing you should:
1. Ground the analysis in available data and trends
2. Consider multiple possibilities
3. Provide reasonable probabilities
4. State the uncertainty factors
Give objective, rational predictions.`
}

func (General) BuildPrompt(evidence string, params Params) string {
	query := strDefault(params, "query", "unknown question")

	now := nowFunc()
	currentDate := now.Format("2006-01-02")
	currentYear := now.Year()

	if isChampionshipQuery(query) {
		return fmt.Sprintf(`**Current date: %s**

Based on the data below, predict: %s

Search data:
%s

**This is a championship/tournament prediction.** Identify and analyze every plausible contender.

Return the prediction as JSON:

{
  "prediction": "predicted champion/winner",
  "probability": 0.0,
  "confidence": 0.0,
  "data_date": "most recent date in the data (e.g. 2025-10)",
  "top_contenders": {
    "Contender 1": 0.35,
    "Contender 2": 0.25,
    "Contender 3": 0.20,
    "Contender 4": 0.12,
    "Other": 0.08
  },
  "analysis": "detailed analysis of each major contender's strengths and weaknesses",
  "factors": ["key factor 1", "key factor 2", "key factor 3"],
  "scenarios": {
    "best_case": "scenario favoring the top contender",
    "likely_case": "most likely champion and why",
    "dark_horse": "dark horse contender"
  },
  "risks": ["risk 1", "risk 2"],
  "timeline": "tournament/deciding-match time range",
  "data_quality": "data quality assessment"
}

Requirements:
1. prediction is the most likely winner
2. probability is the winner's chance of winning
3. top_contenders lists at least 3-5 contenders with probabilities
4. top_contenders probabilities should sum to 1.0
5. Base the prediction on the latest %d odds, rankings and expert views
6. Return ONLY the JSON, no other content
`, currentDate, query, evidence, currentYear)
	}

	return fmt.Sprintf(`**Current date: %s**

Based on the data below, predict: %s

Search data:
%s

**Important**:
1. Today is %s; prioritize the latest %d data
2. If the search data carries timestamps, note the data date
3. Ignore outdated information, focus on recent months
4. If the data is stale, say so in the analysis

Return the prediction as JSON:

{
  "prediction": "the predicted outcome (specific, based on the latest data)",
  "probability": 0.0,
  "confidence": 0.0,
  "data_date": "most recent date in the data (e.g. 2025-10)",
  "analysis": "detailed analysis (based on the latest %d data)",
  "factors": ["factor 1", "factor 2", "factor 3"],
  "scenarios": {
    "best_case": "best case",
    "likely_case": "most likely scenario",
    "worst_case": "worst case"
  },
  "risks": ["risk 1", "risk 2"],
  "timeline": "prediction time range",
  "data_quality": "data quality assessment (recency and sufficiency)"
}

Requirements:
1. prediction must be concrete and based on the latest %d data
2. probability is the likelihood of the predicted outcome (0-1)
3. confidence is your confidence in the prediction (0-1)
4. data_date labels the most recent date in the search data
5. Consider multiple scenarios
6. data_quality assesses whether the data is fresh and sufficient
7. Return ONLY the JSON, no other content
`, currentDate, query, evidence, currentDate, currentYear, currentYear, currentYear)
}

func (General) Normalize(raw map[string]interface{}) Result {
	scenarios, _ := raw["scenarios"].(map[string]interface{})
	if scenarios == nil {
		scenarios = map[string]interface{}{}
	}
	contenders := llmjson.FloatMap(raw, "top_contenders")
	if contenders == nil {
		contenders = map[string]float64{}
	}
	return Result{
		"domain":          "general",
		"prediction_type": "general_forecast",
		"result":          llmjson.String(raw, "prediction", ""),
		"probability":     llmjson.Float(raw, "probability", 0),
		"confidence":      llmjson.Float(raw, "confidence", 0),
		"data_date":       llmjson.String(raw, "data_date", "unknown"),
		"data_quality":    llmjson.String(raw, "data_quality", ""),
		"top_contenders":  contenders,
		"analysis":        llmjson.String(raw, "analysis", ""),
		"factors":         llmjson.StringSlice(raw, "factors"),
		"scenarios":       scenarios,
		"risks":           llmjson.StringSlice(raw, "risks"),
		"timeline":        llmjson.String(raw, "timeline", ""),
	}
}
