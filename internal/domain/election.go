package domain

import (
	"fmt"
	"strings"

	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Election predicts outcomes across the full candidate field, not
// only the front-runners.
type Election struct{}

func (Election) Name() string { return "election" }

func (Election) BuildQueries(params Params) []string {
	election := str(params, "election")
	region := str(params, "region")

	queries := []string{
		fmt.Sprintf("%s %s all candidates list", election, region),
		fmt.Sprintf("%s %s polls latest all candidates", election, region),
		fmt.Sprintf("%s %s voting intention survey", election, region),
		fmt.Sprintf("%s %s election forecast all runners", election, region),
		fmt.Sprintf("%s %s candidates comparison full list", election, region),
		fmt.Sprintf("%s %s demographic analysis", election, region),
		fmt.Sprintf("%s %s historical voting patterns", election, region),
	}

	for _, candidate := range candidateList(params) {
		queries = append(queries,
			fmt.Sprintf("%s approval rating %s", candidate, region),
			fmt.Sprintf("%s campaign strategy %s", candidate, election),
			fmt.Sprintf("%s policy positions %s", candidate, election),
		)
	}
	return queries
}

func candidateList(params Params) []string {
	v, ok := params["candidates"]
	if !ok {
		return nil
	}
	switch c := v.(type) {
	case []string:
		return c
	case []interface{}:
		var out []string
		for _, e := range c {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (Election) SystemPrompt() string {
	return `You are a professional election analyst and political scientist.
When analyzing elections, consider:
1. Latest polling data and trends
2. Historical election patterns
3. Demographic factors
4. Economic indicators
5. Candidate approval and image
6. Impact of key issues
7. Regional differences
8. Turnout projections
Base the analysis on objective data and avoid political bias.`
}

func (Election) BuildPrompt(evidence string, params Params) string {
	election := str(params, "election")
	region := str(params, "region")

	candidatesInfo := "Identify the candidates from the search data."
	if candidates := candidateList(params); len(candidates) > 0 {
		candidatesInfo = "Candidates of interest: " + strings.Join(candidates, ", ")
	}

	return fmt.Sprintf(`Based on the data below, predict the result of the %s %s:

%s

Search data:
%s

Analyze the election and return the prediction as JSON.

**Important**:
1. Identify **all candidates** appearing in the search data, not just the top 2
2. Give a win probability for **every** candidate
3. Include minor-party and independent candidates as well

Return format:
{
  "candidate_probabilities": {
    "Candidate 1": 0.45,
    "Candidate 2": 0.35,
    "Candidate 3": 0.10,
    "Candidate 4": 0.05,
    "Candidate 5": 0.03,
    "Other": 0.02
  },
  "vote_share": {
    "Candidate 1": 0.45,
    "Candidate 2": 0.35,
    "Candidate 3": 0.10,
    "Candidate 4": 0.05,
    "Candidate 5": 0.03,
    "Other": 0.02
  },
  "total_candidates": 6,
  "main_contenders": ["Candidate 1", "Candidate 2"],
  "confidence": 0.75,
  "swing_factors": ["key factor 1", "key factor 2", "key factor 3"],
  "analysis": "detailed analysis of every candidate's campaign, polling and base of support",
  "key_regions": ["key region 1", "key region 2"],
  "uncertainties": ["uncertainty 1", "uncertainty 2"]
}

Requirements:
1. **List every candidate appearing in the search data**, at least 3-5
2. candidate_probabilities are win probabilities and must sum to 1.0
3. vote_share is expected vote share and should sum to 1.0
4. total_candidates is the number of candidates identified
5. main_contenders are the top 2-3 competitors
6. If the data is thin, still include at least 3 candidates
7. Predict objectively from polls, expert analysis and historical data
8. Return ONLY the JSON, no other content
`, region, election, candidatesInfo, evidence)
}

func (Election) Normalize(raw map[string]interface{}) Result {
	probs := llmjson.FloatMap(raw, "candidate_probabilities")
	if probs == nil {
		probs = map[string]float64{}
	}
	voteShare := llmjson.FloatMap(raw, "vote_share")
	if voteShare == nil {
		voteShare = map[string]float64{}
	}
	return Result{
		"domain":           "election",
		"prediction_type":  "election_outcome",
		"predictions":      probs,
		"vote_share":       voteShare,
		"total_candidates": int(llmjson.Float(raw, "total_candidates", 0)),
		"main_contenders":  llmjson.StringSlice(raw, "main_contenders"),
		"confidence":       llmjson.Float(raw, "confidence", 0),
		"swing_factors":    llmjson.StringSlice(raw, "swing_factors"),
		"analysis":         llmjson.String(raw, "analysis", ""),
		"key_regions":      llmjson.StringSlice(raw, "key_regions"),
		"uncertainties":    llmjson.StringSlice(raw, "uncertainties"),
	}
}
