package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
	"github.com/mgcnb666/Predictive-AI-agent/internal/features"
	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// MatchRequest describes one match to analyze in depth.
type MatchRequest struct {
	Team1  string
	Team2  string
	League string
	Date   string
	// MarketOdds, when nil, are extracted from search evidence; if
	// that fails the betting analysis is skipped, not the report.
	MarketOdds *engine.MarketOdds
}

// matchDataKeyFields are the evidence fields that count toward the
// data-quality assessment.
var matchDataKeyFields = []string{"head_to_head", "team1_form", "team2_form", "betting_odds"}

func matchDataQueries(req MatchRequest) map[string]string {
	return map[string]string{
		"head_to_head":       fmt.Sprintf("%s vs %s head to head statistics", req.Team1, req.Team2),
		"team1_form":         fmt.Sprintf("%s recent form %s", req.Team1, req.League),
		"team2_form":         fmt.Sprintf("%s recent form %s", req.Team2, req.League),
		"betting_odds":       fmt.Sprintf("%s vs %s betting odds", req.Team1, req.Team2),
		"team1_injuries":     fmt.Sprintf("%s injury news", req.Team1),
		"team2_injuries":     fmt.Sprintf("%s injury news", req.Team2),
		"expert_predictions": fmt.Sprintf("%s vs %s expert predictions", req.Team1, req.Team2),
	}
}

// AnalyzeMatch runs the full pipeline for one match: evidence
// collection, feature extraction, ensemble prediction, EV analysis
// and bet sizing. Partial data lowers quality flags instead of
// failing the report.
func (a *UniversalAgent) AnalyzeMatch(ctx context.Context, req MatchRequest) map[string]interface{} {
	start := time.Now()
	a.logger.Printf("analyzing match %s vs %s", req.Team1, req.Team2)

	matchData := a.collectMatchData(ctx, req)

	bundle := a.extractor.ExtractAll(ctx, matchData)

	prediction := a.engine.Predict(ctx, bundle, req.Team1, req.Team2)

	bettingAnalysis := a.bettingAnalysis(ctx, req, matchData, prediction)

	date := req.Date
	if date == "" {
		date = "unspecified"
	}
	report := map[string]interface{}{
		"match_info": map[string]interface{}{
			"team1":  req.Team1,
			"team2":  req.Team2,
			"league": req.League,
			"date":   date,
		},
		"prediction": map[string]interface{}{
			"home_win_probability": prediction.HomeWinProb,
			"draw_probability":     prediction.DrawProb,
			"away_win_probability": prediction.AwayWinProb,
			"confidence":           prediction.Confidence,
			"expected_score":       prediction.ExpectedScore,
		},
		"analysis": map[string]interface{}{
			"summary":     prediction.Analysis,
			"key_factors": prediction.KeyFactors,
			"risks":       prediction.Risks,
		},
		"betting_analysis": bettingAnalysis,
		"features_summary": map[string]interface{}{
			"form_differential": bundle.Derived[features.FormDifferential],
			"home_advantage":    bundle.Derived[features.HomeAdvantage],
			"overall_score":     bundle.Derived[features.OverallAdvantageScore],
		},
		"metadata": map[string]interface{}{
			"analysis_timestamp":   time.Now().Format(time.RFC3339),
			"elapsed_time_seconds": time.Since(start).Seconds(),
			"data_quality":         assessDataQuality(matchData),
		},
	}
	a.logger.Printf("match analysis done in %s", time.Since(start))
	return report
}

// collectMatchData gathers the named evidence fields concurrently.
// Failures land as error-string values under their field.
func (a *UniversalAgent) collectMatchData(ctx context.Context, req MatchRequest) map[string]string {
	queries := matchDataQueries(req)
	results := make(map[string]string, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.searchConcurrency)
	for field, query := range queries {
		field, query := field, query
		g.Go(func() error {
			text := a.runQuery(gctx, query)
			mu.Lock()
			results[field] = text
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

func (a *UniversalAgent) bettingAnalysis(ctx context.Context, req MatchRequest, matchData map[string]string, prediction *engine.EnsembleResult) map[string]interface{} {
	odds := req.MarketOdds
	if odds == nil {
		extracted, err := a.extractOdds(ctx, matchData["betting_odds"])
		if err != nil {
			a.logger.Printf("no usable odds, skipping EV analysis: %v", err)
			return map[string]interface{}{"error": "Odds data not available"}
		}
		odds = extracted
	}

	ev := a.engine.CalculateExpectedValue(prediction, *odds)
	analysis := map[string]interface{}{
		"should_bet":        ev.ShouldBet,
		"recommendation":    ev.Recommendation,
		"best_bet":          ev.BestBet,
		"all_evs":           ev.AllEVs,
		"market_efficiency": ev.MarketEfficiency,
	}
	if ev.ShouldBet {
		amount := a.risk.CalculateBetAmount(ev.BestBet.BetSizePercentage, prediction.Confidence)
		analysis["recommended_bet_amount"], _ = amount.Float64()
		if a.metrics != nil {
			a.metrics.BetsRecommended.Inc()
		}
	}
	return analysis
}

// extractOdds pulls decimal odds out of raw odds evidence via the
// model, since bookmaker text is unstructured.
func (a *UniversalAgent) extractOdds(ctx context.Context, oddsText string) (*engine.MarketOdds, error) {
	if oddsText == "" || isQueryFailure(oddsText) {
		return nil, fmt.Errorf("no odds evidence collected")
	}
	prompt := "Extract the decimal betting odds from the text below and return JSON " +
		`{"home": 0.0, "draw": 0.0, "away": 0.0}. Return ONLY the JSON.` + "\n\n" + oddsText
	reply, err := a.llm.Complete(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting odds: %w", err)
	}
	raw, err := llmjson.Extract(reply)
	if err != nil {
		return nil, fmt.Errorf("odds reply had no JSON: %w", err)
	}
	odds := engine.MarketOdds{
		Home: llmjson.Float(raw, "home", 0),
		Draw: llmjson.Float(raw, "draw", 0),
		Away: llmjson.Float(raw, "away", 0),
	}
	if odds.Home <= 1 || odds.Away <= 1 {
		return nil, fmt.Errorf("extracted odds implausible: %+v", odds)
	}
	return &odds, nil
}

// BatchAnalyze analyzes several matches sequentially; one failing
// report does not stop the batch.
func (a *UniversalAgent) BatchAnalyze(ctx context.Context, reqs []MatchRequest) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, a.AnalyzeMatch(ctx, req))
	}
	return results
}

// Status reports agent health with a bankroll snapshot.
func (a *UniversalAgent) Status() map[string]interface{} {
	snap := a.risk.Snapshot()
	current, _ := snap.Current.Float64()
	initial, _ := snap.Initial.Float64()
	dailyPnL, _ := snap.DailyPnL.Float64()
	return map[string]interface{}{
		"status": "active",
		"bankroll": map[string]interface{}{
			"current":   current,
			"initial":   initial,
			"daily_pnl": dailyPnL,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

// assessDataQuality scores the share of key evidence fields that came
// back without an error sentinel.
func assessDataQuality(matchData map[string]string) string {
	available := 0
	for _, field := range matchDataKeyFields {
		text, ok := matchData[field]
		if ok && !isQueryFailure(text) {
			available++
		}
	}
	ratio := float64(available) / float64(len(matchDataKeyFields))
	switch {
	case ratio >= 0.8:
		return "high"
	case ratio >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// isQueryFailure recognizes the error sentinels produced by evidence
// collection.
func isQueryFailure(text string) bool {
	return strings.HasPrefix(text, "search failed:") || strings.HasPrefix(text, "query failed:")
}
