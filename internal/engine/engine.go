// Package engine implements the decision core: the LLM/statistical
// ensemble prediction, expected-value and Kelly bet sizing, and the
// bankroll risk manager.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mgcnb666/Predictive-AI-agent/internal/features"
	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Weights and fallbacks of the ensemble. The fuse-then-renormalize
// order is part of the numeric contract: changing it changes outputs.
const (
	llmWeightDefault  = 0.6
	statWeightDefault = 0.4

	statConfidence = 0.65

	defaultHomeProb = 0.35
	defaultDrawProb = 0.30
	defaultAwayProb = 0.35
)

// Completer is the LLM dependency of the engine.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options tunes the engine; zero values take the documented defaults.
type Options struct {
	ConfidenceThreshold float64
	KellyFraction       float64
	MaxBetPercentage    float64
	LLMWeight           float64
	StatWeight          float64
}

// Engine fuses an LLM judgment with a closed-form statistical
// estimate into one probability distribution.
type Engine struct {
	llm    Completer
	logger *log.Logger

	confidenceThreshold float64
	kellyFraction       float64
	maxBetPercentage    float64
	llmWeight           float64
	statWeight          float64
}

// RawPrediction is one unnormalized component estimate.
type RawPrediction struct {
	HomeWinProb   float64  `json:"home_win_prob"`
	DrawProb      float64  `json:"draw_prob"`
	AwayWinProb   float64  `json:"away_win_prob"`
	Confidence    float64  `json:"confidence"`
	Analysis      string   `json:"analysis,omitempty"`
	KeyFactors    []string `json:"key_factors,omitempty"`
	Risks         []string `json:"risks,omitempty"`
	ExpectedScore string   `json:"expected_score,omitempty"`
}

// EnsembleResult is the fused prediction. Probabilities sum to 1;
// confidence is a weighted average, not part of the distribution.
type EnsembleResult struct {
	HomeWinProb   float64  `json:"home_win_prob"`
	DrawProb      float64  `json:"draw_prob"`
	AwayWinProb   float64  `json:"away_win_prob"`
	Confidence    float64  `json:"confidence"`
	Analysis      string   `json:"analysis"`
	KeyFactors    []string `json:"key_factors"`
	Risks         []string `json:"risks"`
	ExpectedScore string   `json:"expected_score"`

	Team1Name string    `json:"team1_name,omitempty"`
	Team2Name string    `json:"team2_name,omitempty"`
	Timestamp time.Time `json:"prediction_timestamp"`

	SourceLLM         RawPrediction `json:"llm_prediction"`
	SourceStatistical RawPrediction `json:"statistical_prediction"`
}

// New builds an Engine.
func New(llm Completer, logger *log.Logger, opts Options) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}
	e := &Engine{
		llm:                 llm,
		logger:              logger,
		confidenceThreshold: opts.ConfidenceThreshold,
		kellyFraction:       opts.KellyFraction,
		maxBetPercentage:    opts.MaxBetPercentage,
		llmWeight:           opts.LLMWeight,
		statWeight:          opts.StatWeight,
	}
	if e.confidenceThreshold == 0 {
		e.confidenceThreshold = 0.6
	}
	if e.kellyFraction == 0 {
		e.kellyFraction = 0.25
	}
	if e.maxBetPercentage == 0 {
		e.maxBetPercentage = 0.05
	}
	if e.llmWeight == 0 {
		e.llmWeight = llmWeightDefault
	}
	if e.statWeight == 0 {
		e.statWeight = statWeightDefault
	}
	return e
}

// Predict runs both estimators and fuses them. A prediction never
// hard-fails: component failures degrade to the low-confidence
// defaults instead.
func (e *Engine) Predict(ctx context.Context, bundle features.Bundle, team1, team2 string) *EnsembleResult {
	e.logger.Printf("predicting %s vs %s", team1, team2)

	llmPred := e.llmPredict(ctx, bundle, team1, team2)
	statPred := e.statisticalPredict(bundle)

	result := e.ensemble(llmPred, statPred)
	result.Team1Name = team1
	result.Team2Name = team2
	result.Timestamp = time.Now()

	e.logger.Printf("prediction done: home %.2f, draw %.2f, away %.2f (confidence %.2f)",
		result.HomeWinProb, result.DrawProb, result.AwayWinProb, result.Confidence)
	return result
}

func (e *Engine) llmPredict(ctx context.Context, bundle features.Bundle, team1, team2 string) RawPrediction {
	featureJSON, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		featureJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(`You are a professional sports prediction analyst. Analyze the outcome of %s vs %s based on the data below.

Feature data:
%s

Provide a detailed prediction analysis as JSON:
{
  "home_win_prob": 0.0,
  "draw_prob": 0.0,
  "away_win_prob": 0.0,
  "confidence": 0.0,
  "analysis": "detailed analysis...",
  "key_factors": ["factor 1", "factor 2"],
  "risks": ["risk 1", "risk 2"],
  "expected_score": "1-1"
}

Requirements:
1. The probabilities must sum to 1
2. Analyze objectively from the data, without bias
3. Consider all key factors: recent form, head-to-head, home/away, injuries, odds
4. Confidence should reflect data reliability and consistency
5. Return ONLY the JSON, no other content
`, team1, team2, featureJSON)

	reply, err := e.llm.Complete(ctx, "", prompt)
	if err != nil {
		e.logger.Printf("llm prediction failed: %v", err)
		return defaultPrediction()
	}

	raw, err := llmjson.Extract(reply)
	if err != nil {
		e.logger.Printf("llm reply had no parseable JSON: %v", err)
		return defaultPrediction()
	}

	pred := RawPrediction{
		HomeWinProb:   llmjson.Float(raw, "home_win_prob", 0),
		DrawProb:      llmjson.Float(raw, "draw_prob", 0),
		AwayWinProb:   llmjson.Float(raw, "away_win_prob", 0),
		Confidence:    llmjson.Float(raw, "confidence", 0.5),
		Analysis:      llmjson.String(raw, "analysis", ""),
		KeyFactors:    llmjson.StringSlice(raw, "key_factors"),
		Risks:         llmjson.StringSlice(raw, "risks"),
		ExpectedScore: llmjson.String(raw, "expected_score", ""),
	}

	total := pred.HomeWinProb + pred.DrawProb + pred.AwayWinProb
	if total <= 0 {
		e.logger.Printf("llm prediction had non-positive probability mass")
		return defaultPrediction()
	}
	if diff := total - 1.0; diff > 0.01 || diff < -0.01 {
		pred.HomeWinProb /= total
		pred.DrawProb /= total
		pred.AwayWinProb /= total
	}
	return pred
}

// statisticalPredict applies a linear perturbation over market-implied
// base probabilities. Clamps keep outlier features from producing
// degenerate near-0/near-1 outputs.
func (e *Engine) statisticalPredict(bundle features.Bundle) RawPrediction {
	derived := bundle.Derived
	if derived == nil {
		derived = map[string]float64{}
	}

	formDiff := derivedOr(derived, features.FormDifferential, 0)
	homeAdv := derivedOr(derived, features.HomeAdvantage, 0.5)
	h2hAdv := derivedOr(derived, features.H2HAdvantage, 0)
	overallScore := derivedOr(derived, features.OverallAdvantageScore, 0)

	// The draw base prob only enters through the complement below.
	baseHome, baseAway := impliedBaseProbs(bundle.Base)

	adjustment := formDiff*0.15 + homeAdv*0.10 + h2hAdv*0.08 + overallScore*0.12

	homeProb := clamp(baseHome+adjustment, 0.1, 0.8)
	awayProb := clamp(baseAway-adjustment, 0.1, 0.8)
	drawProb := clamp(1.0-homeProb-awayProb, 0.1, 0.5)

	total := homeProb + drawProb + awayProb

	return RawPrediction{
		HomeWinProb: homeProb / total,
		DrawProb:    drawProb / total,
		AwayWinProb: awayProb / total,
		Confidence:  statConfidence,
	}
}

func impliedBaseProbs(base map[string]interface{}) (home, away float64) {
	home, away = defaultHomeProb, defaultAwayProb
	if base == nil {
		return
	}
	odds, ok := base["betting_odds"].(map[string]interface{})
	if !ok {
		return
	}
	home = llmjson.Float(odds, "implied_prob_team1", defaultHomeProb)
	away = llmjson.Float(odds, "implied_prob_team2", defaultAwayProb)
	return
}

// ensemble fuses per-outcome first and renormalizes after; the
// confidence is the same weighted sum but stays un-normalized since
// it is not part of the distribution.
func (e *Engine) ensemble(llmPred, statPred RawPrediction) *EnsembleResult {
	homeProb := llmPred.HomeWinProb*e.llmWeight + statPred.HomeWinProb*e.statWeight
	drawProb := llmPred.DrawProb*e.llmWeight + statPred.DrawProb*e.statWeight
	awayProb := llmPred.AwayWinProb*e.llmWeight + statPred.AwayWinProb*e.statWeight

	total := homeProb + drawProb + awayProb
	homeProb /= total
	drawProb /= total
	awayProb /= total

	confidence := llmPred.Confidence*e.llmWeight + statPred.Confidence*e.statWeight

	analysis := llmPred.Analysis
	if analysis == "" {
		analysis = "no detailed analysis available"
	}
	expectedScore := llmPred.ExpectedScore
	if expectedScore == "" {
		expectedScore = "not predicted"
	}

	return &EnsembleResult{
		HomeWinProb:       homeProb,
		DrawProb:          drawProb,
		AwayWinProb:       awayProb,
		Confidence:        confidence,
		Analysis:          analysis,
		KeyFactors:        llmPred.KeyFactors,
		Risks:             llmPred.Risks,
		ExpectedScore:     expectedScore,
		SourceLLM:         llmPred,
		SourceStatistical: statPred,
	}
}

func defaultPrediction() RawPrediction {
	return RawPrediction{
		HomeWinProb:   defaultHomeProb,
		DrawProb:      defaultDrawProb,
		AwayWinProb:   defaultAwayProb,
		Confidence:    0.5,
		Analysis:      "insufficient data, using default prediction",
		KeyFactors:    []string{"insufficient data"},
		Risks:         []string{"prediction reliability is low"},
		ExpectedScore: "unknown",
	}
}

func derivedOr(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
