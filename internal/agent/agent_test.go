package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mgcnb666/Predictive-AI-agent/internal/contextstore"
	"github.com/mgcnb666/Predictive-AI-agent/internal/domain"
	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
	"github.com/mgcnb666/Predictive-AI-agent/internal/features"
	"github.com/mgcnb666/Predictive-AI-agent/internal/telemetry"
	"github.com/mgcnb666/Predictive-AI-agent/tools/websearch"
)

// scriptedLLM routes replies by prompt content.
type scriptedLLM struct {
	respond func(system, user string) (string, error)
}

func (s scriptedLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return s.respond(system, user)
}

type stubSearcher struct {
	fail    map[string]bool
	snippet string
}

func (s stubSearcher) Search(ctx context.Context, q string, k int) ([]websearch.Result, error) {
	if s.fail[q] {
		return nil, errors.New("upstream 500")
	}
	return []websearch.Result{{Title: "hit for " + q, Snippet: s.snippet}}, nil
}

func newTestAgent(t *testing.T, llm Completer, searcher websearch.Searcher) *UniversalAgent {
	t.Helper()
	logger := telemetry.NewDiscardLogger()
	risk, err := engine.NewRiskManager(engine.RiskOptions{}, logger)
	if err != nil {
		t.Fatalf("NewRiskManager: %v", err)
	}
	return New(
		llm,
		searcher,
		features.NewExtractor(llm, logger),
		engine.New(llm, logger, engine.Options{}),
		risk,
		contextstore.NewRegistry(),
		logger,
		nil,
		Options{},
	)
}

func TestPredictUnknownDomainIsHardError(t *testing.T) {
	a := newTestAgent(t, scriptedLLM{respond: func(_, _ string) (string, error) { return "{}", nil }}, nil)
	if _, err := a.Predict(context.Background(), "astrology", domain.Params{}, false); !errors.Is(err, domain.ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestPredictSportsEndToEnd(t *testing.T) {
	llm := scriptedLLM{respond: func(system, user string) (string, error) {
		return `{"home_win_prob": 0.5, "draw_prob": 0.3, "away_win_prob": 0.2,
			"confidence": 0.75, "analysis": "solid home form", "key_factors": ["form"], "risks": ["rotation"]}`, nil
	}}
	a := newTestAgent(t, llm, stubSearcher{snippet: "some evidence"})

	params := domain.Params{"team1": "Arsenal", "team2": "Chelsea", "league": "Premier League"}
	result, err := a.Predict(context.Background(), "sports", params, true)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	outcomes := result["outcomes"].(map[string]float64)
	if outcomes["home_win"] != 0.5 {
		t.Fatalf("home_win = %v", outcomes["home_win"])
	}
	if result["timestamp"] == nil || result["parameters"] == nil {
		t.Fatalf("result must carry timestamp and parameters")
	}
	if result["analysis"] != "solid home form" {
		t.Fatalf("analysis = %v", result["analysis"])
	}
}

func TestCollectEvidenceErrorSentinels(t *testing.T) {
	a := newTestAgent(t,
		scriptedLLM{respond: func(_, _ string) (string, error) { return "", nil }},
		stubSearcher{snippet: "ok", fail: map[string]bool{"Arsenal injury news": true}})

	d, _ := domain.Lookup("sports")
	evidence := a.collectEvidence(context.Background(), d, domain.Params{"team1": "Arsenal", "team2": "Chelsea"})

	if len(evidence) != 7 {
		t.Fatalf("expected all 7 queries answered, got %d", len(evidence))
	}
	if !strings.HasPrefix(evidence["Arsenal injury news"], "search failed:") {
		t.Fatalf("failed query must yield error sentinel, got %q", evidence["Arsenal injury news"])
	}
	if strings.HasPrefix(evidence["Chelsea injury news"], "search failed:") {
		t.Fatalf("successful query marked failed")
	}
}

func TestGeneratePredictionNoJSONKeepsReplyAsAnalysis(t *testing.T) {
	a := newTestAgent(t, scriptedLLM{respond: func(_, _ string) (string, error) {
		return "plain prose without structure", nil
	}}, nil)

	d, _ := domain.Lookup("general")
	raw := a.generatePrediction(context.Background(), d, nil, domain.Params{"query": "q"})
	if raw["analysis"] != "plain prose without structure" {
		t.Fatalf("analysis = %v", raw["analysis"])
	}
	if raw["confidence"] != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", raw["confidence"])
	}
}

func TestGeneratePredictionLLMErrorIsZeroConfidence(t *testing.T) {
	a := newTestAgent(t, scriptedLLM{respond: func(_, _ string) (string, error) {
		return "", errors.New("provider down")
	}}, nil)

	d, _ := domain.Lookup("general")
	raw := a.generatePrediction(context.Background(), d, nil, domain.Params{})
	if raw["confidence"] != 0.0 || raw["error"] == nil {
		t.Fatalf("expected zero-confidence error record, got %v", raw)
	}
}

func TestAnalyzeMatchWithExplicitOdds(t *testing.T) {
	llm := scriptedLLM{respond: func(system, user string) (string, error) {
		if strings.Contains(user, "Extract the following features") {
			return `{"team1": {"recent_form": {"win_rate": 0.7}}, "team2": {"recent_form": {"win_rate": 0.3}},
				"betting_odds": {"implied_prob_team1": 0.45, "implied_prob_draw": 0.27, "implied_prob_team2": 0.28}}`, nil
		}
		return `{"home_win_prob": 0.55, "draw_prob": 0.25, "away_win_prob": 0.20, "confidence": 0.8,
			"analysis": "home side stronger", "expected_score": "2-1"}`, nil
	}}
	a := newTestAgent(t, llm, stubSearcher{snippet: "evidence"})

	report := a.AnalyzeMatch(context.Background(), MatchRequest{
		Team1: "Arsenal", Team2: "Chelsea", League: "Premier League",
		MarketOdds: &engine.MarketOdds{Home: 2.2, Draw: 3.3, Away: 3.1},
	})

	meta := report["metadata"].(map[string]interface{})
	if meta["data_quality"] != "high" {
		t.Fatalf("data_quality = %v, want high", meta["data_quality"])
	}
	betting := report["betting_analysis"].(map[string]interface{})
	if betting["should_bet"] != true {
		t.Fatalf("expected positive bet recommendation: %v", betting["recommendation"])
	}
	if betting["recommended_bet_amount"] == nil {
		t.Fatalf("positive recommendation must carry a bet amount")
	}
	pred := report["prediction"].(map[string]interface{})
	if pred["expected_score"] != "2-1" {
		t.Fatalf("expected_score = %v", pred["expected_score"])
	}
}

func TestAnalyzeMatchOddsUnavailable(t *testing.T) {
	llm := scriptedLLM{respond: func(system, user string) (string, error) {
		return `{"home_win_prob": 0.4, "draw_prob": 0.3, "away_win_prob": 0.3, "confidence": 0.7}`, nil
	}}
	// Every search fails: no odds evidence, low data quality.
	fail := map[string]bool{}
	for _, q := range matchDataQueries(MatchRequest{Team1: "A", Team2: "B", League: "L"}) {
		fail[q] = true
	}
	a := newTestAgent(t, llm, stubSearcher{fail: fail})

	report := a.AnalyzeMatch(context.Background(), MatchRequest{Team1: "A", Team2: "B", League: "L"})

	betting := report["betting_analysis"].(map[string]interface{})
	if betting["error"] != "Odds data not available" {
		t.Fatalf("betting analysis = %v, want odds-unavailable error", betting)
	}
	meta := report["metadata"].(map[string]interface{})
	if meta["data_quality"] != "low" {
		t.Fatalf("data_quality = %v, want low", meta["data_quality"])
	}
}

func TestParseIntentNormalizesRelativeDates(t *testing.T) {
	prev := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, 10, 16, 10, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = prev }()

	llm := scriptedLLM{respond: func(_, _ string) (string, error) {
		return `{"domain": "weather", "params": {"location": "New York", "date": "tomorrow"}, "confidence": 0.95}`, nil
	}}
	a := newTestAgent(t, llm, nil)

	intent := a.ParseIntent(context.Background(), "predict tomorrow's weather in New York")
	if intent.Domain != "weather" {
		t.Fatalf("domain = %q", intent.Domain)
	}
	if intent.Params["date"] != "2025-10-17" {
		t.Fatalf("date = %v, want 2025-10-17", intent.Params["date"])
	}
}

func TestParseIntentUnparseable(t *testing.T) {
	llm := scriptedLLM{respond: func(_, _ string) (string, error) {
		return "no structure here", nil
	}}
	a := newTestAgent(t, llm, nil)

	intent := a.ParseIntent(context.Background(), "asdf")
	if intent.Error == "" || intent.Confidence != 0 {
		t.Fatalf("expected zero-confidence error intent, got %+v", intent)
	}
}

func TestChatCompletesParamsAndRecords(t *testing.T) {
	llm := scriptedLLM{respond: func(system, user string) (string, error) {
		if strings.Contains(user, "extract the prediction intent") || strings.Contains(user, "Analyze the user input") {
			// Intent without a location: completion must fill it in.
			return `{"domain": "weather", "params": {"date": "2025-10-17"}, "confidence": 0.9}`, nil
		}
		return `{"condition": "sunny", "precipitation_prob": 0.1, "confidence": 0.8, "analysis": "clear skies"}`, nil
	}}
	a := newTestAgent(t, llm, stubSearcher{snippet: "weather evidence"})

	// Seed session memory with a prior weather prediction.
	store := a.Registry().Get("chat-1")
	store.AddPrediction("weather", map[string]interface{}{"location": "Beijing"}, nil)

	resp := a.Chat(context.Background(), "chat-1", "what about tomorrow?")
	if resp.Error != "" {
		t.Fatalf("chat failed: %v", resp.Error)
	}
	if resp.Domain != "weather" {
		t.Fatalf("domain = %q", resp.Domain)
	}
	params := resp.Prediction["parameters"].(map[string]interface{})
	if params["location"] != "Beijing" {
		t.Fatalf("location = %v, want Beijing completed from history", params["location"])
	}

	// Conversation and prediction were recorded on the shared store.
	ctx := store.ContextForDomain("weather")
	if len(ctx.History) != 2 {
		t.Fatalf("expected 2 weather records, got %d", len(ctx.History))
	}
	if len(ctx.Conversation) < 2 {
		t.Fatalf("conversation not recorded")
	}
}

func TestChatLowConfidenceAsksClarification(t *testing.T) {
	llm := scriptedLLM{respond: func(_, _ string) (string, error) {
		return `{"domain": "general", "params": {"query": "?"}, "confidence": 0.1}`, nil
	}}
	a := newTestAgent(t, llm, nil)

	resp := a.Chat(context.Background(), "chat-2", "hmm")
	if resp.Prediction != nil {
		t.Fatalf("low-confidence intent must not predict")
	}
	if !strings.Contains(resp.Reply, "rephrase") {
		t.Fatalf("expected clarification reply, got %q", resp.Reply)
	}
}
