package main

import (
	"context"
	"fmt"

	"github.com/mgcnb666/Predictive-AI-agent/config"
	"github.com/mgcnb666/Predictive-AI-agent/internal/agent"
	"github.com/mgcnb666/Predictive-AI-agent/internal/contextstore"
	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
	"github.com/mgcnb666/Predictive-AI-agent/internal/features"
	"github.com/mgcnb666/Predictive-AI-agent/internal/telemetry"
	"github.com/mgcnb666/Predictive-AI-agent/provider"
	"github.com/mgcnb666/Predictive-AI-agent/repository"
	"github.com/mgcnb666/Predictive-AI-agent/repository/redisrepo"
	"github.com/mgcnb666/Predictive-AI-agent/tools/websearch"
)

// buildAgent assembles the full prediction pipeline from configuration.
// Metrics are registered only for the serving path so one-shot CLI runs
// stay quiet.
func buildAgent(cfg *config.Config, withMetrics bool) (*agent.UniversalAgent, error) {
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	var searcher websearch.Searcher
	if cfg.Search.APIKey != "" {
		searcher, err = websearch.NewSearcher(websearch.Provider(cfg.Search.Provider), cfg.Search.APIKey)
		if err != nil {
			return nil, err
		}
	}

	risk, err := engine.NewRiskManager(engine.RiskOptions{
		InitialBankroll: cfg.Risk.InitialBankroll,
		MaxRiskPerBet:   cfg.Risk.MaxRiskPerBet,
		MaxDailyLoss:    cfg.Risk.MaxDailyLoss,
		ResetSchedule:   cfg.Risk.ResetSchedule,
	}, telemetry.NewLogger("RISK"))
	if err != nil {
		return nil, fmt.Errorf("building risk manager: %w", err)
	}

	eng := engine.New(llm, telemetry.NewLogger("ENGINE"), engine.Options{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		KellyFraction:       cfg.Engine.KellyFraction,
		MaxBetPercentage:    cfg.Engine.MaxBetPercentage,
		LLMWeight:           cfg.Engine.LLMWeight,
		StatWeight:          cfg.Engine.StatWeight,
	})

	var metrics *telemetry.Metrics
	if withMetrics && cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics(nil)
	}

	return agent.New(
		llm,
		searcher,
		features.NewExtractor(llm, telemetry.NewLogger("FEATURES")),
		eng,
		risk,
		contextstore.NewRegistry(),
		telemetry.NewLogger("AGENT"),
		metrics,
		agent.Options{
			SearchMaxResults:  cfg.Search.MaxResults,
			SearchConcurrency: cfg.Search.MaxConcurrency,
		},
	), nil
}

// connectSessionRepo connects the Redis snapshot store. A connection
// failure is reported to the caller, who decides whether persistence
// is required.
func connectSessionRepo(ctx context.Context, cfg *config.Config) (repository.SessionRepository, error) {
	client, err := redisrepo.NewClient(ctx, cfg.Storage.Redis)
	if err != nil {
		return nil, err
	}
	return redisrepo.NewSessionRepository(client), nil
}
