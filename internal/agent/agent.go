// Package agent binds the domain contract, evidence collection, the
// prediction engine and the context store into one request/response
// cycle.
package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgcnb666/Predictive-AI-agent/internal/contextstore"
	"github.com/mgcnb666/Predictive-AI-agent/internal/domain"
	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
	"github.com/mgcnb666/Predictive-AI-agent/internal/features"
	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
	"github.com/mgcnb666/Predictive-AI-agent/internal/telemetry"
	"github.com/mgcnb666/Predictive-AI-agent/tools/websearch"
)

// Completer is the LLM dependency of the agent.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures a UniversalAgent.
type Options struct {
	// SearchMaxResults caps hits per query.
	SearchMaxResults int
	// SearchConcurrency bounds the per-prediction query fan-out.
	SearchConcurrency int
}

// UniversalAgent serves predictions across every supported domain.
// The searcher may be nil, in which case evidence comes from the
// model's own knowledge per query.
type UniversalAgent struct {
	llm      Completer
	searcher websearch.Searcher

	extractor *features.Extractor
	engine    *engine.Engine
	risk      *engine.RiskManager
	registry  *contextstore.Registry

	logger  *log.Logger
	metrics *telemetry.Metrics

	searchMaxResults  int
	searchConcurrency int
}

// New builds a UniversalAgent.
func New(
	llm Completer,
	searcher websearch.Searcher,
	extractor *features.Extractor,
	eng *engine.Engine,
	risk *engine.RiskManager,
	registry *contextstore.Registry,
	logger *log.Logger,
	metrics *telemetry.Metrics,
	opts Options,
) *UniversalAgent {
	if logger == nil {
		logger = telemetry.NewLogger("AGENT")
	}
	if opts.SearchMaxResults <= 0 {
		opts.SearchMaxResults = 10
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = 4
	}
	return &UniversalAgent{
		llm:               llm,
		searcher:          searcher,
		extractor:         extractor,
		engine:            eng,
		risk:              risk,
		registry:          registry,
		logger:            logger,
		metrics:           metrics,
		searchMaxResults:  opts.SearchMaxResults,
		searchConcurrency: opts.SearchConcurrency,
	}
}

// Registry exposes the session registry for the serving layer.
func (a *UniversalAgent) Registry() *contextstore.Registry { return a.registry }

// RiskManager exposes the bankroll state for status reporting.
func (a *UniversalAgent) RiskManager() *engine.RiskManager { return a.risk }

// Predict runs one prediction cycle: evidence collection, model
// assembly, and domain normalization. An unknown domain is the one
// hard error; everything downstream degrades instead of failing.
func (a *UniversalAgent) Predict(ctx context.Context, domainName string, params domain.Params, useSearch bool) (domain.Result, error) {
	return a.predict(ctx, nil, domainName, params, useSearch)
}

// PredictForSession is Predict plus session bookkeeping: collected
// evidence feeds the session index and the outcome is recorded to the
// domain history.
func (a *UniversalAgent) PredictForSession(ctx context.Context, store *contextstore.Store, domainName string, params domain.Params, useSearch bool) (domain.Result, error) {
	return a.predict(ctx, store, domainName, params, useSearch)
}

func (a *UniversalAgent) predict(ctx context.Context, store *contextstore.Store, domainName string, params domain.Params, useSearch bool) (domain.Result, error) {
	d, err := domain.Lookup(domainName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a.logger.Printf("starting %s prediction, params: %v", domainName, params)

	var evidence map[string]string
	if useSearch {
		evidence = a.collectEvidence(ctx, d, params)
	}
	if store != nil {
		for query, text := range evidence {
			if err := store.AddEvidence(query, text); err != nil {
				a.logger.Printf("indexing evidence failed: %v", err)
			}
		}
	}

	raw := a.generatePrediction(ctx, d, evidence, params)
	result := d.Normalize(raw)
	result["timestamp"] = time.Now().Format(time.RFC3339)
	result["parameters"] = map[string]interface{}(params)

	if store != nil {
		store.AddPrediction(domainName, params, result)
	}

	if a.metrics != nil {
		a.metrics.PredictionsTotal.WithLabelValues(domainName, "ok").Inc()
		a.metrics.PredictionSeconds.WithLabelValues(domainName).Observe(time.Since(start).Seconds())
	}
	a.logger.Printf("%s prediction done in %s", domainName, time.Since(start))
	return result, nil
}

// collectEvidence fans the domain's queries out over the searcher
// with bounded concurrency. A failed query contributes an error
// string as its value rather than failing the collection; downstream
// consumers treat every value as possibly being such a sentinel.
func (a *UniversalAgent) collectEvidence(ctx context.Context, d domain.Domain, params domain.Params) map[string]string {
	queries := d.BuildQueries(params)
	a.logger.Printf("collecting evidence for %d queries", len(queries))

	results := make(map[string]string, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.searchConcurrency)
	for _, query := range queries {
		query := query
		g.Go(func() error {
			text := a.runQuery(gctx, query)
			mu.Lock()
			results[query] = text
			mu.Unlock()
			return nil
		})
	}
	g.Wait() // workers never return errors; failures live in the values

	return results
}

func (a *UniversalAgent) runQuery(ctx context.Context, query string) string {
	if a.searcher == nil {
		// No search backend: answer from model knowledge, which may
		// be stale. Still better than no evidence at all.
		reply, err := a.llm.Complete(ctx, "", "Provide the latest information and data about: "+query)
		if err != nil {
			a.countSearch("error")
			return fmt.Sprintf("query failed: %v", err)
		}
		a.countSearch("llm_fallback")
		return reply
	}

	hits, err := a.searcher.Search(ctx, query, a.searchMaxResults)
	if err != nil {
		a.logger.Printf("search failed for %q: %v", query, err)
		a.countSearch("error")
		return fmt.Sprintf("search failed: %v", err)
	}
	a.countSearch("ok")
	return websearch.FormatResults(hits)
}

func (a *UniversalAgent) countSearch(status string) {
	if a.metrics != nil {
		a.metrics.SearchCallsTotal.WithLabelValues(status).Inc()
	}
}

// generatePrediction assembles the domain prompt over the collected
// evidence and leniently parses the reply. A reply without JSON
// becomes a low-confidence raw prediction carrying the reply as its
// analysis; an LLM failure becomes a zero-confidence error record.
func (a *UniversalAgent) generatePrediction(ctx context.Context, d domain.Domain, evidence map[string]string, params domain.Params) map[string]interface{} {
	prompt := d.BuildPrompt(formatEvidence(evidence), params)

	reply, err := a.llm.Complete(ctx, d.SystemPrompt(), prompt)
	if err != nil {
		a.logger.Printf("prediction generation failed: %v", err)
		if a.metrics != nil {
			a.metrics.LLMCallsTotal.WithLabelValues("error").Inc()
		}
		return map[string]interface{}{"error": err.Error(), "confidence": 0.0}
	}
	if a.metrics != nil {
		a.metrics.LLMCallsTotal.WithLabelValues("ok").Inc()
	}

	raw, err := llmjson.Extract(reply)
	if err != nil {
		a.logger.Printf("reply carried no parseable JSON, keeping it as analysis")
		return map[string]interface{}{"analysis": reply, "confidence": 0.5}
	}
	return raw
}

// formatEvidence renders the query→snippet map deterministically,
// sorted by query, for prompt embedding.
func formatEvidence(evidence map[string]string) string {
	if len(evidence) == 0 {
		return "no search data available"
	}
	queries := make([]string, 0, len(evidence))
	for q := range evidence {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	var out string
	for _, q := range queries {
		out += "### " + q + "\n" + evidence[q] + "\n\n"
	}
	return out
}
