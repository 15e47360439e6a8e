// Package server exposes the prediction agent over HTTP.
package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/mgcnb666/Predictive-AI-agent/config"
	"github.com/mgcnb666/Predictive-AI-agent/internal/agent"
	"github.com/mgcnb666/Predictive-AI-agent/internal/domain"
	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
	"github.com/mgcnb666/Predictive-AI-agent/internal/telemetry"
	"github.com/mgcnb666/Predictive-AI-agent/repository"
)

// Server wires the agent and the session repository into HTTP routes.
// The repository may be nil, in which case the save/load endpoints
// report the persistence layer as unavailable.
type Server struct {
	agent  *agent.UniversalAgent
	repo   repository.SessionRepository
	cfg    *config.Config
	logger *log.Logger
}

func New(ag *agent.UniversalAgent, repo repository.SessionRepository, cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = telemetry.NewLogger("SERVER")
	}
	return &Server{agent: ag, repo: repo, cfg: cfg, logger: logger}
}

// Echo builds the configured echo instance without starting it, so
// tests can drive handlers directly.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", s.healthz)
	if s.cfg == nil || s.cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.POST("/predict", s.predict)
	api.POST("/chat", s.chat)
	api.POST("/analyze", s.analyze)
	api.POST("/analyze/batch", s.analyzeBatch)
	api.GET("/status", s.status)
	api.POST("/bankroll/update", s.updateBankroll)

	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id", s.sessionSummary)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.POST("/sessions/:id/save", s.saveSession)
	api.POST("/sessions/:id/load", s.loadSession)
	api.GET("/sessions/:id/evidence", s.searchEvidence)

	return e
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	e := s.Echo()
	addr := ":8000"
	if s.cfg != nil && s.cfg.Server.Address != "" {
		addr = s.cfg.Server.Address
	}
	s.logger.Printf("listening on %s", addr)
	return e.Start(addr)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type predictRequest struct {
	Domain    string                 `json:"domain"`
	Params    map[string]interface{} `json:"params"`
	UseSearch *bool                  `json:"use_search,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

func (s *Server) predict(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request", "details": err.Error()})
	}
	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}
	useSearch := true
	if req.UseSearch != nil {
		useSearch = *req.UseSearch
	}

	var result domain.Result
	var err error
	if req.SessionID != "" {
		store := s.agent.Registry().Get(req.SessionID)
		result, err = s.agent.PredictForSession(c.Request().Context(), store, req.Domain, req.Params, useSearch)
	} else {
		result, err = s.agent.Predict(c.Request().Context(), req.Domain, req.Params, useSearch)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUnknownDomain) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "prediction failed", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request", "details": err.Error()})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message required"})
	}
	resp := s.agent.Chat(c.Request().Context(), req.SessionID, req.Message)
	return c.JSON(http.StatusOK, resp)
}

type analyzeRequest struct {
	Team1  string   `json:"team1"`
	Team2  string   `json:"team2"`
	League string   `json:"league"`
	Date   string   `json:"date,omitempty"`
	Odds   *oddsDoc `json:"odds,omitempty"`
}

type oddsDoc struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

func (r analyzeRequest) toMatchRequest() agent.MatchRequest {
	req := agent.MatchRequest{Team1: r.Team1, Team2: r.Team2, League: r.League, Date: r.Date}
	if r.Odds != nil {
		req.MarketOdds = &engine.MarketOdds{Home: r.Odds.Home, Draw: r.Odds.Draw, Away: r.Odds.Away}
	}
	return req
}

func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request", "details": err.Error()})
	}
	if req.Team1 == "" || req.Team2 == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "team1 and team2 required"})
	}
	report := s.agent.AnalyzeMatch(c.Request().Context(), req.toMatchRequest())
	return c.JSON(http.StatusOK, report)
}

type batchAnalyzeRequest struct {
	Matches []analyzeRequest `json:"matches"`
}

func (s *Server) analyzeBatch(c echo.Context) error {
	var req batchAnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request", "details": err.Error()})
	}
	if len(req.Matches) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "matches required"})
	}
	reqs := make([]agent.MatchRequest, 0, len(req.Matches))
	for _, m := range req.Matches {
		if m.Team1 == "" || m.Team2 == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "every match needs team1 and team2"})
		}
		reqs = append(reqs, m.toMatchRequest())
	}
	return c.JSON(http.StatusOK, s.agent.BatchAnalyze(c.Request().Context(), reqs))
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.agent.Status())
}

type bankrollUpdateRequest struct {
	PnL float64 `json:"pnl"`
}

func (s *Server) updateBankroll(c echo.Context) error {
	var req bankrollUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request", "details": err.Error()})
	}
	s.agent.RiskManager().UpdateBankroll(decimal.NewFromFloat(req.PnL))
	return c.JSON(http.StatusOK, s.agent.Status())
}

func (s *Server) listSessions(c echo.Context) error {
	active := s.agent.Registry().Sessions()
	resp := map[string]interface{}{"active": active}
	if s.repo != nil {
		saved, err := s.repo.List(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "listing saved sessions", "details": err.Error()})
		}
		resp["saved"] = saved
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) sessionSummary(c echo.Context) error {
	id := c.Param("id")
	if !s.agent.Registry().Has(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, s.agent.Registry().Get(id).Summarize())
}

func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	s.agent.Registry().Remove(id)
	if s.repo != nil {
		if err := s.repo.Delete(c.Request().Context(), id); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "deleting saved session", "details": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) saveSession(c echo.Context) error {
	if s.repo == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session persistence disabled"})
	}
	id := c.Param("id")
	if !s.agent.Registry().Has(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	snapshot, err := s.agent.Registry().Get(id).Snapshot()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "serializing session", "details": err.Error()})
	}
	if err := s.repo.Save(c.Request().Context(), id, snapshot); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "saving session", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) loadSession(c echo.Context) error {
	if s.repo == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session persistence disabled"})
	}
	id := c.Param("id")
	snapshot, err := s.repo.Load(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "loading session", "details": err.Error()})
	}
	store := s.agent.Registry().Get(id)
	if err := store.Restore(snapshot); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "restoring session", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, store.Summarize())
}

func (s *Server) searchEvidence(c echo.Context) error {
	id := c.Param("id")
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q required"})
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}
	if !s.agent.Registry().Has(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	hits, err := s.agent.Registry().Get(id).SearchEvidence(query, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "searching evidence", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"query": query, "hits": hits})
}
