package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgcnb666/Predictive-AI-agent/config"
	"github.com/mgcnb666/Predictive-AI-agent/internal/agent"
	"github.com/mgcnb666/Predictive-AI-agent/internal/domain"
	"github.com/mgcnb666/Predictive-AI-agent/internal/engine"
)

func predictCMD() *cobra.Command {
	var cfgPath string
	var domainName string
	var rawParams map[string]string
	var noSearch bool
	var predict = &cobra.Command{
		Use:   "predict",
		Short: "Run a one-shot prediction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ag, err := buildAgent(cfg, false)
			if err != nil {
				return err
			}

			params := domain.Params{}
			for k, v := range rawParams {
				params[k] = v
			}
			result, err := ag.Predict(cmd.Context(), domainName, params, !noSearch)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	predict.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	predict.Flags().StringVarP(&domainName, "domain", "d", "general", "prediction domain (sports/weather/election/general)")
	predict.Flags().StringToStringVarP(&rawParams, "param", "p", nil, "domain parameter, key=value (repeatable)")
	predict.Flags().BoolVar(&noSearch, "no-search", false, "skip evidence search, answer from model knowledge")

	return predict
}

func analyzeCMD() *cobra.Command {
	var cfgPath string
	var team1, team2, league, date string
	var oddsHome, oddsDraw, oddsAway float64
	var analyze = &cobra.Command{
		Use:   "analyze",
		Short: "Run a full match analysis with EV and bet sizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if team1 == "" || team2 == "" {
				return fmt.Errorf("--team1 and --team2 are required")
			}
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ag, err := buildAgent(cfg, false)
			if err != nil {
				return err
			}

			req := agent.MatchRequest{Team1: team1, Team2: team2, League: league, Date: date}
			if oddsHome > 0 && oddsDraw > 0 && oddsAway > 0 {
				req.MarketOdds = &engine.MarketOdds{Home: oddsHome, Draw: oddsDraw, Away: oddsAway}
			}
			return printJSON(ag.AnalyzeMatch(cmd.Context(), req))
		},
	}
	analyze.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	analyze.Flags().StringVar(&team1, "team1", "", "home team")
	analyze.Flags().StringVar(&team2, "team2", "", "away team")
	analyze.Flags().StringVar(&league, "league", "", "league or competition")
	analyze.Flags().StringVar(&date, "date", "", "match date")
	analyze.Flags().Float64Var(&oddsHome, "odds-home", 0, "decimal home odds (extracted from evidence when omitted)")
	analyze.Flags().Float64Var(&oddsDraw, "odds-draw", 0, "decimal draw odds")
	analyze.Flags().Float64Var(&oddsAway, "odds-away", 0, "decimal away odds")

	return analyze
}

func chatCMD() *cobra.Command {
	var cfgPath string
	var sessionID string
	var chat = &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one conversational message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ag, err := buildAgent(cfg, false)
			if err != nil {
				return err
			}
			return printJSON(ag.Chat(cmd.Context(), sessionID, args[0]))
		},
	}
	chat.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	chat.Flags().StringVarP(&sessionID, "session", "s", "", "session ID (generated when empty)")

	return chat
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
