package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgcnb666/Predictive-AI-agent/config"
	"github.com/mgcnb666/Predictive-AI-agent/internal/server"
	"github.com/mgcnb666/Predictive-AI-agent/internal/telemetry"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			logger := telemetry.NewLogger("SERVER")

			ag, err := buildAgent(cfg, true)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			repo, err := connectSessionRepo(ctx, cfg)
			cancel()
			if err != nil {
				// The API works without persistence; save/load report
				// the layer as unavailable.
				logger.Printf("redis unavailable, session persistence disabled: %v", err)
				repo = nil
			}

			return server.New(ag, repo, cfg, logger).Start()
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")

	return serve
}
