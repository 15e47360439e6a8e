package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgcnb666/Predictive-AI-agent/config"
)

func sessionsCMD() *cobra.Command {
	var cfgPath string
	var sessions = &cobra.Command{
		Use:   "sessions",
		Short: "Manage persisted sessions",
	}
	sessions.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")

	var list = &cobra.Command{
		Use:   "list",
		Short: "List saved session IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			repo, err := connectSessionRepo(ctx, cfg)
			if err != nil {
				return err
			}
			ids, err := repo.List(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	var remove = &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			repo, err := connectSessionRepo(ctx, cfg)
			if err != nil {
				return err
			}
			return repo.Delete(ctx, args[0])
		},
	}

	sessions.AddCommand(list, remove)
	return sessions
}
