package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/platform/logging"
)

var bundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "Print the bundle plan",
	Long:  `Runs the startup sequence without serving and prints the resulting bundle plan as JSON.`,
	Args:  cobra.NoArgs,
	RunE:  runBundles,
}

type bundlesOutput struct {
	CacheKey string          `json:"cache_key"`
	Bundles  []domain.Bundle `json:"bundles"`
}

func runBundles(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	plan, err := buildPlan(cmd.Context(), cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundlesOutput{CacheKey: plan.Env.CacheKey(), Bundles: plan.Bundles.All()}); err != nil {
		return fmt.Errorf("failed to write bundle plan: %w", err)
	}
	return nil
}
