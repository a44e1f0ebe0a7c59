package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
)

var rootCmd = &cobra.Command{
	Use:   "kibana",
	Short: "UI build plan orchestrator",
	Long: `Assembles the UI build plan from the registered plugins and serves
applications, rendering each one in full, with default settings only, or as
the status page depending on live health.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, bundlesCmd, invalidateCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
