package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SadnessofAtlantis/kibana/internal/adapter/redis"
	"github.com/SadnessofAtlantis/kibana/internal/platform/logging"
	"github.com/SadnessofAtlantis/kibana/internal/platform/version"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate-settings [version]",
	Short: "Tell running servers to drop cached user settings",
	Long: `Publishes a settings invalidation for the given version, or for the
version of this binary when none is given. Requires REDIS_URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvalidate,
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.RedisURL == "" {
		return errors.New("REDIS_URL is required to publish invalidations")
	}

	target := version.Version
	if len(args) == 1 {
		target = args[0]
	}

	client, err := redis.NewClient(cmd.Context(), cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := redis.PublishSettingsInvalidation(cmd.Context(), client, target); err != nil {
		return err
	}
	slog.Info("Settings invalidation published", "version", target)
	return nil
}
