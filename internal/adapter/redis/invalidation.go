package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// InvalidationChannel carries the version whose user-provided settings
// changed. Writers of the settings table publish on it.
const InvalidationChannel = "ui_settings:invalidate"

type settingsInvalidator interface {
	Invalidate(ctx context.Context, version string) error
}

// SettingsInvalidator subscribes to invalidation messages and evicts the
// local settings cache when another process changes the settings.
type SettingsInvalidator struct {
	rdb   *goredis.Client
	cache settingsInvalidator
}

func NewSettingsInvalidator(rdb *goredis.Client, cache settingsInvalidator) *SettingsInvalidator {
	return &SettingsInvalidator{rdb: rdb, cache: cache}
}

// Start listens for invalidation messages. Blocks until ctx is cancelled.
func (s *SettingsInvalidator) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, InvalidationChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleInvalidation(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SettingsInvalidator) handleInvalidation(ctx context.Context, payload string) {
	version := strings.TrimSpace(payload)
	if version == "" {
		slog.Warn("Empty version in settings invalidation message")
		return
	}

	if err := s.cache.Invalidate(ctx, version); err != nil {
		slog.Warn("Failed to invalidate settings cache", "version", version, "error", err)
		return
	}
	slog.Debug("Settings cache invalidated via pub/sub", "version", version)
}

// PublishSettingsInvalidation tells every instance to drop its cached
// settings for version.
func PublishSettingsInvalidation(ctx context.Context, rdb goredis.Cmdable, version string) error {
	if err := rdb.Publish(ctx, InvalidationChannel, version).Err(); err != nil {
		return fmt.Errorf("failed to publish settings invalidation: %w", err)
	}
	return nil
}
