// Package settings serves UI settings: process-wide defaults contributed by
// plugins and user-provided overrides read from the settings repository.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service implements domain.UISettingsStore. Defaults are fixed at
// construction; user-provided values are fetched on every call, with
// concurrent fetches for the same version collapsed into one.
type Service struct {
	defaults map[string]domain.UISettingDefault
	repo     domain.UserSettingsRepository
	version  string
	group    singleflight.Group
}

var _ domain.UISettingsStore = (*Service)(nil)

func NewService(defaults map[string]domain.UISettingDefault, repo domain.UserSettingsRepository, version string) *Service {
	return &Service{
		defaults: maps.Clone(defaults),
		repo:     repo,
		version:  version,
	}
}

func (s *Service) GetDefaults(_ context.Context) (map[string]domain.UISettingDefault, error) {
	return maps.Clone(s.defaults), nil
}

// GetUserProvided returns user overrides for the running product version.
// Overrides of read-only settings are dropped.
func (s *Service) GetUserProvided(ctx context.Context) (map[string]any, error) {
	// Detached: waiters share the flight started by the first caller.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.version, func() (any, error) {
		return s.repo.GetUserProvided(flightCtx, s.version)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user-provided settings: %w", err)
	}

	stored, _ := v.(map[string]any)
	user := make(map[string]any, len(stored))
	for key, value := range stored {
		if def, ok := s.defaults[key]; ok && def.ReadOnly {
			slog.DebugContext(ctx, "Ignoring user value for read-only setting", "key", key)
			continue
		}
		user[key] = value
	}
	return user, nil
}
