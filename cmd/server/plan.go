package main

import (
	"context"
	"fmt"

	"github.com/SadnessofAtlantis/kibana/internal/adapter/httpserver"
	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
	"github.com/SadnessofAtlantis/kibana/internal/platform/version"
	"github.com/SadnessofAtlantis/kibana/internal/plugins/core"
	"github.com/SadnessofAtlantis/kibana/internal/plugins/manifest"
)

const esShardTimeoutMS = 30000

// loadPlugins returns the built-in plugin followed by the manifest plugins
// found in PLUGINS_DIR.
func loadPlugins(cfg *config.Config) ([]domain.Plugin, error) {
	plugins := []domain.Plugin{
		core.New(core.Options{
			ShardTimeoutMS: esShardTimeoutMS,
			BuildNum:       version.Get().BuildNum,
		}),
	}

	external, err := manifest.LoadDir(cfg.PluginsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin manifests: %w", err)
	}
	return append(plugins, external...), nil
}

func buildPlan(ctx context.Context, cfg *config.Config, observer app.BuildObserver) (*app.Plan, error) {
	plugins, err := loadPlugins(cfg)
	if err != nil {
		return nil, err
	}

	templates, err := httpserver.AppTemplates()
	if err != nil {
		return nil, err
	}

	opts := app.BuildOptions{
		EnvName:      cfg.AppEnv,
		URLBasePath:  cfg.ServerBasePath,
		SourceMaps:   cfg.SourceMaps,
		Version:      version.Version,
		BuildNum:     version.Get().BuildNum,
		BundleDir:    cfg.BundleDir,
		BundleFilter: cfg.BundleFilter,
		Templates:    templates,
	}
	return app.Build(ctx, opts, plugins, observer)
}
