package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SadnessofAtlantis/kibana/internal/bundle"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/uiexports"
)

// BuildOptions are the facts the build context is constructed from.
type BuildOptions struct {
	EnvName      string
	URLBasePath  string
	SourceMaps   bool
	Version      string
	BuildNum     int
	BundleDir    string
	BundleFilter string
	// Templates lists the view templates applications may name. Empty
	// skips the check.
	Templates []string
}

// Plan is the immutable result of startup: the frozen contribution
// registry, the build context and the bundle plan.
type Plan struct {
	Registry *uiexports.Registry
	Env      *bundle.Env
	Bundles  *bundle.Collection
	Plugins  []domain.Plugin
}

// BuildObserver receives startup timings. It may be nil.
type BuildObserver interface {
	ObserveProvider(pluginID string, added bool, d time.Duration)
	ObservePlan(bundles int)
}

// Build runs the startup sequence: build context, plugin contributions,
// one bundle per application, then bundle providers in registration order.
// Providers run one at a time so a later provider can depend on what an
// earlier one produced. Any failure is fatal.
func Build(ctx context.Context, opts BuildOptions, plugins []domain.Plugin, observer BuildObserver) (*Plan, error) {
	env := bundle.NewEnv(opts.BundleDir)
	env.SetEntry(bundle.EntryEnv, opts.EnvName)
	env.SetEntry(bundle.EntryURLBasePath, opts.URLBasePath)
	env.SetEntry(bundle.EntrySourceMaps, opts.SourceMaps)
	env.SetEntry(bundle.EntryVersion, opts.Version)
	env.SetEntry(bundle.EntryBuildNum, opts.BuildNum)

	registry := uiexports.NewRegistry(opts.URLBasePath)
	registry.AddConsumer(env)

	for _, p := range plugins {
		if err := registry.ConsumePlugin(ctx, p); err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Plugin contributions consumed", "plugin", p.ID())
	}

	apps := registry.Apps()
	if err := checkTemplates(apps, opts.Templates); err != nil {
		return nil, err
	}

	bundles, err := bundle.NewCollection(env, opts.BundleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle collection: %w", err)
	}

	for _, a := range apps {
		added, err := bundles.AddApp(a)
		if err != nil {
			return nil, &domain.ConfigurationError{Plugin: a.PluginID, Op: "add_app_bundle", Err: err}
		}
		if !added {
			slog.DebugContext(ctx, "Application bundle excluded by filter", "app", a.ID, "filter", opts.BundleFilter)
		}
	}

	if err := resolveProviders(ctx, registry, env, bundles, plugins, observer); err != nil {
		return nil, err
	}

	registry.Freeze()
	bundles.Freeze()

	if observer != nil {
		observer.ObservePlan(bundles.Len())
	}
	slog.InfoContext(ctx, "UI build plan assembled",
		"plugins", len(plugins),
		"apps", len(apps),
		"bundles", bundles.Len(),
		"cache_key", env.CacheKey(),
	)

	return &Plan{
		Registry: registry,
		Env:      env,
		Bundles:  bundles,
		Plugins:  registry.Plugins(),
	}, nil
}

func checkTemplates(apps []domain.Application, templates []string) error {
	if len(templates) == 0 {
		return nil
	}
	for _, a := range apps {
		if !slices.Contains(templates, a.TemplateName) {
			return &domain.ConfigurationError{
				Plugin: a.PluginID,
				Op:     "register_application",
				Err:    fmt.Errorf("%w: app %q names %q", domain.ErrUnknownTemplate, a.ID, a.TemplateName),
			}
		}
	}
	return nil
}

func resolveProviders(ctx context.Context, registry *uiexports.Registry, env *bundle.Env, bundles *bundle.Collection, plugins []domain.Plugin, observer BuildObserver) error {
	newBundle := bundle.Factory(env)

	for _, provider := range registry.BundleProviders() {
		start := time.Now()

		b, err := provider.Factory(ctx, newBundle, env, registry.Apps(), plugins)
		if err != nil {
			return &domain.ConfigurationError{Plugin: provider.PluginID, Op: "bundle_provider", Err: err}
		}

		added := false
		if b != nil {
			added, err = bundles.Add(b)
			if err != nil {
				return &domain.ConfigurationError{Plugin: provider.PluginID, Op: "bundle_provider", Err: err}
			}
		}

		if observer != nil {
			observer.ObserveProvider(provider.PluginID, added, time.Since(start))
		}
	}

	return nil
}
