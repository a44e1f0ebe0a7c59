package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
)

func TestBuildPlan_CoreAndManifestPlugins(t *testing.T) {
	plugins := t.TempDir()
	dir := filepath.Join(plugins, "timelion")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui.yml"), []byte(`
apps:
  - id: timelion
    title: Timelion
    main: plugins/timelion/app
bundles:
  - id: timelion_vis
    modules: [plugins/timelion/vis]
`), 0o644))

	cfg := &config.Config{AppEnv: "production", BundleDir: t.TempDir(), BundleFilter: "*", PluginsDir: plugins}

	plan, err := buildPlan(context.Background(), cfg, nil)

	require.NoError(t, err)
	assert.True(t, plan.Registry.Frozen())

	var ids []string
	for _, b := range plan.Bundles.All() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"kibana", "status_page", "timelion", "commons", "timelion_vis"}, ids)
}

func TestBuildPlan_FilterExcludesApps(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", BundleDir: t.TempDir(), BundleFilter: "kibana,commons"}

	plan, err := buildPlan(context.Background(), cfg, nil)

	require.NoError(t, err)
	_, ok := plan.Bundles.Get("status_page")
	assert.False(t, ok)
	_, ok = plan.Bundles.Get("kibana")
	assert.True(t, ok)
	_, ok = plan.Bundles.Get("commons")
	assert.True(t, ok)
}

func TestBuildPlan_InvalidManifestAbortsStartup(t *testing.T) {
	plugins := t.TempDir()
	dir := filepath.Join(plugins, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui.yml"), []byte("apps:\n  - title: X\n"), 0o644))

	cfg := &config.Config{BundleDir: t.TempDir(), BundleFilter: "*", PluginsDir: plugins}

	_, err := buildPlan(context.Background(), cfg, nil)

	assert.Error(t, err)
}

func TestBuildPlan_NavLinksUnderBasePath(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", ServerBasePath: "/kbn", BundleDir: t.TempDir(), BundleFilter: "*"}

	plan, err := buildPlan(context.Background(), cfg, nil)

	require.NoError(t, err)
	for _, link := range plan.Registry.NavLinksInOrder() {
		assert.True(t, strings.HasPrefix(link.URL, "/kbn/app/kibana#/"), link.URL)
	}
}

func TestBuildPlan_UnknownTemplateAbortsStartup(t *testing.T) {
	for _, tmpl := range []string{"timelion.html", "status.html"} {
		t.Run(tmpl, func(t *testing.T) {
			plugins := t.TempDir()
			dir := filepath.Join(plugins, "timelion")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			body := "apps:\n  - id: timelion\n    title: Timelion\n    template: " + tmpl + "\n"
			require.NoError(t, os.WriteFile(filepath.Join(dir, "ui.yml"), []byte(body), 0o644))

			cfg := &config.Config{BundleDir: t.TempDir(), BundleFilter: "*", PluginsDir: plugins}

			plan, err := buildPlan(context.Background(), cfg, nil)

			assert.Nil(t, plan)
			assert.ErrorIs(t, err, domain.ErrUnknownTemplate)
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "timelion", cfgErr.Plugin)
		})
	}
}
