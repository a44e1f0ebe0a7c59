// Package manifest loads UI plugins declared as YAML manifests on disk.
//
// Each plugin lives in its own directory under the plugins root and carries
// a ui.yml file:
//
//	plugins/
//	  timelion/
//	    ui.yml
//
// The manifest id must match the directory name. An empty id defaults to it.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"gopkg.in/yaml.v3"
)

const FileName = "ui.yml"

var ErrInvalidManifest = errors.New("invalid ui manifest")

type Manifest struct {
	ID                string                    `yaml:"id"`
	Version           string                    `yaml:"version"`
	Apps              []App                     `yaml:"apps"`
	NavLinks          []NavLink                 `yaml:"navLinks"`
	InjectedDefaults  map[string]any            `yaml:"injectedDefaults"`
	UISettingDefaults map[string]SettingDefault `yaml:"uiSettingDefaults"`
	Bundles           []Bundle                  `yaml:"bundles"`
}

type App struct {
	ID           string         `yaml:"id"`
	Title        string         `yaml:"title"`
	Description  string         `yaml:"description"`
	Main         string         `yaml:"main"`
	Template     string         `yaml:"template"`
	Hidden       bool           `yaml:"hidden"`
	InjectedVars map[string]any `yaml:"injectedVars"`
}

type NavLink struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	URL    string `yaml:"url"`
	Order  int    `yaml:"order"`
	Icon   string `yaml:"icon"`
	Hidden bool   `yaml:"hidden"`
}

type SettingDefault struct {
	Value       any    `yaml:"value"`
	Description string `yaml:"description"`
	ReadOnly    bool   `yaml:"readonly"`
}

type Bundle struct {
	ID       string   `yaml:"id"`
	Modules  []string `yaml:"modules"`
	Template string   `yaml:"template"`
}

// Parse decodes a manifest and checks that every declared item is named.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	for i, a := range m.Apps {
		if a.ID == "" {
			return fmt.Errorf("%w: apps[%d] has no id", ErrInvalidManifest, i)
		}
		if a.Title == "" {
			return fmt.Errorf("%w: app %s has no title", ErrInvalidManifest, a.ID)
		}
	}
	for i, l := range m.NavLinks {
		if l.ID == "" {
			return fmt.Errorf("%w: navLinks[%d] has no id", ErrInvalidManifest, i)
		}
	}
	for i, b := range m.Bundles {
		if b.ID == "" {
			return fmt.Errorf("%w: bundles[%d] has no id", ErrInvalidManifest, i)
		}
	}
	return nil
}

// LoadDir reads every <dir>/*/ui.yml in directory name order. Directories
// without a manifest are skipped. A missing root yields no plugins.
func LoadDir(dir string) ([]domain.Plugin, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Plugins directory does not exist", "plugins_dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var plugins []domain.Plugin
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name(), FileName)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		m, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if m.ID == "" {
			m.ID = e.Name()
		}
		if m.ID != e.Name() {
			return nil, fmt.Errorf("failed to load %s: %w: id %q does not match directory %q", path, ErrInvalidManifest, m.ID, e.Name())
		}

		slog.Info("UI manifest loaded", "plugin_id", m.ID, "apps", len(m.Apps), "bundles", len(m.Bundles))
		plugins = append(plugins, &Plugin{manifest: m})
	}
	return plugins, nil
}

// Plugin contributes the items of one manifest.
type Plugin struct {
	manifest *Manifest
}

var _ domain.Plugin = (*Plugin)(nil)

func NewPlugin(m *Manifest) *Plugin {
	return &Plugin{manifest: m}
}

func (p *Plugin) ID() string { return p.manifest.ID }

func (p *Plugin) Contribute(_ context.Context, c domain.Contributions) error {
	m := p.manifest

	for _, a := range m.Apps {
		if err := c.RegisterApplication(a.application()); err != nil {
			return err
		}
	}

	for _, l := range m.NavLinks {
		link := domain.NavLink{ID: l.ID, Title: l.Title, URL: l.URL, Order: l.Order, Icon: l.Icon, Hidden: l.Hidden}
		if err := c.RegisterNavLink(link); err != nil {
			return err
		}
	}

	if len(m.InjectedDefaults) > 0 {
		if err := c.RegisterDefaultInjectedVars(maps.Clone(m.InjectedDefaults)); err != nil {
			return err
		}
	}

	if len(m.UISettingDefaults) > 0 {
		defaults := make(map[string]domain.UISettingDefault, len(m.UISettingDefaults))
		for key, d := range m.UISettingDefaults {
			defaults[key] = domain.UISettingDefault{Value: d.Value, Description: d.Description, ReadOnly: d.ReadOnly}
		}
		if err := c.RegisterUISettingDefaults(defaults); err != nil {
			return err
		}
	}

	for _, b := range m.Bundles {
		if err := c.RegisterBundleProvider(b.provider()); err != nil {
			return err
		}
	}
	return nil
}

func (a App) application() domain.Application {
	app := domain.Application{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		Main:         a.Main,
		TemplateName: a.Template,
		Hidden:       a.Hidden,
	}
	if len(a.InjectedVars) > 0 {
		vars := maps.Clone(a.InjectedVars)
		app.InjectedVars = func() map[string]any { return maps.Clone(vars) }
	}
	return app
}

func (b Bundle) provider() domain.BundleProviderFunc {
	spec := domain.BundleSpec{ID: b.ID, Modules: b.Modules, Template: b.Template}
	return func(_ context.Context, newBundle domain.BundleFactory, _ domain.BuildEnv, _ []domain.Application, _ []domain.Plugin) (*domain.Bundle, error) {
		return newBundle(spec), nil
	}
}
