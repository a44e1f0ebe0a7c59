// Package core is the built-in plugin that contributes the main kibana
// application, the status page application, the core navigation links,
// default injected vars and UI-setting defaults, plus the shared commons
// bundle.
package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
)

const (
	PluginID      = "kibana"
	CommonsBundle = "commons"
)

type Options struct {
	KibanaIndex    string
	DefaultAppID   string
	ShardTimeoutMS int
	BuildNum       int
}

type Plugin struct {
	opts Options
}

var _ domain.Plugin = (*Plugin)(nil)

func New(opts Options) *Plugin {
	if opts.KibanaIndex == "" {
		opts.KibanaIndex = ".kibana"
	}
	if opts.DefaultAppID == "" {
		opts.DefaultAppID = "discover"
	}
	return &Plugin{opts: opts}
}

func (p *Plugin) ID() string { return PluginID }

func (p *Plugin) Contribute(_ context.Context, c domain.Contributions) error {
	for _, a := range p.applications() {
		if err := c.RegisterApplication(a); err != nil {
			return fmt.Errorf("failed to register app %s: %w", a.ID, err)
		}
	}

	for _, link := range navLinks {
		if err := c.RegisterNavLink(link); err != nil {
			return fmt.Errorf("failed to register nav link %s: %w", link.ID, err)
		}
	}

	if err := c.RegisterDefaultInjectedVars(map[string]any{
		"kbnIndex":       p.opts.KibanaIndex,
		"esShardTimeout": p.opts.ShardTimeoutMS,
	}); err != nil {
		return fmt.Errorf("failed to register default injected vars: %w", err)
	}

	if err := c.RegisterUISettingDefaults(p.settingDefaults()); err != nil {
		return fmt.Errorf("failed to register ui setting defaults: %w", err)
	}

	if err := c.RegisterBundleProvider(CommonsProvider); err != nil {
		return fmt.Errorf("failed to register commons bundle provider: %w", err)
	}
	return nil
}

func (p *Plugin) applications() []domain.Application {
	defaultAppID := p.opts.DefaultAppID
	return []domain.Application{
		{
			ID:          "kibana",
			Title:       "Kibana",
			Description: "the kibana you know and love",
			Main:        "plugins/kibana/kibana",
			InjectedVars: func() map[string]any {
				return map[string]any{"defaultAppId": defaultAppID}
			},
		},
		{
			ID:     "status_page",
			Title:  "Server Status",
			Main:   "plugins/kibana/status_page",
			Hidden: true,
		},
	}
}

var navLinks = []domain.NavLink{
	{ID: "kibana:discover", Title: "Discover", Order: -1003, URL: "/app/kibana#/discover", Icon: "plugins/kibana/assets/discover.svg"},
	{ID: "kibana:visualize", Title: "Visualize", Order: -1002, URL: "/app/kibana#/visualize", Icon: "plugins/kibana/assets/visualize.svg"},
	{ID: "kibana:dashboard", Title: "Dashboard", Order: -1001, URL: "/app/kibana#/dashboards", Icon: "plugins/kibana/assets/dashboard.svg"},
	{ID: "kibana:dev_tools", Title: "Dev Tools", Order: 9001, URL: "/app/kibana#/dev_tools", Icon: "plugins/kibana/assets/wrench.svg"},
	{ID: "kibana:management", Title: "Management", Order: 9003, URL: "/app/kibana#/management", Icon: "plugins/kibana/assets/settings.svg"},
}

func (p *Plugin) settingDefaults() map[string]domain.UISettingDefault {
	return map[string]domain.UISettingDefault{
		"buildNum": {
			Value:    p.opts.BuildNum,
			ReadOnly: true,
		},
		"dateFormat": {
			Value:       "MMMM Do YYYY, HH:mm:ss.SSS",
			Description: "When displaying a pretty formatted date, use this format",
		},
		"dateFormat:tz": {
			Value:       "Browser",
			Description: "Which timezone should be used",
		},
		"defaultIndex": {
			Value:       nil,
			Description: "The index to access if no index is set",
		},
		"discover:sampleSize": {
			Value:       500,
			Description: "The number of rows to show in the table",
		},
		"timepicker:timeDefaults": {
			Value:       map[string]any{"from": "now-15m", "to": "now", "mode": "quick"},
			Description: "The timefilter selection to use when Kibana is started without one",
		},
	}
}

// CommonsProvider contributes a bundle with the entry modules of every
// application, in application order and without duplicates. It adds
// nothing when no application declares an entry module.
func CommonsProvider(_ context.Context, newBundle domain.BundleFactory, _ domain.BuildEnv, apps []domain.Application, _ []domain.Plugin) (*domain.Bundle, error) {
	seen := make(map[string]struct{}, len(apps))
	var modules []string
	for _, a := range apps {
		if a.Main == "" {
			continue
		}
		if _, dup := seen[a.Main]; dup {
			continue
		}
		seen[a.Main] = struct{}{}
		modules = append(modules, a.Main)
	}
	if len(modules) == 0 {
		return nil, nil
	}

	return newBundle(domain.BundleSpec{
		ID:      CommonsBundle,
		Modules: slices.Clip(modules),
	}), nil
}
