package domain

import "context"

// Plugin contributes UI exports to a Contributions sink during startup.
type Plugin interface {
	ID() string
	Contribute(ctx context.Context, c Contributions) error
}

// Contributions is the write surface of the contribution registry as seen
// by a single plugin.
type Contributions interface {
	RegisterApplication(app Application) error
	RegisterNavLink(link NavLink) error
	RegisterDefaultInjectedVars(vars map[string]any) error
	RegisterBundleProvider(factory BundleProviderFunc) error
	RegisterUISettingDefaults(defaults map[string]UISettingDefault) error
}

// BundleProviderFunc produces an additional bundle at startup. Returning a
// nil bundle and a nil error means the provider has nothing to add.
type BundleProviderFunc func(ctx context.Context, newBundle BundleFactory, env BuildEnv, apps []Application, plugins []Plugin) (*Bundle, error)

// BundleProvider is a registered provider together with its owning plugin.
type BundleProvider struct {
	PluginID string
	Factory  BundleProviderFunc
}
