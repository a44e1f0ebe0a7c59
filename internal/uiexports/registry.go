package uiexports

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
)

// Kind identifies a contribution type for consumers.
type Kind string

const (
	KindApplication     Kind = "app"
	KindNavLink         Kind = "navLink"
	KindInjectedVars    Kind = "injectedVars"
	KindBundleProvider  Kind = "bundleProvider"
	KindSettingDefaults Kind = "uiSettingDefaults"
)

// Consumer is notified of every accepted contribution.
type Consumer interface {
	ConsumeContribution(pluginID string, kind Kind)
}

type navEntry struct {
	link domain.NavLink
	seq  int
}

type Registry struct {
	urlBasePath string

	apps      []domain.Application
	appsByID  map[string]int
	nav       []navEntry
	navByID   map[string]struct{}
	vars      map[string]any
	providers []domain.BundleProvider
	settings  map[string]domain.UISettingDefault
	plugins   []domain.Plugin
	consumers []Consumer

	frozen bool
}

func NewRegistry(urlBasePath string) *Registry {
	return &Registry{
		urlBasePath: urlBasePath,
		appsByID:    make(map[string]int),
		navByID:     make(map[string]struct{}),
		vars:        make(map[string]any),
		settings:    make(map[string]domain.UISettingDefault),
	}
}

func (r *Registry) AddConsumer(c Consumer) {
	r.consumers = append(r.consumers, c)
}

// ConsumePlugin runs the plugin's contribution hook against a view of the
// registry scoped to that plugin.
func (r *Registry) ConsumePlugin(ctx context.Context, p domain.Plugin) error {
	if r.frozen {
		return domain.ErrFrozen
	}
	if err := p.Contribute(ctx, &pluginScope{registry: r, pluginID: p.ID()}); err != nil {
		return &domain.ConfigurationError{Plugin: p.ID(), Op: "contribute", Err: err}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Freeze ends the assembling phase.
func (r *Registry) Freeze() { r.frozen = true }

func (r *Registry) Frozen() bool { return r.frozen }

func (r *Registry) URLBasePath() string { return r.urlBasePath }

// Apps returns all registered applications in registration order.
func (r *Registry) Apps() []domain.Application {
	return slices.Clone(r.apps)
}

// AppByID looks up an application by id.
func (r *Registry) AppByID(id string) (domain.Application, bool) {
	i, ok := r.appsByID[id]
	if !ok {
		return domain.Application{}, false
	}
	return r.apps[i], true
}

// NavLinksInOrder returns nav links sorted by Order; ties keep insertion order.
func (r *Registry) NavLinksInOrder() []domain.NavLink {
	entries := slices.Clone(r.nav)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].link.Order != entries[j].link.Order {
			return entries[i].link.Order < entries[j].link.Order
		}
		return entries[i].seq < entries[j].seq
	})

	links := make([]domain.NavLink, len(entries))
	for i, e := range entries {
		links[i] = e.link
	}
	return links
}

// DefaultInjectedVars returns a copy of the registry-wide injected vars.
func (r *Registry) DefaultInjectedVars() map[string]any {
	return maps.Clone(r.vars)
}

// BundleProviders returns providers in registration order.
func (r *Registry) BundleProviders() []domain.BundleProvider {
	return slices.Clone(r.providers)
}

// UISettingDefaults returns a copy of all contributed setting defaults.
func (r *Registry) UISettingDefaults() map[string]domain.UISettingDefault {
	return maps.Clone(r.settings)
}

// Plugins returns the plugins consumed so far, in order.
func (r *Registry) Plugins() []domain.Plugin {
	return slices.Clone(r.plugins)
}

func (r *Registry) notify(pluginID string, kind Kind) {
	for _, c := range r.consumers {
		c.ConsumeContribution(pluginID, kind)
	}
}

func (r *Registry) registerApplication(pluginID string, app domain.Application) error {
	if r.frozen {
		return domain.ErrFrozen
	}
	if app.ID == "" {
		return fmt.Errorf("%w: application id is required", domain.ErrInvalidContribution)
	}
	if _, ok := r.appsByID[app.ID]; ok {
		owner := r.apps[r.appsByID[app.ID]].PluginID
		return fmt.Errorf("%w: %q already registered by %q", domain.ErrDuplicateApplication, app.ID, owner)
	}
	if app.TemplateName == "" {
		app.TemplateName = DefaultTemplate
	}
	app.PluginID = pluginID

	r.appsByID[app.ID] = len(r.apps)
	r.apps = append(r.apps, app)
	r.notify(pluginID, KindApplication)
	return nil
}

func (r *Registry) registerNavLink(pluginID string, link domain.NavLink) error {
	if r.frozen {
		return domain.ErrFrozen
	}
	if link.ID == "" {
		return fmt.Errorf("%w: nav link id is required", domain.ErrInvalidContribution)
	}
	if _, ok := r.navByID[link.ID]; ok {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateNavLink, link.ID)
	}
	switch {
	case link.URL == "":
		link.URL = r.urlBasePath + "/app/" + link.ID
	case strings.HasPrefix(link.URL, "/"):
		link.URL = r.urlBasePath + link.URL
	}

	r.navByID[link.ID] = struct{}{}
	r.nav = append(r.nav, navEntry{link: link, seq: len(r.nav)})
	r.notify(pluginID, KindNavLink)
	return nil
}

func (r *Registry) registerDefaultInjectedVars(pluginID string, vars map[string]any) error {
	if r.frozen {
		return domain.ErrFrozen
	}
	maps.Copy(r.vars, vars)
	r.notify(pluginID, KindInjectedVars)
	return nil
}

func (r *Registry) registerBundleProvider(pluginID string, factory domain.BundleProviderFunc) error {
	if r.frozen {
		return domain.ErrFrozen
	}
	if factory == nil {
		return fmt.Errorf("%w: bundle provider is nil", domain.ErrInvalidContribution)
	}
	r.providers = append(r.providers, domain.BundleProvider{PluginID: pluginID, Factory: factory})
	r.notify(pluginID, KindBundleProvider)
	return nil
}

func (r *Registry) registerUISettingDefaults(pluginID string, defaults map[string]domain.UISettingDefault) error {
	if r.frozen {
		return domain.ErrFrozen
	}

	var errs []error
	for key := range defaults {
		if _, ok := r.settings[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %q", domain.ErrDuplicateSettingDefault, key))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	maps.Copy(r.settings, defaults)
	r.notify(pluginID, KindSettingDefaults)
	return nil
}

// DefaultTemplate is used for applications that do not name a template.
const DefaultTemplate = "ui_app.html"

type pluginScope struct {
	registry *Registry
	pluginID string
}

var _ domain.Contributions = (*pluginScope)(nil)

func (s *pluginScope) RegisterApplication(app domain.Application) error {
	return s.registry.registerApplication(s.pluginID, app)
}

func (s *pluginScope) RegisterNavLink(link domain.NavLink) error {
	return s.registry.registerNavLink(s.pluginID, link)
}

func (s *pluginScope) RegisterDefaultInjectedVars(vars map[string]any) error {
	return s.registry.registerDefaultInjectedVars(s.pluginID, vars)
}

func (s *pluginScope) RegisterBundleProvider(factory domain.BundleProviderFunc) error {
	return s.registry.registerBundleProvider(s.pluginID, factory)
}

func (s *pluginScope) RegisterUISettingDefaults(defaults map[string]domain.UISettingDefault) error {
	return s.registry.registerUISettingDefaults(s.pluginID, defaults)
}
