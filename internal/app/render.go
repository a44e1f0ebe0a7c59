package app

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/uiexports"
)

// RenderState is the outcome of the render decision.
type RenderState int

const (
	RenderStatusPage RenderState = iota
	RenderFull
	RenderDefaultConfig
)

func (s RenderState) String() string {
	switch s {
	case RenderFull:
		return "full"
	case RenderDefaultConfig:
		return "default_config"
	case RenderStatusPage:
		return "status_page"
	default:
		return "unknown"
	}
}

// Decide samples the health signal and picks a render state. The overall
// signal is checked first; the dependent service only matters once the
// system is ready.
func Decide(health domain.HealthSignal) RenderState {
	if !health.IsOverallSystemReady() {
		return RenderStatusPage
	}
	if !health.IsDependentServiceReady() {
		return RenderDefaultConfig
	}
	return RenderFull
}

// ServerInfo are the static server facts copied into every payload.
type ServerInfo struct {
	Version    string
	BuildNum   int
	BuildSha   string
	BasePath   string
	ServerName string
	DevMode    bool
}

// Payload is handed to the application template.
type Payload struct {
	App        domain.Application        `json:"app"`
	Nav        []domain.NavLink          `json:"nav"`
	Version    string                    `json:"version"`
	BuildNum   int                       `json:"buildNum"`
	BuildSha   string                    `json:"buildSha"`
	BasePath   string                    `json:"basePath"`
	ServerName string                    `json:"serverName"`
	DevMode    bool                      `json:"devMode"`
	UISettings domain.UISettingsSnapshot `json:"uiSettings"`
	Vars       map[string]any            `json:"vars"`
}

// ViewData is what the application template receives.
type ViewData struct {
	App        domain.Application
	Payload    *Payload
	BundlePath string
}

// ResponseBuilder writes a render result. The HTTP server provides the
// implementation.
type ResponseBuilder interface {
	View(template string, data ViewData) error
	StatusPage() error
}

// Strategy renders one application into a response.
type Strategy interface {
	Render(ctx context.Context, rb ResponseBuilder, app domain.Application) error
}

// RenderObserver records render outcomes. It may be nil.
type RenderObserver interface {
	ObserveDecision(state RenderState)
	ObserveUserSettingsFetch(err error)
}

// Renderer holds the frozen registry and the collaborators needed to serve
// applications.
type Renderer struct {
	registry *uiexports.Registry
	settings domain.UISettingsStore
	health   domain.HealthSignal
	info     ServerInfo
	observer RenderObserver

	full          Strategy
	defaultConfig Strategy
}

func NewRenderer(registry *uiexports.Registry, settings domain.UISettingsStore, health domain.HealthSignal, info ServerInfo, observer RenderObserver) *Renderer {
	r := &Renderer{
		registry: registry,
		settings: settings,
		health:   health,
		info:     info,
		observer: observer,
	}
	r.full = fullStrategy{r}
	r.defaultConfig = defaultConfigStrategy{r}
	return r
}

// AppByID looks up an application in the frozen registry.
func (r *Renderer) AppByID(id string) (domain.Application, error) {
	a, ok := r.registry.AppByID(id)
	if !ok {
		return domain.Application{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, id)
	}
	return a, nil
}

// Serve runs the render decision for one request and dispatches to the
// chosen strategy.
func (r *Renderer) Serve(ctx context.Context, rb ResponseBuilder, app domain.Application) error {
	state := Decide(r.health)
	if r.observer != nil {
		r.observer.ObserveDecision(state)
	}

	switch state {
	case RenderStatusPage:
		slog.WarnContext(ctx, "System not ready, rendering status page", "app", app.ID)
		return rb.StatusPage()
	case RenderDefaultConfig:
		slog.WarnContext(ctx, "Dependent service not ready, rendering with default settings", "app", app.ID)
		return r.RenderAppWithDefaultConfig(ctx, rb, app)
	default:
		return r.RenderApp(ctx, rb, app)
	}
}

// RenderApp renders with defaults and user-provided settings. A failed
// settings fetch degrades to defaults instead of failing the render.
func (r *Renderer) RenderApp(ctx context.Context, rb ResponseBuilder, app domain.Application) error {
	return r.full.Render(ctx, rb, app)
}

// RenderAppWithDefaultConfig renders with default settings only.
func (r *Renderer) RenderAppWithDefaultConfig(ctx context.Context, rb ResponseBuilder, app domain.Application) error {
	return r.defaultConfig.Render(ctx, rb, app)
}

// Payload assembles the shared part of every render. User settings are
// left empty.
func (r *Renderer) Payload(ctx context.Context, app domain.Application) (*Payload, error) {
	defaults, err := r.settings.GetDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ui setting defaults: %w", err)
	}

	return &Payload{
		App:        app,
		Nav:        r.registry.NavLinksInOrder(),
		Version:    r.info.Version,
		BuildNum:   r.info.BuildNum,
		BuildSha:   r.info.BuildSha,
		BasePath:   r.info.BasePath,
		ServerName: r.info.ServerName,
		DevMode:    r.info.DevMode,
		UISettings: domain.UISettingsSnapshot{
			Defaults: defaults,
			User:     map[string]any{},
		},
		Vars: MergeInjectedVars(r.registry.DefaultInjectedVars(), app),
	}, nil
}

// MergeInjectedVars overlays the application's own vars on the registry
// defaults. The merge is shallow: an app key replaces the default value
// wholesale.
func MergeInjectedVars(defaults map[string]any, app domain.Application) map[string]any {
	vars := maps.Clone(defaults)
	if vars == nil {
		vars = make(map[string]any)
	}
	if app.InjectedVars != nil {
		maps.Copy(vars, app.InjectedVars())
	}
	return vars
}

func (r *Renderer) view(rb ResponseBuilder, app domain.Application, payload *Payload) error {
	return rb.View(app.TemplateName, ViewData{
		App:        app,
		Payload:    payload,
		BundlePath: BundlePath(r.info.BasePath),
	})
}

// BundlePath is where compiled bundles are served from.
func BundlePath(basePath string) string {
	return basePath + "/bundles"
}

type fullStrategy struct{ r *Renderer }

func (s fullStrategy) Render(ctx context.Context, rb ResponseBuilder, app domain.Application) error {
	payload, err := s.r.Payload(ctx, app)
	if err != nil {
		return err
	}

	user, err := s.r.settings.GetUserProvided(ctx)
	if s.r.observer != nil {
		s.r.observer.ObserveUserSettingsFetch(err)
	}
	if err != nil {
		slog.WarnContext(ctx, "User settings unavailable, rendering with default settings", "app", app.ID, "error", err)
	} else {
		payload.UISettings.User = user
	}

	return s.r.view(rb, app, payload)
}

type defaultConfigStrategy struct{ r *Renderer }

func (s defaultConfigStrategy) Render(ctx context.Context, rb ResponseBuilder, app domain.Application) error {
	payload, err := s.r.Payload(ctx, app)
	if err != nil {
		return err
	}
	return s.r.view(rb, app, payload)
}
