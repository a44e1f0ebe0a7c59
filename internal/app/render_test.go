package app

import (
	"context"
	"errors"
	"testing"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		overall   bool
		dependent bool
		want      RenderState
	}{
		{"system not ready, dependent down", false, false, RenderStatusPage},
		{"system not ready, dependent up", false, true, RenderStatusPage},
		{"all ready", true, true, RenderFull},
		{"dependent down", true, false, RenderDefaultConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(&mockHealth{overall: tt.overall, dependent: tt.dependent})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderState_String(t *testing.T) {
	assert.Equal(t, "full", RenderFull.String())
	assert.Equal(t, "default_config", RenderDefaultConfig.String())
	assert.Equal(t, "status_page", RenderStatusPage.String())
	assert.Equal(t, "unknown", RenderState(42).String())
}

func TestMergeInjectedVars(t *testing.T) {
	app := domain.Application{ID: "a", InjectedVars: func() map[string]any { return map[string]any{"x": 1} }}

	vars := MergeInjectedVars(map[string]any{"x": 2, "y": 3}, app)

	assert.Equal(t, map[string]any{"x": 1, "y": 3}, vars)
}

func TestMergeInjectedVars_IsShallow(t *testing.T) {
	app := domain.Application{ID: "a", InjectedVars: func() map[string]any {
		return map[string]any{"nested": map[string]any{"a": 1}}
	}}

	vars := MergeInjectedVars(map[string]any{"nested": map[string]any{"a": 0, "b": 2}}, app)

	assert.Equal(t, map[string]any{"a": 1}, vars["nested"])
}

func TestMergeInjectedVars_NoAppVars(t *testing.T) {
	defaults := map[string]any{"y": 3}

	vars := MergeInjectedVars(defaults, domain.Application{ID: "a"})
	vars["y"] = 4

	assert.Equal(t, map[string]any{"y": 3}, defaults, "defaults must not be mutated")
	assert.Equal(t, map[string]any{}, MergeInjectedVars(nil, domain.Application{ID: "a"}))
}

func newTestRenderer(t *testing.T, health *mockHealth, settings *mockSettings, observer RenderObserver) *Renderer {
	t.Helper()

	plugins := []domain.Plugin{&mockPlugin{id: "kibana", contribute: func(c domain.Contributions) error {
		if err := c.RegisterApplication(domain.Application{
			ID:           "kibana",
			Title:        "Kibana",
			TemplateName: "ui_app.html",
			InjectedVars: func() map[string]any { return map[string]any{"x": 1} },
		}); err != nil {
			return err
		}
		if err := c.RegisterNavLink(domain.NavLink{ID: "discover", Order: 2}); err != nil {
			return err
		}
		if err := c.RegisterNavLink(domain.NavLink{ID: "kibana", Order: 1}); err != nil {
			return err
		}
		return c.RegisterDefaultInjectedVars(map[string]any{"x": 2, "y": 3})
	}}}

	plan, err := Build(context.Background(), testBuildOptions, plugins, nil)
	require.NoError(t, err)

	info := ServerInfo{
		Version:    "5.0.0",
		BuildNum:   8467,
		BuildSha:   "abc123",
		BasePath:   "/kbn",
		ServerName: "kibana-test",
		DevMode:    true,
	}
	return NewRenderer(plan.Registry, settings, health, info, observer)
}

func TestRenderer_AppByID(t *testing.T) {
	r := newTestRenderer(t, &mockHealth{}, &mockSettings{}, nil)

	app, err := r.AppByID("kibana")
	require.NoError(t, err)
	assert.Equal(t, "Kibana", app.Title)

	_, err = r.AppByID("missing")
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestRenderer_Serve_StatusPage(t *testing.T) {
	for _, dependent := range []bool{true, false} {
		settings := &mockSettings{}
		observer := &mockObserver{}
		r := newTestRenderer(t, &mockHealth{overall: false, dependent: dependent}, settings, observer)
		rb := &mockResponse{}
		app, _ := r.AppByID("kibana")

		err := r.Serve(context.Background(), rb, app)

		require.NoError(t, err)
		assert.Equal(t, 1, rb.statusPages)
		assert.Empty(t, rb.views)
		assert.Equal(t, 0, settings.userCalls)
		assert.Equal(t, []RenderState{RenderStatusPage}, observer.decisions)
	}
}

func TestRenderer_Serve_Full(t *testing.T) {
	settings := &mockSettings{}
	observer := &mockObserver{}
	r := newTestRenderer(t, &mockHealth{overall: true, dependent: true}, settings, observer)
	rb := &mockResponse{}
	app, _ := r.AppByID("kibana")

	err := r.Serve(context.Background(), rb, app)

	require.NoError(t, err)
	require.Len(t, rb.views, 1)
	assert.Equal(t, 1, settings.userCalls)
	assert.Equal(t, []RenderState{RenderFull}, observer.decisions)
	assert.Equal(t, []error{nil}, observer.fetchErrors)

	view := rb.views[0]
	assert.Equal(t, "ui_app.html", view.template)
	assert.Equal(t, "/kbn/bundles", view.data.BundlePath)
	assert.Equal(t, "kibana", view.data.App.ID)

	payload := view.data.Payload
	assert.Equal(t, map[string]any{"dateFormat": "YYYY"}, payload.UISettings.User)
	assert.Equal(t, "MMM D", payload.UISettings.Defaults["dateFormat"].Value)
	assert.Equal(t, map[string]any{"x": 1, "y": 3}, payload.Vars)
	assert.Equal(t, "5.0.0", payload.Version)
	assert.Equal(t, 8467, payload.BuildNum)
	assert.Equal(t, "abc123", payload.BuildSha)
	assert.Equal(t, "/kbn", payload.BasePath)
	assert.Equal(t, "kibana-test", payload.ServerName)
	assert.True(t, payload.DevMode)
	require.Len(t, payload.Nav, 2)
	assert.Equal(t, "kibana", payload.Nav[0].ID)
	assert.Equal(t, "discover", payload.Nav[1].ID)
}

func TestRenderer_Serve_DefaultConfig(t *testing.T) {
	settings := &mockSettings{}
	observer := &mockObserver{}
	r := newTestRenderer(t, &mockHealth{overall: true, dependent: false}, settings, observer)
	rb := &mockResponse{}
	app, _ := r.AppByID("kibana")

	err := r.Serve(context.Background(), rb, app)

	require.NoError(t, err)
	require.Len(t, rb.views, 1)
	assert.Equal(t, 0, settings.userCalls, "user settings must not be fetched")
	assert.Empty(t, rb.views[0].data.Payload.UISettings.User)
	assert.NotEmpty(t, rb.views[0].data.Payload.UISettings.Defaults)
	assert.Equal(t, []RenderState{RenderDefaultConfig}, observer.decisions)
}

func TestRenderer_Serve_SamplesHealthPerRequest(t *testing.T) {
	health := &mockHealth{overall: true, dependent: true}
	settings := &mockSettings{}
	r := newTestRenderer(t, health, settings, nil)
	app, _ := r.AppByID("kibana")

	require.NoError(t, r.Serve(context.Background(), &mockResponse{}, app))
	health.dependent = false
	require.NoError(t, r.Serve(context.Background(), &mockResponse{}, app))
	health.overall = false
	rb := &mockResponse{}
	require.NoError(t, r.Serve(context.Background(), rb, app))

	assert.Equal(t, 1, settings.userCalls)
	assert.Equal(t, 1, rb.statusPages)
}

func TestRenderer_RenderApp_UserSettingsFailureDegrades(t *testing.T) {
	fetchErr := errors.New("connection refused")
	settings := &mockSettings{getUserProvidedFn: func(context.Context) (map[string]any, error) {
		return nil, fetchErr
	}}
	observer := &mockObserver{}
	r := newTestRenderer(t, &mockHealth{overall: true, dependent: true}, settings, observer)
	rb := &mockResponse{}
	app, _ := r.AppByID("kibana")

	err := r.RenderApp(context.Background(), rb, app)

	require.NoError(t, err)
	require.Len(t, rb.views, 1)
	assert.Empty(t, rb.views[0].data.Payload.UISettings.User)
	assert.Equal(t, []error{fetchErr}, observer.fetchErrors)
}

func TestRenderer_DefaultsErrorFailsRender(t *testing.T) {
	settings := &mockSettings{getDefaultsFn: func(context.Context) (map[string]domain.UISettingDefault, error) {
		return nil, errors.New("defaults unavailable")
	}}
	r := newTestRenderer(t, &mockHealth{overall: true, dependent: true}, settings, nil)
	rb := &mockResponse{}
	app, _ := r.AppByID("kibana")

	err := r.RenderAppWithDefaultConfig(context.Background(), rb, app)

	assert.ErrorContains(t, err, "defaults unavailable")
	assert.Empty(t, rb.views)
}

func TestRenderer_ViewErrorPropagates(t *testing.T) {
	r := newTestRenderer(t, &mockHealth{overall: true, dependent: true}, &mockSettings{}, nil)
	viewErr := errors.New("template missing")
	rb := &mockResponse{viewErr: viewErr}
	app, _ := r.AppByID("kibana")

	assert.ErrorIs(t, r.Serve(context.Background(), rb, app), viewErr)
}

func TestBundlePath(t *testing.T) {
	assert.Equal(t, "/bundles", BundlePath(""))
	assert.Equal(t, "/kbn/bundles", BundlePath("/kbn"))
}
