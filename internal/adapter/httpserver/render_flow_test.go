package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"regexp"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/settings"
	"github.com/SadnessofAtlantis/kibana/internal/status"
)

type testPlugin struct {
	id         string
	contribute func(c domain.Contributions) error
}

func (p *testPlugin) ID() string { return p.id }

func (p *testPlugin) Contribute(_ context.Context, c domain.Contributions) error {
	return p.contribute(c)
}

type stubUserSettings struct {
	values map[string]any
	err    error
}

func (s *stubUserSettings) GetUserProvided(context.Context, string) (map[string]any, error) {
	return s.values, s.err
}

var metadataAttr = regexp.MustCompile(`<kbn-injected-metadata data="([^"]*)">`)

func decodePayload(t *testing.T, body string) map[string]any {
	t.Helper()
	m := metadataAttr.FindStringSubmatch(body)
	require.Len(t, m, 2, "page should embed injected metadata")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &payload))
	return payload
}

func newFlowServer(t *testing.T, health *status.Registry, user *stubUserSettings) *Server {
	t.Helper()

	core := &testPlugin{id: "kibana", contribute: func(c domain.Contributions) error {
		if err := c.RegisterApplication(domain.Application{
			ID:           "kibana",
			Title:        "Kibana",
			InjectedVars: func() map[string]any { return map[string]any{"kbnIndex": ".kibana-app"} },
		}); err != nil {
			return err
		}
		if err := c.RegisterNavLink(domain.NavLink{ID: "kibana:discover", Title: "Discover", Order: 10}); err != nil {
			return err
		}
		if err := c.RegisterDefaultInjectedVars(map[string]any{"kbnIndex": ".kibana", "esShardTimeout": 0}); err != nil {
			return err
		}
		return c.RegisterUISettingDefaults(map[string]domain.UISettingDefault{"dateFormat": {Value: "MMM D, YYYY"}})
	}}

	plan, err := app.Build(context.Background(), app.BuildOptions{
		EnvName:      "development",
		URLBasePath:  "/kbn",
		Version:      "6.0.0",
		BuildNum:     8467,
		BundleDir:    t.TempDir(),
		BundleFilter: "*",
	}, []domain.Plugin{core}, nil)
	require.NoError(t, err)

	store := settings.NewService(plan.Registry.UISettingDefaults(), user, "6.0.0")
	renderer := app.NewRenderer(plan.Registry, store, health, app.ServerInfo{
		Version:    "6.0.0",
		BuildNum:   8467,
		BuildSha:   "abc123",
		BasePath:   "/kbn",
		ServerName: "kibana-test",
	}, nil)

	return newTestServer(t, renderer, withBasePath("/kbn"), withStatus(health))
}

func greenRegistry() *status.Registry {
	reg := status.NewRegistry(clockwork.NewFakeClock(), "postgres")
	reg.Green("ui", "Ready")
	reg.Green("postgres", "Ready")
	return reg
}

func TestRenderFlow_Full(t *testing.T) {
	srv := newFlowServer(t, greenRegistry(), &stubUserSettings{values: map[string]any{"dateFormat": "YYYY-MM-DD"}})

	rec := get(srv, "/kbn/app/kibana")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="/kbn/bundles/kibana.bundle.js"`)

	payload := decodePayload(t, rec.Body.String())
	assert.Equal(t, "6.0.0", payload["version"])
	assert.InDelta(t, 8467, payload["buildNum"], 0)
	assert.Equal(t, "abc123", payload["buildSha"])
	assert.Equal(t, "/kbn", payload["basePath"])

	vars := payload["vars"].(map[string]any)
	assert.Equal(t, ".kibana-app", vars["kbnIndex"], "application vars override defaults")
	assert.InDelta(t, 0, vars["esShardTimeout"], 0)

	uiSettings := payload["uiSettings"].(map[string]any)
	assert.Equal(t, map[string]any{"dateFormat": "YYYY-MM-DD"}, uiSettings["user"])

	nav := payload["nav"].([]any)
	require.Len(t, nav, 1)
	assert.Equal(t, "/kbn/app/kibana:discover", nav[0].(map[string]any)["url"])
}

func TestRenderFlow_DependentServiceDown(t *testing.T) {
	health := greenRegistry()
	health.Red("postgres", "connection refused")

	srv := newFlowServer(t, health, &stubUserSettings{values: map[string]any{"dateFormat": "never"}})

	rec := get(srv, "/kbn/app/kibana")

	require.Equal(t, http.StatusOK, rec.Code)
	uiSettings := decodePayload(t, rec.Body.String())["uiSettings"].(map[string]any)
	assert.Empty(t, uiSettings["user"])
	assert.Contains(t, uiSettings["defaults"], "dateFormat")
}

func TestRenderFlow_UserSettingsFetchFails(t *testing.T) {
	srv := newFlowServer(t, greenRegistry(), &stubUserSettings{err: errors.New("timeout")})

	rec := get(srv, "/kbn/app/kibana")

	require.Equal(t, http.StatusOK, rec.Code)
	uiSettings := decodePayload(t, rec.Body.String())["uiSettings"].(map[string]any)
	assert.Empty(t, uiSettings["user"])
}

func TestRenderFlow_SystemNotReady(t *testing.T) {
	health := greenRegistry()
	health.Yellow("redis", "circuit open")

	srv := newFlowServer(t, health, &stubUserSettings{})

	rec := get(srv, "/kbn/app/kibana")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "circuit open")
}

func TestRenderFlow_UnknownApp(t *testing.T) {
	srv := newFlowServer(t, greenRegistry(), &stubUserSettings{})

	rec := get(srv, "/kbn/app/timelion")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown app timelion")
}
