package app

import (
	"context"
	"time"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
)

// --- Mock implementations ---

type mockPlugin struct {
	id         string
	contribute func(c domain.Contributions) error
}

func (m *mockPlugin) ID() string { return m.id }

func (m *mockPlugin) Contribute(_ context.Context, c domain.Contributions) error {
	if m.contribute != nil {
		return m.contribute(c)
	}
	return nil
}

type mockHealth struct {
	overall   bool
	dependent bool
}

func (m *mockHealth) IsOverallSystemReady() bool    { return m.overall }
func (m *mockHealth) IsDependentServiceReady() bool { return m.dependent }

type mockSettings struct {
	getDefaultsFn     func(ctx context.Context) (map[string]domain.UISettingDefault, error)
	getUserProvidedFn func(ctx context.Context) (map[string]any, error)
	userCalls         int
}

func (m *mockSettings) GetDefaults(ctx context.Context) (map[string]domain.UISettingDefault, error) {
	if m.getDefaultsFn != nil {
		return m.getDefaultsFn(ctx)
	}
	return map[string]domain.UISettingDefault{"dateFormat": {Value: "MMM D"}}, nil
}

func (m *mockSettings) GetUserProvided(ctx context.Context) (map[string]any, error) {
	m.userCalls++
	if m.getUserProvidedFn != nil {
		return m.getUserProvidedFn(ctx)
	}
	return map[string]any{"dateFormat": "YYYY"}, nil
}

type viewCall struct {
	template string
	data     ViewData
}

type mockResponse struct {
	views       []viewCall
	statusPages int
	viewErr     error
}

func (m *mockResponse) View(template string, data ViewData) error {
	m.views = append(m.views, viewCall{template: template, data: data})
	return m.viewErr
}

func (m *mockResponse) StatusPage() error {
	m.statusPages++
	return nil
}

type mockObserver struct {
	decisions   []RenderState
	fetchErrors []error
	providers   []string
	planSize    int
}

func (m *mockObserver) ObserveDecision(state RenderState) { m.decisions = append(m.decisions, state) }
func (m *mockObserver) ObserveUserSettingsFetch(err error) {
	m.fetchErrors = append(m.fetchErrors, err)
}
func (m *mockObserver) ObserveProvider(pluginID string, added bool, _ time.Duration) {
	if added {
		m.providers = append(m.providers, pluginID)
	}
}
func (m *mockObserver) ObservePlan(bundles int) { m.planSize = bundles }
