package domain

// InjectedVarsFunc returns the plugin-specific variables injected into the
// rendered page of an application.
type InjectedVarsFunc func() map[string]any

// Application is a UI application contributed by a plugin. It is immutable
// once registered.
type Application struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Main         string           `json:"main,omitempty"`
	TemplateName string           `json:"-"`
	Hidden       bool             `json:"hidden"`
	PluginID     string           `json:"-"`
	InjectedVars InjectedVarsFunc `json:"-"`
}

// NavLink is a navigation entry shown in the application chrome.
type NavLink struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Order  int    `json:"order"`
	Icon   string `json:"icon,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}
