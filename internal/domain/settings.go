package domain

import "context"

// UISettingDefault is a process-wide default for a single UI setting.
type UISettingDefault struct {
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
	ReadOnly    bool   `json:"readonly,omitempty"`
}

// UISettingsSnapshot is the settings portion of a render payload. User is
// empty when user-provided settings were not fetched.
type UISettingsSnapshot struct {
	Defaults map[string]UISettingDefault `json:"defaults"`
	User     map[string]any              `json:"user"`
}

// UISettingsStore is the read contract of the UI settings layer.
type UISettingsStore interface {
	GetDefaults(ctx context.Context) (map[string]UISettingDefault, error)
	GetUserProvided(ctx context.Context) (map[string]any, error)
}

// UserSettingsRepository reads persisted user-provided settings for a
// product version.
type UserSettingsRepository interface {
	GetUserProvided(ctx context.Context, version string) (map[string]any, error)
}
