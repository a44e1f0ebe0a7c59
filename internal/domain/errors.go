package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateApplication    = errors.New("duplicate application id")
	ErrDuplicateNavLink        = errors.New("duplicate nav link id")
	ErrDuplicateSettingDefault = errors.New("duplicate ui setting default")
	ErrInvalidContribution     = errors.New("invalid contribution")
	ErrFrozen                  = errors.New("contributions are frozen")
	ErrApplicationNotFound     = errors.New("application not found")
	ErrUnknownTemplate         = errors.New("unknown application template")
)

// ConfigurationError is fatal at startup. It names the plugin whose
// contribution hook or bundle provider failed.
type ConfigurationError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("plugin %q: %s: %v", e.Plugin, e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
