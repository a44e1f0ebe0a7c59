// Package uiexports accumulates UI contributions from plugins.
//
// The registry has two phases. While assembling, plugins register
// applications, nav links, injected vars, setting defaults and bundle
// providers. After Freeze the registry is read-only and safe for concurrent
// readers without locking.
package uiexports
