// Package app provides the application layer.
//
// Orchestrates use cases: build plan assembly at startup, the per-request render decision, payload assembly.
// Sits between HTTP handlers and the contribution registry. Depends on domain interfaces, not concrete implementations.
package app
