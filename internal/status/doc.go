// Package status tracks the health of server components and exposes the
// live readiness signal used by the render decision.
//
// Each component carries a state (uninitialized, green, yellow, red). The
// overall state is the worst component state. A Monitor refreshes the
// components backed by health checks on a clockwork ticker.
package status
