package domain

// HealthSignal exposes live readiness. Both methods are sampled per render
// and must never be cached across requests.
type HealthSignal interface {
	IsOverallSystemReady() bool
	IsDependentServiceReady() bool
}
