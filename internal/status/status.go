package status

import (
	"sync"
	"time"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/jonboulle/clockwork"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateGreen         State = "green"
	StateYellow        State = "yellow"
	StateRed           State = "red"
)

func (s State) severity() int {
	switch s {
	case StateGreen:
		return 0
	case StateYellow:
		return 1
	case StateUninitialized:
		return 2
	case StateRed:
		return 3
	default:
		return 3
	}
}

// ComponentStatus is a point-in-time view of one component.
type ComponentStatus struct {
	Name    string    `json:"name"`
	State   State     `json:"state"`
	Message string    `json:"message"`
	Since   time.Time `json:"since"`
}

// Overview is the overall state plus every component, in creation order.
type Overview struct {
	State      State             `json:"state"`
	Components []ComponentStatus `json:"components"`
}

// Registry holds component states. It is safe for concurrent use.
type Registry struct {
	clock     clockwork.Clock
	dependent string

	mu         sync.RWMutex
	components map[string]*ComponentStatus
	order      []string
}

var _ domain.HealthSignal = (*Registry)(nil)

// NewRegistry creates a registry. dependent names the backing data store
// component consulted by IsDependentServiceReady.
func NewRegistry(clock clockwork.Clock, dependent string) *Registry {
	return &Registry{
		clock:      clock,
		dependent:  dependent,
		components: make(map[string]*ComponentStatus),
	}
}

// Set updates a component, creating it on first use. Since only changes
// when the state changes.
func (r *Registry) Set(name string, state State, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.components[name]
	if !ok {
		c = &ComponentStatus{Name: name, State: StateUninitialized, Since: r.clock.Now()}
		r.components[name] = c
		r.order = append(r.order, name)
	}
	if c.State != state {
		c.Since = r.clock.Now()
	}
	c.State = state
	c.Message = message
}

func (r *Registry) Green(name, message string)  { r.Set(name, StateGreen, message) }
func (r *Registry) Yellow(name, message string) { r.Set(name, StateYellow, message) }
func (r *Registry) Red(name, message string)    { r.Set(name, StateRed, message) }

// Get returns the status of a single component.
func (r *Registry) Get(name string) (ComponentStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[name]
	if !ok {
		return ComponentStatus{}, false
	}
	return *c, true
}

// Overall is the worst state across components. An empty registry is
// uninitialized.
func (r *Registry) Overall() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overallLocked()
}

func (r *Registry) overallLocked() State {
	if len(r.components) == 0 {
		return StateUninitialized
	}

	worst := StateGreen
	for _, c := range r.components {
		if c.State.severity() > worst.severity() {
			worst = c.State
		}
	}
	return worst
}

func (r *Registry) Overview() Overview {
	r.mu.RLock()
	defer r.mu.RUnlock()

	components := make([]ComponentStatus, 0, len(r.order))
	for _, name := range r.order {
		components = append(components, *r.components[name])
	}
	return Overview{State: r.overallLocked(), Components: components}
}

// IsOverallSystemReady reports whether every component other than the
// dependent data store is green. The data store is judged separately by
// IsDependentServiceReady, so its outage degrades renders instead of
// blocking them. A registry without such components is not ready.
func (r *Registry) IsOverallSystemReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := false
	for name, c := range r.components {
		if name == r.dependent {
			continue
		}
		if c.State != StateGreen {
			return false
		}
		seen = true
	}
	return seen
}

// IsDependentServiceReady reports whether the dependent data store is
// reachable. Only a red state counts as unreachable.
func (r *Registry) IsDependentServiceReady() bool {
	c, ok := r.Get(r.dependent)
	if !ok {
		return false
	}
	return c.State != StateRed && c.State != StateUninitialized
}
