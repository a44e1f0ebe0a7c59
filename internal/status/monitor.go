package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultCheckTimeout = 3 * time.Second

// Check is a named health check backing a component.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Monitor runs checks periodically and records results in a Registry.
type Monitor struct {
	registry *Registry
	checks   []Check
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	onChange func(name string, state State)

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewMonitor(registry *Registry, checks []Check, interval time.Duration, clock clockwork.Clock) *Monitor {
	return &Monitor{
		registry: registry,
		checks:   checks,
		interval: interval,
		timeout:  defaultCheckTimeout,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}
}

// OnChange registers a callback invoked whenever a component changes state.
func (m *Monitor) OnChange(fn func(name string, state State)) {
	m.onChange = fn
}

// RunOnce evaluates every check sequentially.
func (m *Monitor) RunOnce(ctx context.Context) {
	for _, c := range m.checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.Check(checkCtx)
		cancel()

		prev, _ := m.registry.Get(c.Name)
		if err != nil {
			m.registry.Red(c.Name, err.Error())
		} else {
			m.registry.Green(c.Name, "Ready")
		}

		cur, _ := m.registry.Get(c.Name)
		if prev.State != cur.State {
			slog.Info("Component status changed", "component", c.Name, "from", string(prev.State), "to", string(cur.State), "message", cur.Message)
			if m.onChange != nil {
				m.onChange(c.Name, cur.State)
			}
		}
	}
}

// Start evaluates the checks once and then on every tick until Stop is
// called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.RunOnce(ctx)

	ticker := m.clock.NewTicker(m.interval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				m.RunOnce(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the monitor loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
