package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// CommandObserver receives per-command timings.
type CommandObserver interface {
	ObserveCommand(operation string, d time.Duration, err error)
	ObserveDialError()
}

// MetricsHook reports every command and pipeline to a CommandObserver.
// A cache miss (redis.Nil) counts as success.
type MetricsHook struct {
	observer CommandObserver
	clock    clockwork.Clock
}

var _ goredis.Hook = (*MetricsHook)(nil)

func NewMetricsHook(observer CommandObserver, clock clockwork.Clock) *MetricsHook {
	return &MetricsHook{observer: observer, clock: clock}
}

func (h *MetricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.observer.ObserveDialError()
		}
		return conn, err
	}
}

func (h *MetricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := h.clock.Now()
		err := next(ctx, cmd)
		h.observer.ObserveCommand(cmd.Name(), h.clock.Since(start), commandError(err))
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := h.clock.Now()
		err := next(ctx, cmds)
		h.observer.ObserveCommand("pipeline", h.clock.Since(start), commandError(err))
		return err
	}
}

func commandError(err error) error {
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}
