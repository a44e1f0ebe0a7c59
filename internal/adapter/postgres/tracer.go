package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
)

// QueryObserver receives one observation per finished query.
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// QueryTracer implements pgx.QueryTracer and reports query timings to an observer.
type QueryTracer struct {
	observer QueryObserver
	clock    clockwork.Clock
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(observer QueryObserver, clock clockwork.Clock) *QueryTracer {
	return &QueryTracer{observer: observer, clock: clock}
}

type queryContextKey struct{}

type queryContext struct {
	start     time.Time
	operation string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{
		start:     t.clock.Now(),
		operation: queryOperation(data.SQL),
	})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}
	t.observer.ObserveQuery(qctx.operation, t.clock.Since(qctx.start), data.Err)
}

// queryOperation reduces SQL to its leading keyword to keep label cardinality low.
func queryOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
