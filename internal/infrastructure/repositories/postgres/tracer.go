package postgres

import (
	"context"
	"strings"

	"queuecast/pkg/tracing"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// queryTracer opens a client span per statement on every pooled connection.
type queryTracer struct{}

var _ pgx.QueryTracer = queryTracer{}

func (queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = tracing.TraceDatabaseOperation(ctx, statementVerb(data.SQL), strings.TrimSpace(data.SQL))
	return ctx
}

func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if data.Err != nil {
		tracing.RecordError(ctx, data.Err)
	}
	trace.SpanFromContext(ctx).End()
}

// statementVerb returns the lower-cased leading keyword of a statement.
func statementVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "query"
	}
	return strings.ToLower(fields[0])
}
