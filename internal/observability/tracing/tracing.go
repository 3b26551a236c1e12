package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const TraceIDHeader = "X-Trace-Id"

func InjectTraceID(ctx context.Context) context.Context {
	return InjectGivenTraceID(ctx, uuid.New().String())
}

// InjectGivenTraceID reuses a trace id received from a caller.
func InjectGivenTraceID(ctx context.Context, id string) context.Context {
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}
