package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/observability/tracing"
)

// traceMiddleware attaches a logger carrying the trace id to the request
// context. A trace id sent by the caller is kept.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if traceID := r.Header.Get(tracing.TraceIDHeader); traceID != "" {
			ctx = tracing.InjectGivenTraceID(ctx, traceID)
		} else {
			ctx = tracing.InjectTraceID(ctx)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// metricsMiddleware observes the duration of every request under its route
// pattern, so path parameters do not blow up label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observe := metrics.StartHttpRequestDurationTimer()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		observe(endpoint, ww.Status())
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Msg("request served")
	})
}
