package middlewarex

import (
	"log/slog"
	"net/http"

	"campus_auction/pkg/contextx"
	"campus_auction/pkg/logx"
)

// ContextLogger кладёт в контекст запроса логгер с trace-id. Ставится после TraceID.
func ContextLogger(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := base

			if traceID, err := contextx.TraceIDFromContext(ctx); err == nil {
				log = log.With(slog.String(logx.FieldTraceID, traceID.String()))
			}

			next.ServeHTTP(w, r.WithContext(contextx.WithLogger(ctx, log)))
		})
	}
}
