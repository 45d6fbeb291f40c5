package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"metricsindexer/apps/indexer/internal/logger"
)

const CorrelationHeader = "X-Correlation-ID"

// CorrelationID tags each request with an id taken from the request header or
// generated, and logs the request.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := logger.WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start)) // #nosec G706
	})
}
