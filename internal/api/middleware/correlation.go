package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// Header names accepted for an inbound correlation ID, in lookup order.
// The first is also the one echoed back.
var correlationHeaders = []string{"X-Correlation-ID", "X-Request-ID"}

// CorrelationID reuses the caller's correlation ID or generates one, stores
// it on the request context and echoes it in the response so an event
// publish or email request can be traced into the worker logs.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		for _, h := range correlationHeaders {
			if id = r.Header.Get(h); id != "" {
				break
			}
		}
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(correlationHeaders[0], id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// GetCorrelationID returns "" when the middleware was not applied.
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}
