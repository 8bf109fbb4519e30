package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader is read from the request when a caller supplies its own
// correlation id, and always set on the response.
const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID attaches a request-scoped correlation id to the context and
// echoes it on the response header. Error bodies additionally surface it as
// requestId so a blocked user's report can be traced to one decision in the
// logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the correlation id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
