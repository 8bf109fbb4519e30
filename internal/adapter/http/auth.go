package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tripfolio/providerhub/internal/domain"
)

// TokenVerifier turns a bearer credential into an authenticated principal.
// Identity issuance lives outside this service.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type principalKey struct{}

// PrincipalFromContext returns the authenticated principal for the request.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal. Exported for tests
// that exercise handlers without the middleware stack.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// RequireAuth authenticates every /api/v1 request via the bearer token.
// Docs, OpenAPI, and health paths stay open. Failures answer 401 with the
// standard error body including the correlation id.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized request, missing bearer token",
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(ctx),
				)
				writeUnauthorized(ctx, w, "missing or invalid Authorization header")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request, token rejected",
					"path", r.URL.Path,
					"error", err,
					"request_id", RequestIDFromContext(ctx),
				)
				writeUnauthorized(ctx, w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

func writeUnauthorized(ctx context.Context, w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(&APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    msg,
		RequestID:  RequestIDFromContext(ctx),
		Code:       codeUnauthorized,
	})
}
