package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"namereg/pkg/domain"
)

// TokenValidator resolves a bearer token to the principal it names.
type TokenValidator interface {
	PrincipalFromToken(tokenString string) (domain.Principal, error)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers and tests.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the calling principal from the context. Requests that
// carried no credentials resolve to the anonymous principal.
func GetPrincipal(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal)
	if !ok {
		return domain.Anonymous
	}
	return p
}

// WithPrincipal returns a context carrying the given principal. Used by tests
// and by the middleware below.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// Identify resolves the Authorization header to a principal and stores it in
// the request context. Requests without a header proceed as anonymous; the
// services decide which operations anonymous callers may perform. A header
// that is present but invalid is rejected outright.
func Identify(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, domain.Anonymous)))
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.PrincipalFromToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", chimw.GetReqID(ctx),
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":3,"message":"` + description + `"}}`))
}
