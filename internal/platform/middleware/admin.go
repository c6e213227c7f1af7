package middleware

import (
	"net/http"

	"namereg/pkg/domain"
)

// RequireAdmin rejects requests whose principal is not in the configured admin
// set. Must run after Identify.
func RequireAdmin(admins []domain.Principal) func(http.Handler) http.Handler {
	allowed := make(map[domain.Principal]struct{}, len(admins))
	for _, p := range admins {
		allowed[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if _, ok := allowed[p]; !ok || p.IsAnonymous() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":{"code":4,"message":"caller is not an administrator"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
