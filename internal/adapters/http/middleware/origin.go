package middleware

import (
	"net/http"
	"strings"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
)

// OriginGuard rejects browser submissions coming from another site. Requests
// without an Origin header (curl, same-origin GET forms) pass through.
func OriginGuard(allowed string) func(http.Handler) http.Handler {
	allowed = strings.TrimSuffix(allowed, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !strings.EqualFold(strings.TrimSuffix(origin, "/"), allowed) {
				respond.Error(w, http.StatusBadRequest, "Invalid origin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
