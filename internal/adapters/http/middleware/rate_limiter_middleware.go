// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

const rateLimitExceededMessage = "Too many requests. Please wait a minute and try again."

// NewRateLimiterMiddleware limita as requisições por identidade do cliente dentro
// do escopo informado. Depende de ClientIdentity ter rodado antes.
func NewRateLimiterMiddleware(limiter ports.RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			identity := IdentityFromContext(r.Context())

			decision, err := limiter.Allow(r.Context(), domain.RateLimitRequest{Scope: scope, Identity: identity})
			if err != nil {
				if domain.IsBlockedError(err) {
					writeTooManyRequests(w)
					return
				}

				zerolog.Ctx(r.Context()).Error().Err(err).Str("scope", scope).Msg("rate limiter failed")
				respond.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			if !decision.Allowed {
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter) {
	respond.Error(w, http.StatusTooManyRequests, rateLimitExceededMessage)
}
