package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
)

// Recoverer turns a handler panic into a plain 500 and logs it, with the stack,
// through the request-scoped logger. http.ErrAbortHandler is re-raised so the
// server can drop the connection as usual.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			zerolog.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("handler panicked")

			respond.Text(w, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
