// Package router compõe o roteador HTTP: API JSON, arquivos estáticos e o
// conjunto fixo de middlewares aplicados a toda requisição.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/handlers"
	"github.com/leminkozey/whoami/internal/adapters/http/middleware"
	"github.com/leminkozey/whoami/internal/adapters/http/respond"
	"github.com/leminkozey/whoami/internal/core/ports"
)

const GuestbookScope = "guestbook"

type Deps struct {
	Logger    zerolog.Logger
	Visitors  ports.VisitorCounter
	Guestbook ports.Guestbook
	Limiter   ports.RateLimiter
	Identity  *middleware.IdentityResolver
	Static    http.Handler

	SiteOrigin   string
	MaxURLLength int
	MaxBodyBytes int64
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.URLGuard(d.MaxURLLength))
	r.Use(d.Identity.Middleware)

	visitors := handlers.NewVisitorsHandler(d.Visitors)
	guestbook := handlers.NewGuestbookHandler(d.Guestbook, d.MaxBodyBytes)

	r.Route("/api", func(api chi.Router) {
		api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			respond.Error(w, http.StatusNotFound, "Not found")
		})
		api.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		})

		api.Get("/visitors", visitors.ServeHTTP)
		api.Get("/guestbook", guestbook.List)
		api.With(
			middleware.OriginGuard(d.SiteOrigin),
			middleware.NewRateLimiterMiddleware(d.Limiter, GuestbookScope),
		).Post("/guestbook", guestbook.Submit)
	})

	r.Get("/*", d.Static.ServeHTTP)
	r.Head("/*", d.Static.ServeHTTP)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Text(w, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Text(w, http.StatusMethodNotAllowed)
	})

	return r
}
