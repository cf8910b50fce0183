// Package handlers agrupa os handlers HTTP da API e dos arquivos estáticos.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
	"github.com/leminkozey/whoami/internal/core/ports"
)

const (
	VisitedCookieName = "visited"
	visitedCookieAge  = 24 * 60 * 60
)

type visitorsResponse struct {
	Count int64 `json:"count"`
}

// VisitorsHandler serve GET /api/visitors.
type VisitorsHandler struct {
	counter ports.VisitorCounter
}

func NewVisitorsHandler(counter ports.VisitorCounter) *VisitorsHandler {
	return &VisitorsHandler{counter: counter}
}

func (h *VisitorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visited := false
	if c, err := r.Cookie(VisitedCookieName); err == nil && c.Value != "" {
		visited = true
	}

	result, err := h.counter.Visit(r.Context(), visited)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("visitor count failed")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if result.FirstVisit {
		http.SetCookie(w, &http.Cookie{
			Name:     VisitedCookieName,
			Value:    "1",
			Path:     "/",
			MaxAge:   visitedCookieAge,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	respond.JSON(w, http.StatusOK, visitorsResponse{Count: result.Count})
}
