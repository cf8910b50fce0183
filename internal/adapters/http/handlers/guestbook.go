package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/middleware"
	"github.com/leminkozey/whoami/internal/adapters/http/respond"
	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

const DefaultMaxBodyBytes int64 = 1024

type guestbookListResponse struct {
	Entries []domain.PublicEntry `json:"entries"`
}

type guestbookSubmitRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type guestbookSubmitResponse struct {
	Success bool               `json:"success"`
	Entry   domain.PublicEntry `json:"entry"`
}

// GuestbookHandler serve GET e POST /api/guestbook.
type GuestbookHandler struct {
	guestbook    ports.Guestbook
	maxBodyBytes int64
}

func NewGuestbookHandler(guestbook ports.Guestbook, maxBodyBytes int64) *GuestbookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &GuestbookHandler{guestbook: guestbook, maxBodyBytes: maxBodyBytes}
}

func (h *GuestbookHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.guestbook.List(r.Context())
	if entries == nil {
		entries = []domain.PublicEntry{}
	}
	respond.JSON(w, http.StatusOK, guestbookListResponse{Entries: entries})
}

// Submit expects the origin and rate-limit middlewares to have run already.
func (h *GuestbookHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.Header().Set("Connection", "close")
			respond.Error(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		logger.Debug().Err(err).Msg("reading guestbook body failed")
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var req guestbookSubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	entry, err := h.guestbook.Submit(r.Context(), req.Name, req.Message, identity)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, guestbookSubmitResponse{Success: true, Entry: entry})
	case errors.Is(err, domain.ErrEmptyMessage):
		respond.Error(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, domain.ErrMessageTooLong):
		respond.Error(w, http.StatusBadRequest, "Message must be 100 characters or less")
	case errors.Is(err, domain.ErrDuplicateEntry):
		respond.Error(w, http.StatusConflict, "You have already signed the guestbook")
	case errors.Is(err, domain.ErrGuestbookFull):
		respond.Error(w, http.StatusConflict, "Guestbook is full")
	default:
		logger.Error().Err(err).Msg("guestbook submit failed")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
