package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// GuestbookService valida, sanitiza e grava assinaturas do guestbook.
type GuestbookService struct {
	store  ports.GuestbookStore
	logger zerolog.Logger
	now    func() time.Time
}

var _ ports.Guestbook = (*GuestbookService)(nil)

type GuestbookOption func(*GuestbookService)

// WithClock substitui o relógio usado para datar as entradas.
func WithClock(now func() time.Time) GuestbookOption {
	return func(s *GuestbookService) {
		s.now = now
	}
}

func NewGuestbookService(store ports.GuestbookStore, logger zerolog.Logger, opts ...GuestbookOption) (*GuestbookService, error) {
	if store == nil {
		return nil, fmt.Errorf("guestbook store is required")
	}
	s := &GuestbookService{
		store:  store,
		logger: logger.With().Str("component", "guestbook").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List devolve as entradas mais recentes primeiro, sem o hash de identidade.
func (s *GuestbookService) List(_ context.Context) []domain.PublicEntry {
	return s.store.Recent(domain.PublicListLimit)
}

// Submit grava uma nova assinatura. Os comprimentos são verificados no texto cru,
// antes do escape de HTML.
func (s *GuestbookService) Submit(_ context.Context, rawName, rawMessage, identity string) (domain.PublicEntry, error) {
	if identity == "" {
		return domain.PublicEntry{}, fmt.Errorf("client identity is required")
	}

	message := strings.TrimSpace(rawMessage)
	if message == "" {
		return domain.PublicEntry{}, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > domain.MaxMessageLength {
		return domain.PublicEntry{}, fmt.Errorf("%w (max %d characters)", domain.ErrMessageTooLong, domain.MaxMessageLength)
	}

	name := strings.TrimSpace(rawName)
	if name == "" {
		name = domain.AnonymousName
	}
	name = truncateRunes(name, domain.MaxNameLength)

	entry := domain.GuestbookEntry{
		Name:         Sanitize(name),
		Message:      Sanitize(message),
		Date:         s.now().UTC().Format(domain.DateLayout),
		IdentityHash: identity,
	}

	persisted, err := s.store.Append(entry)
	if err != nil {
		return domain.PublicEntry{}, err
	}
	go logPersist(s.logger, persisted, "guestbook")

	s.logger.Info().Int("entries", s.store.Len()).Msg("guestbook signed")
	return entry.Public(), nil
}

// Sanitize escapa os caracteres significativos em HTML.
func Sanitize(s string) string {
	return htmlEscaper.Replace(s)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
