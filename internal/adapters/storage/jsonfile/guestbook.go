package jsonfile

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

type guestbookDocument struct {
	Entries []domain.GuestbookEntry `json:"entries"`
}

// GuestbookStore guarda as assinaturas em ordem de inserção, com um índice por
// hash de identidade para detectar duplicatas.
type GuestbookStore struct {
	mu         sync.Mutex
	entries    []domain.GuestbookEntry
	identities map[string]struct{}
	maxEntries int
	file       *atomicFile
	logger     zerolog.Logger
}

var _ ports.GuestbookStore = (*GuestbookStore)(nil)

type GuestbookOption func(*GuestbookStore)

// WithMaxEntries altera o limite de entradas (padrão domain.MaxEntries).
func WithMaxEntries(n int) GuestbookOption {
	return func(s *GuestbookStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func NewGuestbookStore(path string, logger zerolog.Logger, opts ...GuestbookOption) *GuestbookStore {
	s := &GuestbookStore{
		identities: make(map[string]struct{}),
		maxEntries: domain.MaxEntries,
		file:       newAtomicFile(path),
		logger:     logger.With().Str("component", "guestbook-store").Str("file", path).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load lê o arquivo no startup. Arquivo ausente ou corrompido resulta em guestbook vazio.
func (s *GuestbookStore) Load() {
	var doc guestbookDocument
	err := s.file.load(&doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.identities = make(map[string]struct{})

	switch {
	case err == nil:
	case isNotExist(err):
		s.logger.Info().Msg("no guestbook on disk, starting empty")
		return
	default:
		s.logger.Warn().Err(err).Msg("could not load guestbook, starting empty")
		return
	}

	s.entries = make([]domain.GuestbookEntry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		s.entries = append(s.entries, entry)
		if entry.IdentityHash != "" {
			s.identities[entry.IdentityHash] = struct{}{}
		}
	}
	s.logger.Info().Int("entries", len(s.entries)).Msg("guestbook loaded")
}

// Recent devolve até limit entradas, da mais nova para a mais antiga.
func (s *GuestbookStore) Recent(limit int) []domain.PublicEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(limit, len(s.entries))
	out := make([]domain.PublicEntry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i].Public())
	}
	return out
}

// Append grava a entrada se a identidade ainda não assinou e há espaço livre.
func (s *GuestbookStore) Append(entry domain.GuestbookEntry) (<-chan error, error) {
	s.mu.Lock()
	if _, exists := s.identities[entry.IdentityHash]; exists {
		s.mu.Unlock()
		return nil, domain.ErrDuplicateEntry
	}
	if len(s.entries) >= s.maxEntries {
		s.mu.Unlock()
		return nil, domain.ErrGuestbookFull
	}
	s.entries = append(s.entries, entry)
	s.identities[entry.IdentityHash] = struct{}{}
	s.mu.Unlock()

	return s.file.persist(s.snapshot), nil
}

func (s *GuestbookStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Wait bloqueia até que todas as escritas agendadas terminem.
func (s *GuestbookStore) Wait() {
	s.file.wait()
}

func (s *GuestbookStore) snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.GuestbookEntry, len(s.entries))
	copy(entries, s.entries)
	return guestbookDocument{Entries: entries}
}
