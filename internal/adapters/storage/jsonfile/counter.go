package jsonfile

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/ports"
)

type counterDocument struct {
	Count int64 `json:"count"`
}

// CounterStore mantém o contador de visitantes entre reinícios do processo.
type CounterStore struct {
	mu     sync.Mutex
	count  int64
	file   *atomicFile
	logger zerolog.Logger
}

var _ ports.CounterStore = (*CounterStore)(nil)

func NewCounterStore(path string, logger zerolog.Logger) *CounterStore {
	return &CounterStore{
		file:   newAtomicFile(path),
		logger: logger.With().Str("component", "counter-store").Str("file", path).Logger(),
	}
}

// Load lê o arquivo no startup. Arquivo ausente ou corrompido resulta em zero.
func (s *CounterStore) Load() {
	var doc counterDocument
	err := s.file.load(&doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.count = max(doc.Count, 0)
	case isNotExist(err):
		s.count = 0
		s.logger.Info().Msg("no visitor count on disk, starting at zero")
	default:
		s.count = 0
		s.logger.Warn().Err(err).Msg("could not load visitor count, starting at zero")
	}
}

func (s *CounterStore) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Increment soma um ao contador e agenda a persistência. O canal recebe o
// resultado da escrita.
func (s *CounterStore) Increment() (int64, <-chan error) {
	s.mu.Lock()
	s.count++
	count := s.count
	s.mu.Unlock()

	return count, s.file.persist(s.snapshot)
}

// Wait bloqueia até que todas as escritas agendadas terminem.
func (s *CounterStore) Wait() {
	s.file.wait()
}

func (s *CounterStore) snapshot() any {
	return counterDocument{Count: s.Count()}
}
