package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

// VisitorService conta visitantes únicos com base no cookie de marcação.
type VisitorService struct {
	store  ports.CounterStore
	logger zerolog.Logger
}

var _ ports.VisitorCounter = (*VisitorService)(nil)

func NewVisitorService(store ports.CounterStore, logger zerolog.Logger) (*VisitorService, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	return &VisitorService{
		store:  store,
		logger: logger.With().Str("component", "visitors").Logger(),
	}, nil
}

// Visit incrementa o contador apenas quando o cliente ainda não carrega o marcador.
// A escrita em disco não é aguardada.
func (s *VisitorService) Visit(_ context.Context, visited bool) (domain.VisitResult, error) {
	if visited {
		return domain.VisitResult{Count: s.store.Count()}, nil
	}

	count, persisted := s.store.Increment()
	go logPersist(s.logger, persisted, "visitor count")

	return domain.VisitResult{Count: count, FirstVisit: true}, nil
}

func logPersist(logger zerolog.Logger, persisted <-chan error, what string) {
	if err := <-persisted; err != nil {
		logger.Error().Err(err).Msgf("failed to persist %s", what)
	}
}
