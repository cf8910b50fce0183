// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"

	"github.com/leminkozey/whoami/internal/core/domain"
)

// Storage guarda os contadores do rate limiter.
type Storage interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	IsBlocked(ctx context.Context, key string) (bool, error)
	SetBlock(ctx context.Context, key string, duration time.Duration) error
}

// CounterStore persiste o contador de visitantes. O canal retornado por Increment
// recebe o resultado da escrita em disco.
type CounterStore interface {
	Count() int64
	Increment() (int64, <-chan error)
}

// GuestbookStore persiste as assinaturas do guestbook.
type GuestbookStore interface {
	Recent(limit int) []domain.PublicEntry
	Append(entry domain.GuestbookEntry) (<-chan error, error)
	Len() int
}
