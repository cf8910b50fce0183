// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/leminkozey/whoami/internal/core/domain"
)

type RateLimiter interface {
	Allow(ctx context.Context, req domain.RateLimitRequest) (domain.Decision, error)
}

type VisitorCounter interface {
	Visit(ctx context.Context, visited bool) (domain.VisitResult, error)
}

type Guestbook interface {
	List(ctx context.Context) []domain.PublicEntry
	Submit(ctx context.Context, rawName, rawMessage, identity string) (domain.PublicEntry, error)
}
