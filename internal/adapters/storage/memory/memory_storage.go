// Package memory disponibiliza a implementação do storage do rate limiter em memória.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/ports"
)

type window struct {
	count   int64
	resetAt time.Time
}

// Storage keeps fixed-window counters and block markers for the lifetime of the process.
type Storage struct {
	mu       sync.Mutex
	counters map[string]window
	blocks   map[string]time.Time
	now      func() time.Time
	logger   zerolog.Logger
}

var _ ports.Storage = (*Storage)(nil)

type Option func(*Storage)

// WithClock substitui o relógio, útil em testes.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

func New(logger zerolog.Logger, opts ...Option) *Storage {
	s := &Storage{
		counters: make(map[string]window),
		blocks:   make(map[string]time.Time),
		now:      time.Now,
		logger:   logger.With().Str("component", "ratelimit-memory").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.counters[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(ttl)}
	}
	w.count++
	s.counters[key] = w
	return w.count, nil
}

func (s *Storage) IsBlocked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.blocks[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.blocks, key)
		return false, nil
	}
	return true, nil
}

func (s *Storage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if duration <= 0 {
		delete(s.blocks, key)
		return nil
	}
	s.blocks[key] = s.now().Add(duration)
	return nil
}

// Sweep removes expired windows and blocks and returns how many keys were dropped.
func (s *Storage) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.counters {
		if !now.Before(w.resetAt) {
			delete(s.counters, key)
			removed++
		}
	}
	for key, until := range s.blocks {
		if !now.Before(until) {
			delete(s.blocks, key)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked keys.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters) + len(s.blocks)
}

// Run sweeps on every tick until ctx is done.
func (s *Storage) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("swept expired rate limit windows")
			}
		}
	}
}
