// Package redis disponibiliza a implementação do storage baseada em Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/core/ports"
)

type Storage struct {
	client    *redis.Client
	keyPrefix string
	logger    zerolog.Logger
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix isola as chaves deste site quando o Redis é compartilhado.
	KeyPrefix string
}

func New(cfg Config, logger zerolog.Logger) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis")

	return &Storage{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With().Str("component", "ratelimit-redis").Logger(),
	}, nil
}

func (s *Storage) Close() error {
	s.logger.Debug().Msg("closing redis connection")
	return s.client.Close()
}

// Increment conta dentro de uma janela fixa: o TTL só é definido na primeira
// chamada, então a janela não é estendida por chamadas seguintes.
func (s *Storage) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	key = s.keyPrefix + key
	pipe := s.client.TxPipeline()
	counter := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis increment %s: %w", key, err)
	}
	return counter.Val(), nil
}

func (s *Storage) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) SetBlock(ctx context.Context, key string, duration time.Duration) error {
	key = s.keyPrefix + key
	if duration <= 0 {
		return s.client.Del(ctx, key).Err()
	}
	return s.client.Set(ctx, key, "1", duration).Err()
}
