package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
)

// Config agrega os limites utilizados pelo serviço de rate limiting.
type Config struct {
	DefaultRule domain.RateLimitRule
	ScopeRules  map[string]domain.RateLimitRule
}

// RateLimiterService implementa a lógica central de rate limiting.
type RateLimiterService struct {
	storage ports.Storage
	config  Config
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(storage ports.Storage, cfg Config) (*RateLimiterService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.DefaultRule.Requests <= 0 || cfg.DefaultRule.Window <= 0 {
		return nil, fmt.Errorf("default rule must have positive values")
	}
	if cfg.ScopeRules == nil {
		cfg.ScopeRules = make(map[string]domain.RateLimitRule)
	}
	for scope, rule := range cfg.ScopeRules {
		if rule.Requests <= 0 || rule.Window <= 0 {
			return nil, fmt.Errorf("rule for scope %s must have positive values", scope)
		}
	}

	return &RateLimiterService{storage: storage, config: cfg}, nil
}

// Allow avalia se a requisição pode prosseguir de acordo com as regras configuradas.
// Dentro de uma janela são permitidas rule.Requests chamadas; a seguinte é rejeitada.
func (s *RateLimiterService) Allow(ctx context.Context, req domain.RateLimitRequest) (domain.Decision, error) {
	rule, keys, err := s.resolveRule(req)
	if err != nil {
		return domain.Decision{}, err
	}

	if rule.BlockDuration > 0 {
		blocked, err := s.storage.IsBlocked(ctx, keys.blockKey)
		if err != nil {
			return domain.Decision{}, err
		}
		if blocked {
			return domain.Decision{Allowed: false, Identifier: keys.identifier, AppliedRule: rule}, domain.ErrBlocked
		}
	}

	currentCount, err := s.storage.Increment(ctx, keys.counterKey, rule.Window)
	if err != nil {
		return domain.Decision{}, err
	}

	if int(currentCount) > rule.Requests {
		if rule.BlockDuration > 0 {
			if setErr := s.storage.SetBlock(ctx, keys.blockKey, rule.BlockDuration); setErr != nil {
				return domain.Decision{}, setErr
			}
		}
		return domain.Decision{Allowed: false, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}, domain.ErrBlocked
	}

	return domain.Decision{Allowed: true, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}, nil
}

type resolvedKeys struct {
	counterKey string
	blockKey   string
	identifier string
}

func (s *RateLimiterService) resolveRule(req domain.RateLimitRequest) (domain.RateLimitRule, resolvedKeys, error) {
	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		return domain.RateLimitRule{}, resolvedKeys{}, fmt.Errorf("client identity is required")
	}

	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		scope = "default"
	}

	rule, ok := s.config.ScopeRules[scope]
	if !ok {
		rule = s.config.DefaultRule
	}

	return rule, buildKeys(scope, identity), nil
}

func buildKeys(prefix, identifier string) resolvedKeys {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return resolvedKeys{
		counterKey: fmt.Sprintf("ratelimit:%s:%s", prefix, identifier),
		blockKey:   fmt.Sprintf("ratelimit:%s:%s:block", prefix, identifier),
		identifier: identifier,
	}
}
