package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/handlers"
	"github.com/leminkozey/whoami/internal/adapters/http/middleware"
	"github.com/leminkozey/whoami/internal/adapters/http/router"
	"github.com/leminkozey/whoami/internal/adapters/storage/jsonfile"
	"github.com/leminkozey/whoami/internal/adapters/storage/memory"
	redisstorage "github.com/leminkozey/whoami/internal/adapters/storage/redis"
	"github.com/leminkozey/whoami/internal/config"
	"github.com/leminkozey/whoami/internal/core/domain"
	"github.com/leminkozey/whoami/internal/core/ports"
	"github.com/leminkozey/whoami/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	counterStore := jsonfile.NewCounterStore(cfg.CounterFile(), logger)
	counterStore.Load()

	guestbookStore := jsonfile.NewGuestbookStore(cfg.GuestbookFile(), logger)
	guestbookStore.Load()

	visitors, err := services.NewVisitorService(counterStore, logger)
	if err != nil {
		return fmt.Errorf("create visitor service: %w", err)
	}

	guestbook, err := services.NewGuestbookService(guestbookStore, logger)
	if err != nil {
		return fmt.Errorf("create guestbook service: %w", err)
	}

	storage, closeFn, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeFn()

	limiter, err := services.NewRateLimiterService(storage, services.Config{
		DefaultRule: cfg.RateLimiter.GuestbookRule,
		ScopeRules: map[string]domain.RateLimitRule{
			router.GuestbookScope: cfg.RateLimiter.GuestbookRule,
		},
	})
	if err != nil {
		return fmt.Errorf("create limiter: %w", err)
	}

	identity, err := middleware.NewIdentityResolver(cfg.Site.IdentitySalt, cfg.Site.TrustedProxies)
	if err != nil {
		return fmt.Errorf("create identity resolver: %w", err)
	}

	static, err := handlers.NewStaticHandler(cfg.Site.ProjectRoot, logger)
	if err != nil {
		return fmt.Errorf("create static handler: %w", err)
	}

	handler := router.New(router.Deps{
		Logger:       logger,
		Visitors:     visitors,
		Guestbook:    guestbook,
		Limiter:      limiter,
		Identity:     identity,
		Static:       static,
		SiteOrigin:   cfg.Site.Origin,
		MaxURLLength: middleware.DefaultMaxURLLength,
		MaxBodyBytes: handlers.DefaultMaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr()).
			Str("root", cfg.Site.ProjectRoot).
			Int64("visitors", counterStore.Count()).
			Int("guestbook", guestbookStore.Len()).
			Msg("serving")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	counterStore.Wait()
	guestbookStore.Wait()
	logger.Info().Msg("pending writes flushed")
	return nil
}

func initStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ports.Storage, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		storage := memory.New(logger)
		go storage.Run(ctx, cfg.RateLimiter.SweepInterval)
		return storage, func() {}, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:      net.JoinHostPort(cfg.Storage.Redis.Host, strconv.Itoa(cfg.Storage.Redis.Port)),
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: "whoami:",
		}
		storage, err := redisstorage.New(redisCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis storage")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
