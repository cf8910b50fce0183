// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/leminkozey/whoami/internal/core/domain"
)

const (
	CounterFileName   = "visitors.json"
	GuestbookFileName = "guestbook.json"

	defaultSalt = "whoami-guestbook-v1"
)

type Config struct {
	Server      ServerConfig
	Site        SiteConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SiteConfig struct {
	ProjectRoot    string
	DataDir        string
	Origin         string
	IdentitySalt   string
	TrustedProxies []string
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimiterConfig struct {
	GuestbookRule domain.RateLimitRule
	SweepInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server, err := buildServerConfig()
	if err != nil {
		return Config{}, err
	}

	site, err := buildSiteConfig()
	if err != nil {
		return Config{}, err
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: server,
		Site:   site,
		Storage: StorageConfig{
			Type:  strings.ToLower(getEnv("STORAGE_TYPE", "memory")),
			Redis: redisConfig,
		},
		RateLimiter: rateLimiterConfig,
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate verifica combinações que os parsers individuais não conseguem checar.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %q", c.Server.Port)
	}
	switch c.Storage.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Site.ProjectRoot == "" {
		return fmt.Errorf("project root is required")
	}
	if c.RateLimiter.GuestbookRule.Requests <= 0 || c.RateLimiter.GuestbookRule.Window <= 0 {
		return fmt.Errorf("guestbook rate limit must have positive values")
	}
	return nil
}

// Addr é o endereço de escuta do servidor HTTP.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c Config) CounterFile() string {
	return filepath.Join(c.Site.DataDir, CounterFileName)
}

func (c Config) GuestbookFile() string {
	return filepath.Join(c.Site.DataDir, GuestbookFileName)
}

func buildServerConfig() (ServerConfig, error) {
	readSeconds, err := strconv.Atoi(getEnv("SERVER_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid SERVER_TIMEOUT_SECONDS: %w", err)
	}
	idleSeconds, err := strconv.Atoi(getEnv("SERVER_KEEPALIVE_SECONDS", "15"))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid SERVER_KEEPALIVE_SECONDS: %w", err)
	}

	return ServerConfig{
		Host:         getEnv("SERVER_HOST", "127.0.0.1"),
		Port:         getEnv("SERVER_PORT", "8081"),
		ReadTimeout:  time.Duration(readSeconds) * time.Second,
		WriteTimeout: time.Duration(readSeconds) * time.Second,
		IdleTimeout:  time.Duration(idleSeconds) * time.Second,
	}, nil
}

func buildSiteConfig() (SiteConfig, error) {
	root := getEnv("PROJECT_ROOT", "")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return SiteConfig{}, fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("invalid PROJECT_ROOT: %w", err)
	}

	dataDir, err := filepath.Abs(getEnv("DATA_DIR", root))
	if err != nil {
		return SiteConfig{}, fmt.Errorf("invalid DATA_DIR: %w", err)
	}

	return SiteConfig{
		ProjectRoot:    root,
		DataDir:        dataDir,
		Origin:         strings.TrimSuffix(getEnv("SITE_ORIGIN", "https://leminkozey.me"), "/"),
		IdentitySalt:   getEnv("IDENTITY_SALT", defaultSalt),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1/32,::1/128")),
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	requests, err := strconv.Atoi(getEnv("RATE_LIMIT_GUESTBOOK_REQUESTS", "5"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_GUESTBOOK_REQUESTS: %w", err)
	}
	windowSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_GUESTBOOK_WINDOW_SECONDS", "60"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_GUESTBOOK_WINDOW_SECONDS: %w", err)
	}
	sweepMinutes, err := strconv.Atoi(getEnv("RATE_LIMIT_SWEEP_MINUTES", "5"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_MINUTES: %w", err)
	}
	if sweepMinutes <= 0 {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_MINUTES: must be positive")
	}

	return RateLimiterConfig{
		GuestbookRule: domain.RateLimitRule{
			Requests: requests,
			Window:   time.Duration(windowSeconds) * time.Second,
		},
		SweepInterval: time.Duration(sweepMinutes) * time.Minute,
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
