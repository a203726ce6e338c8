// Package config loads fetchkit settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/fetchkit/pkg/client"
	"github.com/Sternrassler/fetchkit/pkg/pokeapi"
	"github.com/Sternrassler/fetchkit/pkg/senate"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config holds process settings. Zero values are never valid; use Load.
type Config struct {
	UserAgent       string
	HTTPTimeout     time.Duration
	HTTPMaxAttempts int

	// RedisURL enables the response cache and shared throttle state.
	// Either a redis:// URL or a bare host:port.
	RedisURL string

	LogLevel  string
	LogPretty bool

	PokeAPIBaseURL string
	WikiBaseURL    string

	// Port for serve mode.
	Port string
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	env := envReader{getenv: getenv}

	cfg := Config{
		UserAgent:       env.getEnv("USER_AGENT", client.DefaultUserAgent),
		HTTPTimeout:     env.getDuration("HTTP_TIMEOUT", 30*time.Second),
		HTTPMaxAttempts: env.getInt("HTTP_MAX_ATTEMPTS", client.DefaultRetryConfig().MaxAttempts),
		RedisURL:        env.getEnv("REDIS_URL", ""),
		LogLevel:        env.getEnv("LOG_LEVEL", "info"),
		LogPretty:       env.getBool("LOG_PRETTY", false),
		PokeAPIBaseURL:  env.getEnv("POKEAPI_BASE_URL", pokeapi.DefaultBaseURL),
		WikiBaseURL:     env.getEnv("WIKI_BASE_URL", senate.DefaultBaseURL),
		Port:            env.getEnv("PORT", "8080"),
	}

	if env.err != nil {
		return Config{}, env.err
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_TIMEOUT must be positive (got %s)", cfg.HTTPTimeout)
	}
	if cfg.HTTPMaxAttempts < 1 {
		return Config{}, fmt.Errorf("HTTP_MAX_ATTEMPTS must be >= 1 (got %d)", cfg.HTTPMaxAttempts)
	}

	return cfg, nil
}

// ClientConfig derives the shared HTTP client configuration.
// Cache and Throttle are left for the caller to attach.
func (c Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.Timeout = c.HTTPTimeout
	cfg.Retry.MaxAttempts = c.HTTPMaxAttempts
	return cfg
}

// RedisOptions parses RedisURL. It returns nil options when Redis is not
// configured.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}

// envReader keeps the first parse error so Load reports one clear message.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(e.getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid duration %q: %w", key, raw, err))
		return defaultValue
	}
	return d
}

func (e *envReader) getInt(key string, defaultValue int) int {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid integer %q: %w", key, raw, err))
		return defaultValue
	}
	return n
}

func (e *envReader) getBool(key string, defaultValue bool) bool {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid boolean %q: %w", key, raw, err))
		return defaultValue
	}
	return b
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
