package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/fetchkit/internal/config"
	"github.com/Sternrassler/fetchkit/pkg/cache"
	"github.com/Sternrassler/fetchkit/pkg/client"
	"github.com/Sternrassler/fetchkit/pkg/logging"
	"github.com/Sternrassler/fetchkit/pkg/pokeapi"
	"github.com/Sternrassler/fetchkit/pkg/ratelimit"
	"github.com/Sternrassler/fetchkit/pkg/senate"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires the shared client and both pipelines from one Config.
type app struct {
	cfg     config.Config
	redis   *redis.Client
	cache   *cache.Manager
	http    *client.Client
	pokemon *pokeapi.Fetcher
	scraper *senate.Scraper
	logger  zerolog.Logger
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.NewLogger("fetchkit"),
	}

	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	clientCfg := cfg.ClientConfig()
	if opts != nil {
		a.redis = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		a.cache = cache.NewManager(a.redis)
		clientCfg.Cache = a.cache
	}
	// in-memory gate when redis is nil
	clientCfg.Throttle = ratelimit.NewTracker(a.redis, logging.NewLogger("throttle"))

	a.http, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create http client: %w", err)
	}

	a.pokemon = pokeapi.NewFetcher(a.http, cfg.PokeAPIBaseURL, logging.NewLogger("pokeapi"))
	a.scraper = senate.NewScraper(a.http, senate.Config{BaseURL: cfg.WikiBaseURL}, logging.NewLogger("senate"))

	a.logger.Debug().
		Str("user_agent", cfg.UserAgent).
		Dur("timeout", cfg.HTTPTimeout).
		Int("max_attempts", cfg.HTTPMaxAttempts).
		Bool("cache", a.cache != nil).
		Msg("Initialized")

	return a, nil
}

// pinger reports readiness of the cache backend; nil when there is none.
func (a *app) pinger() pinger {
	if a.cache == nil {
		return nil
	}
	return a.cache
}

func (a *app) Close() error {
	if a.http != nil {
		a.http.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
