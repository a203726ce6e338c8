package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/fetchkit/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss is returned when no fresh response is stored for a URL.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned for a stored value that no longer decodes.
	// The value is removed so the next response replaces it.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager stores responses in Redis, keyed by request URL.
type Manager struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewManager creates a cache on redisClient, which must not be nil.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:  redisClient,
		logger: logging.NewLogger("cache"),
	}
}

// Get returns the stored response for key, or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, m.miss(key, "absent")
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key.URL, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		m.logger.Warn().Err(err).Str("url", key.URL).Msg("Dropping unreadable cache entry")
		m.redis.Del(ctx, key.String())
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidEntry, key.URL, err)
	}

	// Redis expiry is second-granular; Expires is authoritative.
	if entry.IsExpired() {
		m.redis.Del(ctx, key.String())
		return nil, m.miss(key, "expired")
	}

	CacheHits.WithLabelValues("redis").Inc()
	m.logger.Debug().Str("url", key.URL).Dur("ttl", entry.TTL()).Msg("Cache hit")
	return &entry, nil
}

func (m *Manager) miss(key CacheKey, reason string) error {
	CacheMisses.Inc()
	m.logger.Debug().Str("url", key.URL).Str("reason", reason).Msg("Cache miss")
	return ErrCacheMiss
}

// Set stores entry until its Expires time. An entry with nothing left to
// live (max-age=0, a past Expires) is not written and any older copy under
// the same URL is removed.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry for %s cannot be nil", key.URL)
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		m.logger.Debug().Str("url", key.URL).Msg("Response already stale, not cached")
		return m.Delete(ctx, key)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("encode cache entry for %s: %w", key.URL, err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key.URL, err)
	}

	CacheBytesWritten.WithLabelValues("redis").Add(float64(len(data)))
	m.logger.Debug().
		Str("url", key.URL).
		Dur("ttl", ttl).
		Int("bytes", len(data)).
		Msg("Response cached")
	return nil
}

// Delete removes the stored response for key, if any.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key.URL, err)
	}
	return nil
}

// Refresh moves the expiry of a stored response after the upstream answered
// 304 Not Modified. Use Expiry on the 304's headers for expires. A refresh
// to a time that has already passed drops the entry.
func (m *Manager) Refresh(ctx context.Context, key CacheKey, expires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = expires
	return m.Set(ctx, key, entry)
}

// Ping checks that the backing Redis is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}
