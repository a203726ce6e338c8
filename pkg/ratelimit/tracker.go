package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	throttleEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_throttle_events_total",
		Help: "Throttling responses received by status code",
	}, []string{"status"})

	throttleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchkit_throttle_waits_total",
		Help: "Total number of requests delayed by the throttle gate",
	})

	throttleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetchkit_throttle_wait_seconds",
		Help:    "Time spent waiting in the throttle gate",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	})
)

// Tracker stores throttle state and gates requests on it.
// With a Redis client the state is shared across processes; without one it
// lives in memory.
type Tracker struct {
	redis   *redis.Client
	logger  zerolog.Logger
	maxWait time.Duration

	mu    sync.Mutex
	local ThrottleState
}

// NewTracker creates a new throttle tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:   redisClient,
		logger:  logger,
		maxWait: DefaultMaxWait,
	}
}

// SetMaxWait overrides the cap applied to a single Wait.
func (t *Tracker) SetMaxWait(d time.Duration) {
	if d > 0 {
		t.maxWait = d
	}
}

// GetState returns the current throttle state. A missing Redis state is
// reported as unblocked.
func (t *Tracker) GetState(ctx context.Context) (*ThrottleState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		state := t.local
		return &state, nil
	}

	blockedUntil, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No throttle state in Redis, treating as unblocked")
		return &ThrottleState{}, nil
	}

	lastStatus, err := t.redis.Get(ctx, RedisKeyLastStatus).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last status: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return &ThrottleState{
		BlockedUntil: time.UnixMilli(blockedUntil),
		LastStatus:   lastStatus,
		LastUpdate:   lastUpdate,
	}, nil
}

// UpdateFromResponse records back-pressure from a response. Statuses other
// than 429 and 503 are ignored. The blocked-until time only moves forward.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	if !IsThrottleStatus(status) {
		return nil
	}

	now := time.Now()
	delay, ok := ParseRetryAfter(headers.Get("Retry-After"), now)
	if !ok {
		delay = DefaultRetryAfter
	}

	throttleEventsTotal.WithLabelValues(fmt.Sprintf("%d", status)).Inc()

	state, err := t.advance(ctx, ThrottleState{
		BlockedUntil: now.Add(delay),
		LastStatus:   status,
		LastUpdate:   now,
	})
	if err != nil {
		return err
	}

	t.logger.Warn().
		Int("status", status).
		Dur("retry_after", delay).
		Time("blocked_until", state.BlockedUntil).
		Msg("Server requested back-off")

	return nil
}

// advance stores next, keeping the later of the current and next
// blocked-until times, and returns what was stored.
func (t *Tracker) advance(ctx context.Context, next ThrottleState) (ThrottleState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.local.BlockedUntil.After(next.BlockedUntil) {
			next.BlockedUntil = t.local.BlockedUntil
		}
		t.local = next
		return next, nil
	}

	current, err := t.GetState(ctx)
	if err != nil {
		return ThrottleState{}, err
	}
	if current.BlockedUntil.After(next.BlockedUntil) {
		next.BlockedUntil = current.BlockedUntil
	}
	if err := t.storeRedis(ctx, next); err != nil {
		return ThrottleState{}, err
	}
	return next, nil
}

func (t *Tracker) storeRedis(ctx context.Context, state ThrottleState) error {

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// keys expire once the block is over plus a small margin
	ttl := time.Until(state.BlockedUntil) + time.Minute

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyBlockedUntil, state.BlockedUntil.UnixMilli(), ttl)
	pipe.Set(ctx, RedisKeyLastStatus, state.LastStatus, ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}
	return nil
}

// Wait blocks until the gate is open, the max wait elapses, or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get throttle state: %w", err)
	}

	d := state.TimeUntilUnblocked()
	if d <= 0 {
		return nil
	}
	if d > t.maxWait {
		d = t.maxWait
	}

	t.logger.Warn().
		Dur("wait", d).
		Int("last_status", state.LastStatus).
		Msg("Throttled - delaying request")
	throttleWaitsTotal.Inc()
	throttleWaitSeconds.Observe(d.Seconds())

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
