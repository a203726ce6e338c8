package client

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetchkit_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass adjusts base for an error class. Rate limiting
// starts from a longer backoff; everything else uses base unchanged.
func RetryConfigForErrorClass(base RetryConfig, errorClass ErrorClass) RetryConfig {
	cfg := base
	if errorClass == ErrorClassRateLimit {
		cfg.InitialBackoff = base.InitialBackoff * 4
		if cfg.MaxBackoff > 0 && cfg.InitialBackoff > cfg.MaxBackoff {
			cfg.InitialBackoff = cfg.MaxBackoff
		}
	}
	return cfg
}

// backoffFor returns the un-jittered backoff before attempt+1.
func backoffFor(cfg RetryConfig, attempt int) time.Duration {
	mult := cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(cfg.InitialBackoff) * math.Pow(mult, float64(attempt-1)))
	if cfg.MaxBackoff > 0 && d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	return d
}

// retryWithBackoff executes fn with exponential backoff retry logic.
// fn reports the class of its failure so only retriable classes are retried.
// It respects context cancellation and adds jitter to prevent thundering herd.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() (ErrorClass, error)) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	var lastClass ErrorClass

	for attempt := 1; attempt <= attempts; attempt++ {
		errorClass, err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = errorClass

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		if !shouldRetry(errorClass) {
			return lastErr
		}

		if attempt >= attempts {
			break
		}

		retriesTotal.WithLabelValues(string(errorClass)).Inc()

		// ±20% jitter
		backoff := backoffFor(RetryConfigForErrorClass(cfg, errorClass), attempt)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

		log.Debug().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	log.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
