// Package ratelimit implements a shared throttle gate driven by server
// back-pressure. A 429 or 503 answer carrying Retry-After blocks further
// requests until the advertised time has passed.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyBlockedUntil = "fetchkit:throttle:blocked_until"
	RedisKeyLastStatus   = "fetchkit:throttle:last_status"
	RedisKeyLastUpdate   = "fetchkit:throttle:last_update"
)

const (
	// DefaultRetryAfter applies when a throttling response carries no usable Retry-After.
	DefaultRetryAfter = 5 * time.Second

	// DefaultMaxWait caps a single Wait so a hostile Retry-After cannot stall a run.
	DefaultMaxWait = 30 * time.Second
)

// ThrottleState is the current back-pressure state.
type ThrottleState struct {
	// BlockedUntil is the earliest time the next request may be sent.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastStatus is the status code that last moved BlockedUntil.
	LastStatus int `json:"last_status"`

	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked reports whether requests must currently wait.
func (s *ThrottleState) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// TimeUntilUnblocked returns the remaining wait, or 0 if not blocked.
func (s *ThrottleState) TimeUntilUnblocked() time.Duration {
	d := time.Until(s.BlockedUntil)
	if d < 0 {
		return 0
	}
	return d
}

// IsThrottleStatus reports whether a status code signals back-pressure.
func IsThrottleStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// ParseRetryAfter parses a Retry-After value given either as delay-seconds
// or as an HTTP date. ok is false for empty or malformed values.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
