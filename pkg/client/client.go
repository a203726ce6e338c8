// Package client provides the shared HTTP client used by the fetch
// pipelines: identifying User-Agent, request timeout, bounded retry with
// backoff, optional Redis response caching and a back-pressure gate.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/fetchkit/pkg/cache"
	"github.com/Sternrassler/fetchkit/pkg/logging"
	"github.com/Sternrassler/fetchkit/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_requests_total",
		Help: "Total HTTP requests by host and status",
	}, []string{"host", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetchkit_request_duration_seconds",
		Help:    "HTTP request duration in seconds by host, including retries",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"host"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_errors_total",
		Help: "Total request errors by class",
	}, []string{"class"})
)

// DefaultUserAgent identifies the tool to remote servers.
const DefaultUserAgent = "fetchkit/0.1.0 (educational project)"

// Client performs HTTP requests for the fetch pipelines.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	throttle   *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// UserAgent is sent with every request (REQUIRED)
	UserAgent string

	// Timeout bounds a single attempt, including reading the body.
	Timeout time.Duration

	Retry RetryConfig

	// Cache enables Redis response caching for GET requests (optional).
	Cache *cache.Manager

	// Throttle honors 429/503 Retry-After across requests (optional).
	Throttle *ratelimit.Tracker
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:    cfg.Cache,
		throttle: cfg.Throttle,
		config:   cfg,
		logger:   logging.NewLogger("http-client"),
	}, nil
}

// Do performs an HTTP request with caching, throttling, retries and error
// classification. Any received response is returned, including 4xx; the
// caller owns and must close its body. 5xx, 429 and network failures are
// retried and surface as errors once attempts are exhausted.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	host := req.URL.Host
	target := req.URL.String()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(host).Observe(time.Since(startTime).Seconds())
	}()

	useCache := c.cache != nil && req.Method == http.MethodGet
	cacheKey := cache.KeyForURL(target)

	var cachedEntry *cache.CacheEntry
	if useCache {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cachedEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("url", target).Msg("Cache get error")
		}
	}

	if cachedEntry != nil {
		if !cache.ShouldMakeConditionalRequest(cachedEntry) {
			c.logger.Debug().Str("url", target).Msg("Serving fresh cache entry")
			requestsTotal.WithLabelValues(host, "cache").Inc()
			return cache.EntryToResponse(cachedEntry, req), nil
		}
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("url", target).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Str("url", target).
		Str("method", req.Method).
		Msg("Executing request")

	var resp *http.Response
	attempt := 0

	retryErr := retryWithBackoff(ctx, c.config.Retry, func() (ErrorClass, error) {
		attempt++
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return "", fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		if c.throttle != nil {
			if err := c.throttle.Wait(ctx); err != nil {
				return "", fmt.Errorf("throttle wait: %w", err)
			}
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("url", target).Int("attempt", attempt).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(host, "network_error").Inc()
			resp = nil
			return ErrorClassNetwork, reqErr
		}

		if c.throttle != nil {
			if err := c.throttle.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update throttle state")
			}
		}

		requestsTotal.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode < 400 {
			return "", nil
		}

		errClass := ClassifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("url", target).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Request returned error status")

		if !shouldRetry(errClass) {
			// Permanent; the caller decides what a 4xx means.
			return "", nil
		}

		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			URL:        target,
			Message:    resp.Status,
		}
		drainAndClose(resp)
		resp = nil
		return errClass, httpErr
	})

	if retryErr != nil {
		if resp != nil {
			drainAndClose(resp)
		}
		c.logger.Error().Err(retryErr).Str("url", target).Msg("Request failed")
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("url", target).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if err := c.cache.Refresh(ctx, cacheKey, cache.Expiry(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cached response")
		}

		drainAndClose(resp)
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if useCache && cache.Cacheable(resp) {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			// ResponseToEntry could not restore the body; the response is unusable.
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("url", target).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request to an absolute URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetBody performs a GET and returns the body. Any status >= 400 is
// returned as *HTTPError.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			ErrorClass: ClassifyStatus(resp.StatusCode),
			URL:        url,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
// The configured timeout is kept when the given client has none.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Timeout == 0 {
		client.Timeout = c.config.Timeout
	}
	c.httpClient = client
}

// UserAgent returns the configured User-Agent.
func (c *Client) UserAgent() string {
	return c.config.UserAgent
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
