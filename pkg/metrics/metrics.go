// Package metrics documents the Prometheus metrics exposed by fetchkit.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, batch, pokeapi, senate) to maintain modularity and avoid
// circular dependencies.
//
// This package provides the gatherer served on /metrics and the reference list.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer serves the registered metrics on /metrics.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric fetchkit registers, in documentation order.
var Names = []string{
	"fetchkit_throttle_events_total",
	"fetchkit_throttle_waits_total",
	"fetchkit_throttle_wait_seconds",
	"fetchkit_cache_hits_total",
	"fetchkit_cache_misses_total",
	"fetchkit_cache_written_bytes_total",
	"fetchkit_304_responses_total",
	"fetchkit_conditional_requests_total",
	"fetchkit_cache_errors_total",
	"fetchkit_requests_total",
	"fetchkit_request_duration_seconds",
	"fetchkit_errors_total",
	"fetchkit_retries_total",
	"fetchkit_retry_backoff_seconds",
	"fetchkit_retry_exhausted_total",
	"fetchkit_batch_jobs_total",
	"fetchkit_batch_jobs_in_flight",
	"fetchkit_batch_duration_seconds",
	"fetchkit_pokemon_fetches_total",
	"fetchkit_senate_website_lookups_total",
}

// Metrics Documentation
//
// Throttle Metrics (pkg/ratelimit):
//   - fetchkit_throttle_events_total{status} (Counter): 429/503 responses that set a back-off
//   - fetchkit_throttle_waits_total (Counter): Requests delayed by an active back-off
//   - fetchkit_throttle_wait_seconds (Histogram): Time spent waiting for the gate
//
// Cache Metrics (pkg/cache):
//   - fetchkit_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - fetchkit_cache_misses_total (Counter): Cache misses
//   - fetchkit_cache_written_bytes_total{layer="redis"} (Counter): Bytes written to the cache
//   - fetchkit_304_responses_total (Counter): 304 Not Modified responses
//   - fetchkit_conditional_requests_total (Counter): Conditional requests sent
//   - fetchkit_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - fetchkit_requests_total{host, status} (Counter): Requests by host and HTTP status
//   - fetchkit_request_duration_seconds{host} (Histogram): Request duration by host
//   - fetchkit_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - fetchkit_retries_total{error_class} (Counter): Retry attempts by error class
//   - fetchkit_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - fetchkit_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Batch Metrics (pkg/batch):
//   - fetchkit_batch_jobs_total{outcome} (Counter): Jobs by outcome (succeeded, failed, cancelled)
//   - fetchkit_batch_jobs_in_flight (Gauge): Jobs currently running
//   - fetchkit_batch_duration_seconds (Histogram): Wall time of a batch
//
// Pipeline Metrics (pkg/pokeapi, pkg/senate):
//   - fetchkit_pokemon_fetches_total{outcome} (Counter): Pokemon lookups by outcome
//   - fetchkit_senate_website_lookups_total{outcome} (Counter): Website lookups (found, missing, failed, skipped)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(fetchkit_cache_hits_total[5m])) /
//   (sum(rate(fetchkit_cache_hits_total[5m])) + sum(rate(fetchkit_cache_misses_total[5m])))
//
//   # Website lookup failure ratio
//   sum(rate(fetchkit_senate_website_lookups_total{outcome="failed"}[1h])) /
//   sum(rate(fetchkit_senate_website_lookups_total[1h]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(fetchkit_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(fetchkit_304_responses_total[5m]) / rate(fetchkit_requests_total[5m])
