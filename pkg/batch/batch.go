package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchkit_batch_jobs_total",
		Help: "Total batch jobs by outcome",
	}, []string{"outcome"})

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetchkit_batch_jobs_in_flight",
		Help: "Number of batch jobs currently running",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetchkit_batch_duration_seconds",
		Help:    "Wall time of a complete batch run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// Config holds batch runner configuration.
type Config struct {
	// MaxConcurrency is the maximum number of jobs running at once.
	// 10 keeps per-page lookups polite towards Wikipedia.
	MaxConcurrency int

	// Timeout per job
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = def.MaxConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// Job is a unit of work placed at Index in the results.
type Job[T any] struct {
	Index int
	// Label identifies the job in logs.
	Label string
	Do    func(ctx context.Context) (T, error)
}

// Result is the outcome of the job at Index.
type Result[T any] struct {
	Index int
	Value T
	Err   error
	// Submitted is false for indices no job was given for.
	Submitted bool
}

// call runs job.Do and turns a panic into an error for that job alone.
func call[T any](ctx context.Context, job Job[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("job %q panicked: %v", job.Label, r)
		}
	}()
	return job.Do(ctx)
}

// Run executes jobs with at most cfg.MaxConcurrency in flight and returns a
// slice of length size. Jobs whose Index falls outside [0, size) or repeats
// an earlier job's Index are dropped. Run returns once every accepted job has
// finished; cancelling ctx makes jobs that have not started yet fail fast.
func Run[T any](ctx context.Context, cfg Config, size int, jobs []Job[T]) []Result[T] {
	cfg = cfg.withDefaults()
	start := time.Now()

	results := make([]Result[T], size)
	for i := range results {
		results[i].Index = i
	}

	var g errgroup.Group
	g.SetLimit(cfg.MaxConcurrency)

	submitted := 0
	for _, job := range jobs {
		if job.Index < 0 || job.Index >= size || results[job.Index].Submitted {
			log.Warn().
				Int("index", job.Index).
				Str("job", job.Label).
				Msg("Dropping batch job with invalid index")
			continue
		}
		results[job.Index].Submitted = true
		submitted++

		// each goroutine owns exactly one slot
		slot := &results[job.Index]
		g.Go(func() error {
			jobsInFlight.Inc()
			defer jobsInFlight.Dec()

			jobCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			if err := jobCtx.Err(); err != nil {
				slot.Err = err
				jobsTotal.WithLabelValues("cancelled").Inc()
				return nil
			}

			value, err := call(jobCtx, job)
			slot.Value = value
			slot.Err = err

			if err != nil {
				jobsTotal.WithLabelValues("failed").Inc()
				log.Debug().
					Err(err).
					Int("index", job.Index).
					Str("job", job.Label).
					Msg("Batch job failed")
				return nil
			}
			jobsTotal.WithLabelValues("succeeded").Inc()
			return nil
		})
	}

	// jobs report failure through their slot, never through the group
	_ = g.Wait()

	elapsed := time.Since(start)
	batchDuration.Observe(elapsed.Seconds())

	log.Debug().
		Int("size", size).
		Int("submitted", submitted).
		Int("workers", cfg.MaxConcurrency).
		Dur("duration", elapsed).
		Msg("Batch complete")

	return results
}
