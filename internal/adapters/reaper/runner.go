// Package reaper periodically removes expired rows from the PostgreSQL session store.
package reaper

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/target/tenant-auth/internal/observability/metrics"
	"github.com/target/tenant-auth/internal/observability/statsd"
)

// Purger deletes expired sessions and reports how many rows were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Purger   Purger
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Runner drives the purge loop.
type Runner struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewRunner creates a new session reaper with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Purger == nil {
		return nil, errors.New("purger is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		purger:   opts.Purger,
		interval: opts.Interval,
		logger:   opts.Logger.With("component", "session_reaper"),
		metrics:  opts.Metrics,
	}, nil
}

// Run purges once after a small jitter and then on every tick until ctx is cancelled.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session reaper", "interval", r.interval)

	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.PurgeOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce runs a single purge pass and returns the number of rows removed.
// Errors are logged and counted, never returned, so the loop keeps running.
func (r *Runner) PurgeOnce(ctx context.Context) int64 {
	start := time.Now()
	n, err := r.purger.PurgeExpired(ctx)

	m := metrics.PurgeMetric{Deleted: n, Duration: time.Since(start), Err: err, Result: metrics.ResultSuccess}
	switch {
	case err != nil:
		m.Result = metrics.ResultError
		if ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "session purge failed", "error", err)
		}
	case n == 0:
		m.Result = metrics.ResultNoop
	default:
		r.logger.DebugContext(ctx, "purged expired sessions", "count", n)
	}
	metrics.EmitSessionPurge(r.metrics, m)
	return n
}

// waitWithJitter delays up to 10% of the interval so replicas do not purge in lockstep.
func (r *Runner) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
