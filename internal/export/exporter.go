// Package export publishes the enriched department aggregates of the loaded
// snapshot so downstream consumers (dashboards, the map frontend's cache) do
// not have to recompute geography themselves.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/couchcryptid/energy-atlas-service/internal/observability"
)

// Loader provides the shared snapshot.
type Loader interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// Publisher writes department aggregates to the destination.
type Publisher interface {
	PublishDepartments(ctx context.Context, loadedAt time.Time, aggs []domain.EnrichedDepartmentAggregate) error
}

const (
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxAttempts    = 8
)

// Exporter loads the snapshot and publishes its aggregates once, retrying
// with exponential backoff.
type Exporter struct {
	loader    Loader
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxAttempts    int
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBackoff sets the first retry delay and its cap.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(e *Exporter) {
		e.initialBackoff = initial
		e.maxBackoff = maxBackoff
	}
}

// WithMaxAttempts bounds how many times each step is tried.
func WithMaxAttempts(n int) Option {
	return func(e *Exporter) { e.maxAttempts = n }
}

// New creates an Exporter.
func New(l Loader, p Publisher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Exporter {
	e := &Exporter{
		loader:         l,
		publisher:      p,
		logger:         logger,
		metrics:        metrics,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		maxAttempts:    defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.maxAttempts = max(e.maxAttempts, 1)
	return e
}

// Run exports the current snapshot. It returns nil once the aggregates are
// written or when ctx is cancelled, and an error after the attempts for the
// load or publish step are exhausted.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("department export started", "max_attempts", e.maxAttempts)

	var snap *domain.Snapshot
	err := e.retry(ctx, "load snapshot", func() error {
		var err error
		snap, err = e.loader.Load(ctx)
		return err
	})
	if err != nil {
		return stopped(ctx, err)
	}

	aggs := snap.DepartmentAggregates()
	err = e.retry(ctx, "publish aggregates", func() error {
		if err := e.publisher.PublishDepartments(ctx, snap.LoadedAt, aggs); err != nil {
			e.metrics.ExportMessages.WithLabelValues("error").Add(float64(len(aggs)))
			return err
		}
		return nil
	})
	if err != nil {
		return stopped(ctx, err)
	}

	e.metrics.ExportMessages.WithLabelValues("success").Add(float64(len(aggs)))
	e.logger.Info("department export complete", "departments", len(aggs), "loaded_at", snap.LoadedAt)
	return nil
}

// retry runs fn until it succeeds, ctx is cancelled, or maxAttempts is hit.
func (e *Exporter) retry(ctx context.Context, step string, fn func() error) error {
	backoff := e.initialBackoff
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Error(step+" failed", "error", err, "attempt", attempt)
		if attempt == e.maxAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, e.maxBackoff)
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", step, e.maxAttempts, err)
}

// stopped treats shutdown as a clean exit.
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
