// Package store owns the process-wide prediction snapshot. The dataset is
// fetched lazily on first use, indexed once, and shared read-only afterwards.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/couchcryptid/energy-atlas-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Source fetches the raw prediction document.
type Source interface {
	// Open returns a reader over the dataset. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name describes the source for logs and errors, e.g. a path or URL.
	Name() string
}

// LoadError reports that the dataset could not be fetched or is invalid.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

const flightKey = "dataset"

// Store loads the dataset at most once per successful flight and caches the
// resulting snapshot.
type Store struct {
	source      Source
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	loadTimeout time.Duration

	group    singleflight.Group
	snapshot atomic.Pointer[domain.Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used to stamp snapshots.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLoadTimeout bounds a single fetch-and-index flight. Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) { s.loadTimeout = d }
}

// New creates a Store reading from src.
func New(src Source, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		source:  src,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached snapshot, fetching it first if needed. Concurrent
// callers share one in-flight fetch and receive the same snapshot or the same
// error. A failed load is not cached, so the next call retries.
//
// Each caller stops waiting when its own ctx is done; the shared fetch keeps
// running for the others.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}

	ch := s.group.DoChan(flightKey, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the cached snapshot without triggering a load.
func (s *Store) Get() (*domain.Snapshot, bool) {
	snap := s.snapshot.Load()
	return snap, snap != nil
}

// Reset drops the cached snapshot so the next Load fetches again.
func (s *Store) Reset() {
	s.snapshot.Store(nil)
	s.group.Forget(flightKey)
}

// CheckReadiness returns nil once a snapshot is cached.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.snapshot.Load() == nil {
		return errors.New("prediction dataset has not been loaded yet")
	}
	return nil
}

func (s *Store) fetch(ctx context.Context) (*domain.Snapshot, error) {
	// A caller that missed the fast path may arrive after the previous flight
	// already stored a snapshot.
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}

	if s.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loadTimeout)
		defer cancel()
	}

	start := s.clock.Now()
	s.metrics.DatasetFetches.Inc()

	ds, err := s.read(ctx)
	if err != nil {
		s.metrics.DatasetLoads.WithLabelValues("error").Inc()
		s.logger.Error("dataset load failed", "source", s.source.Name(), "error", err)
		return nil, &LoadError{Source: s.source.Name(), Err: err}
	}

	snap := &domain.Snapshot{
		Dataset:  ds,
		Indexes:  domain.BuildIndexes(ds),
		LoadedAt: s.clock.Now(),
		Source:   s.source.Name(),
	}
	s.snapshot.Store(snap)

	s.metrics.DatasetLoads.WithLabelValues("success").Inc()
	s.metrics.DatasetLoadDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.IndexedMunicipios.Set(float64(len(ds.Municipios)))
	s.metrics.IndexedDepartments.Set(float64(len(snap.Indexes.DeptAggregatesByDept)))
	s.logger.Info("dataset loaded",
		"source", s.source.Name(),
		"municipios", len(ds.Municipios),
		"departamentos", len(ds.Departamentos),
		"department_keys", len(snap.Indexes.MunicipiosByDept),
	)
	return snap, nil
}

func (s *Store) read(ctx context.Context) (domain.Dataset, error) {
	rc, err := s.source.Open(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	return domain.DecodeDataset(rc)
}
