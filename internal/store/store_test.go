package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/couchcryptid/energy-atlas-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `{
  "municipios": [
    {"departamento": "LA GUAJIRA", "municipio": "RIOHACHA", "codigo_dane_municipio": 44001,
     "latitud": 11.5, "longitud": -72.9, "predicted_class": "eolica", "prob_eolica": 0.9}
  ],
  "departamentos": [
    {"departamento": "La Guajira", "num_municipios": 1, "dominant_class": "eolica"}
  ]
}`

// fakeSource serves a fixed document, optionally failing or blocking first.
type fakeSource struct {
	calls atomic.Int32
	gate  chan struct{}
	fail  func(call int32) error
}

func (f *fakeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	n := f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail != nil {
		if err := f.fail(n); err != nil {
			return nil, err
		}
	}
	return io.NopCloser(strings.NewReader(testDocument)), nil
}

func (f *fakeSource) Name() string { return "fake" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(src Source, opts ...Option) (*Store, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return New(src, testLogger(), m, opts...), m
}

func TestLoad_Singleton(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	s, m := newTestStore(src)

	const callers = 8
	results := make([]*domain.Snapshot, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := s.Load(context.Background())
			assert.NoError(t, err)
			results[i] = snap
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.NotNil(t, results[0])
	for _, snap := range results[1:] {
		assert.Same(t, results[0], snap)
	}
	assert.Equal(t, int32(1), src.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetFetches), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IndexedMunicipios), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IndexedDepartments), 0)

	again, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoad_BuildsIndexes(t *testing.T) {
	s, _ := newTestStore(&fakeSource{})

	snap, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fake", snap.Source)
	assert.Len(t, snap.Indexes.MunicipiosByDept["LA GUAJIRA"], 1)
	agg, ok := snap.Indexes.DeptAggregatesByDept["LA GUAJIRA"]
	require.True(t, ok)
	require.NotNil(t, agg.GeographicInfo.Center)
	assert.Equal(t, domain.LatLng{Lat: 11.5, Lng: -72.9}, *agg.GeographicInfo.Center)
}

func TestLoad_FailureIsNotCached(t *testing.T) {
	errUnavailable := errors.New("connection refused")
	src := &fakeSource{fail: func(call int32) error {
		if call == 1 {
			return errUnavailable
		}
		return nil
	}}
	s, m := newTestStore(src)

	_, err := s.Load(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "fake", loadErr.Source)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Contains(t, err.Error(), "load dataset from fake")

	_, ok := s.Get()
	assert.False(t, ok)
	require.Error(t, s.CheckReadiness(context.Background()))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("success")), 0)
}

func TestLoad_FailureSharedByWaiters(t *testing.T) {
	errUnavailable := errors.New("503 from origin")
	src := &fakeSource{
		gate: make(chan struct{}),
		fail: func(int32) error { return errUnavailable },
	}
	s, _ := newTestStore(src)

	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, err := range errs {
		var loadErr *LoadError
		assert.ErrorAs(t, err, &loadErr)
		assert.ErrorIs(t, err, errUnavailable)
	}
}

func TestLoad_MalformedDocument(t *testing.T) {
	s, _ := newTestStore(sourceFunc(func() string { return `<html>Bad Gateway</html>` }))

	_, err := s.Load(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, domain.ErrMalformedDataset)
}

func TestLoad_CallerCancelDoesNotAbortFlight(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	s, _ := newTestStore(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Load(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(src.gate)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoad_Timeout(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	s, _ := newTestStore(src, WithLoadTimeout(20*time.Millisecond))

	_, err := s.Load(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoad_StampsLoadedAt(t *testing.T) {
	loadedAt := time.Date(2025, 9, 14, 10, 32, 11, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(loadedAt)
	s, _ := newTestStore(&fakeSource{}, WithClock(clock))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, loadedAt, snap.LoadedAt)
}

func TestReset(t *testing.T) {
	src := &fakeSource{}
	s, _ := newTestStore(src)

	first, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.CheckReadiness(context.Background()))

	s.Reset()
	_, ok := s.Get()
	assert.False(t, ok)

	second, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestGet_DoesNotLoad(t *testing.T) {
	src := &fakeSource{}
	s, _ := newTestStore(src)

	snap, ok := s.Get()
	assert.False(t, ok)
	assert.Nil(t, snap)
	assert.Equal(t, int32(0), src.calls.Load())
}

type sourceFunc func() string

func (f sourceFunc) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f())), nil
}

func (f sourceFunc) Name() string { return "func" }
