// Package query is the read API over the loaded prediction snapshot. Every
// lookup takes a department name as spelled by the caller and resolves it
// through the canonical key, so boundary-file, dataset, and user spellings
// meet at the same record.
package query

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/couchcryptid/energy-atlas-service/internal/observability"
)

const (
	// DefaultEnergyValue stands in for an unknown energy share so map color
	// scales always receive a number.
	DefaultEnergyValue = 0.2

	// DefaultMapZoomThreshold is the zoom below which the map shows only
	// featured municipalities.
	DefaultMapZoomThreshold = 2.5
)

// EnergyType selects a department energy share.
type EnergyType string

const (
	EnergySolar   EnergyType = "solar"
	EnergyEolico  EnergyType = "eolico"
	EnergyHibrido EnergyType = "hibrido"
)

// Valid reports whether t names a known energy type.
func (t EnergyType) Valid() bool {
	switch t {
	case EnergySolar, EnergyEolico, EnergyHibrido:
		return true
	}
	return false
}

// Loader provides the shared snapshot, loading it on first use.
type Loader interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// Service answers department and municipality queries. Every result is a
// copy, so callers may modify it without touching the shared snapshot.
type Service struct {
	store         Loader
	logger        *slog.Logger
	metrics       *observability.Metrics
	zoomThreshold float64
}

// Option configures a Service.
type Option func(*Service)

// WithZoomThreshold overrides DefaultMapZoomThreshold.
func WithZoomThreshold(z float64) Option {
	return func(s *Service) { s.zoomThreshold = z }
}

// New creates a query service reading from store.
func New(store Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		store:         store,
		logger:        logger,
		metrics:       metrics,
		zoomThreshold: DefaultMapZoomThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MunicipiosByDepartment returns the department's municipalities in dataset
// order. An unmatched name yields an empty slice, not an error.
func (s *Service) MunicipiosByDepartment(ctx context.Context, raw string) ([]domain.MunicipalityRecord, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	key := domain.NormalizeDepartmentName(raw)
	munis := snap.Indexes.MunicipiosByDept[key]
	if len(munis) == 0 {
		s.miss("municipios_by_department", raw, key)
		return []domain.MunicipalityRecord{}, nil
	}
	return domain.CloneMunicipios(munis), nil
}

// DepartmentData returns the enriched aggregate, or nil when the name does not
// match any department.
func (s *Service) DepartmentData(ctx context.Context, raw string) (*domain.EnrichedDepartmentAggregate, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.department(snap, "department_data", raw), nil
}

// EnergyValue returns the department's share of the given energy type. It
// never fails: a miss, an absent or non-finite share, an unknown type, or a
// load failure all yield DefaultEnergyValue. An explicit zero is a real share
// and is returned as 0, never replaced by the default.
func (s *Service) EnergyValue(ctx context.Context, raw string, typ EnergyType) float64 {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("energy value unavailable, using default",
			"department", raw, "type", typ, "error", err)
		return DefaultEnergyValue
	}

	dept := s.department(snap, "energy_value", raw)
	if dept == nil {
		return DefaultEnergyValue
	}

	var share *float64
	switch typ {
	case EnergySolar:
		share = dept.SolarPct
	case EnergyEolico:
		share = dept.EolicaPct
	case EnergyHibrido:
		share = dept.HibridaPct
	default:
		s.logger.Debug("unknown energy type", "type", typ)
		return DefaultEnergyValue
	}

	if share == nil || math.IsNaN(*share) || math.IsInf(*share, 0) {
		return DefaultEnergyValue
	}
	return *share
}

// MunicipioByDane returns one municipality by DANE code, or nil.
func (s *Service) MunicipioByDane(ctx context.Context, code int) (*domain.MunicipalityRecord, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	m, ok := snap.Indexes.MunicipiosByDane[code]
	if !ok {
		s.metrics.LookupMisses.WithLabelValues("municipio_by_dane").Inc()
		s.logger.Debug("municipality not found", "dane_code", code)
		return nil, nil
	}
	m = m.Clone()
	return &m, nil
}

// DepartmentAggregates returns every enriched aggregate in dataset order.
func (s *Service) DepartmentAggregates(ctx context.Context) ([]domain.EnrichedDepartmentAggregate, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return snap.DepartmentAggregates(), nil
}

// DatasetStats returns the dataset metadata.
func (s *Service) DatasetStats(ctx context.Context) (domain.Metadata, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Metadata{}, err
	}
	meta := snap.Dataset.Metadata
	meta.FeatureColumns = slices.Clone(meta.FeatureColumns)
	return meta, nil
}

// DepartmentRecommendation returns the advisory text for a department, or
// domain.NoDataRecommendation when the name does not match.
func (s *Service) DepartmentRecommendation(ctx context.Context, raw string) (string, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}

	dept := s.department(snap, "department_recommendation", raw)
	if dept == nil {
		return domain.NoDataRecommendation, nil
	}
	return domain.Recommend(dept.DepartmentAggregateRecord), nil
}

func (s *Service) department(snap *domain.Snapshot, op, raw string) *domain.EnrichedDepartmentAggregate {
	key := domain.NormalizeDepartmentName(raw)
	agg, ok := snap.Indexes.DeptAggregatesByDept[key]
	if !ok {
		s.miss(op, raw, key)
		return nil
	}
	agg = agg.Clone()
	return &agg
}

func (s *Service) miss(op, raw string, key domain.CanonicalKey) {
	s.metrics.LookupMisses.WithLabelValues(op).Inc()
	s.logger.Debug("department not found", "operation", op, "department", raw, "canonical_key", key)
}
