package source

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	municipiosQuery = `
		SELECT
			codigo_dane_municipio,
			municipio,
			departamento,
			latitud,
			longitud,
			altitud_msnm,
			radiacion_kwhm2_dia,
			viento_ms,
			temperatura_c,
			predicted_class,
			prob_solar,
			prob_eolica,
			prob_hibrida,
			tipo_red,
			source_label
		FROM municipio_predictions
		ORDER BY codigo_dane_municipio`

	departamentosQuery = `
		SELECT
			departamento,
			num_municipios,
			dominant_class,
			solar_pct,
			eolica_pct,
			hibrida_pct,
			zni_pct,
			unknown_pct,
			high_confidence_pct,
			avg_solar_prob,
			avg_eolica_prob,
			avg_hibrida_prob
		FROM department_predictions
		ORDER BY departamento`

	metadataQuery = `
		SELECT generated_at, model_type, feature_columns
		FROM prediction_metadata
		ORDER BY generated_at DESC
		LIMIT 1`
)

// Postgres reads the dataset from the tables the training job publishes to.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres opens a connection pool. The connection itself is established
// lazily on the first query.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Open queries all three tables and serves the result as a JSON document.
func (p *Postgres) Open(ctx context.Context) (io.ReadCloser, error) {
	ds, err := p.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(ds); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return io.NopCloser(&buf), nil
}

// Dataset queries the prediction tables directly.
func (p *Postgres) Dataset(ctx context.Context) (domain.Dataset, error) {
	var munis []municipioRow
	if err := p.db.SelectContext(ctx, &munis, municipiosQuery); err != nil {
		return domain.Dataset{}, fmt.Errorf("query municipio_predictions: %w", err)
	}

	var depts []departamentoRow
	if err := p.db.SelectContext(ctx, &depts, departamentosQuery); err != nil {
		return domain.Dataset{}, fmt.Errorf("query department_predictions: %w", err)
	}

	var meta metadataRow
	err := p.db.GetContext(ctx, &meta, metadataQuery)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Dataset{}, fmt.Errorf("query prediction_metadata: %w", err)
	}

	return buildDataset(munis, depts, meta), nil
}

// Name identifies the source without exposing credentials.
func (p *Postgres) Name() string { return "postgres" }

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

type municipioRow struct {
	DaneCode       int             `db:"codigo_dane_municipio"`
	Name           string          `db:"municipio"`
	Department     string          `db:"departamento"`
	Latitude       *float64        `db:"latitud"`
	Longitude      *float64        `db:"longitud"`
	Altitude       *float64        `db:"altitud_msnm"`
	Radiation      *float64        `db:"radiacion_kwhm2_dia"`
	Wind           *float64        `db:"viento_ms"`
	Temperature    *float64        `db:"temperatura_c"`
	PredictedClass string          `db:"predicted_class"`
	ProbSolar      sql.NullFloat64 `db:"prob_solar"`
	ProbEolica     sql.NullFloat64 `db:"prob_eolica"`
	ProbHibrida    sql.NullFloat64 `db:"prob_hibrida"`
	NetworkType    sql.NullString  `db:"tipo_red"`
	SourceLabel    sql.NullString  `db:"source_label"`
}

type departamentoRow struct {
	Department        string   `db:"departamento"`
	NumMunicipios     int      `db:"num_municipios"`
	DominantClass     string   `db:"dominant_class"`
	SolarPct          *float64 `db:"solar_pct"`
	EolicaPct         *float64 `db:"eolica_pct"`
	HibridaPct        *float64 `db:"hibrida_pct"`
	ZNIPct            *float64 `db:"zni_pct"`
	UnknownPct        *float64 `db:"unknown_pct"`
	HighConfidencePct *float64 `db:"high_confidence_pct"`
	AvgSolarProb      *float64 `db:"avg_solar_prob"`
	AvgEolicaProb     *float64 `db:"avg_eolica_prob"`
	AvgHibridaProb    *float64 `db:"avg_hibrida_prob"`
}

type metadataRow struct {
	GeneratedAt    sql.NullString `db:"generated_at"`
	ModelType      sql.NullString `db:"model_type"`
	FeatureColumns sql.NullString `db:"feature_columns"` // comma-separated
}

func buildDataset(munis []municipioRow, depts []departamentoRow, meta metadataRow) domain.Dataset {
	ds := domain.Dataset{
		Metadata: domain.Metadata{
			GeneratedAt:      meta.GeneratedAt.String,
			ModelType:        meta.ModelType.String,
			NumMunicipios:    len(munis),
			NumDepartamentos: len(depts),
		},
		Municipios:    make([]domain.MunicipalityRecord, 0, len(munis)),
		Departamentos: make([]domain.DepartmentAggregateRecord, 0, len(depts)),
	}
	if meta.FeatureColumns.Valid && meta.FeatureColumns.String != "" {
		for _, col := range strings.Split(meta.FeatureColumns.String, ",") {
			ds.Metadata.FeatureColumns = append(ds.Metadata.FeatureColumns, strings.TrimSpace(col))
		}
	}

	for _, r := range munis {
		ds.Municipios = append(ds.Municipios, domain.MunicipalityRecord{
			DaneCode:          r.DaneCode,
			Name:              r.Name,
			DepartmentNameRaw: r.Department,
			Latitude:          finite(r.Latitude),
			Longitude:         finite(r.Longitude),
			AltitudeMeters:    finite(r.Altitude),
			RadiationKWhM2Day: finite(r.Radiation),
			WindMS:            finite(r.Wind),
			TemperatureC:      finite(r.Temperature),
			PredictedClass:    domain.EnergyClass(r.PredictedClass),
			ProbSolar:         probability(r.ProbSolar),
			ProbEolica:        probability(r.ProbEolica),
			ProbHibrida:       probability(r.ProbHibrida),
			NetworkType:       domain.NetworkType(r.NetworkType.String),
			SourceLabel:       r.SourceLabel.String,
		})
	}

	for _, r := range depts {
		ds.Departamentos = append(ds.Departamentos, domain.DepartmentAggregateRecord{
			DepartmentNameRaw: r.Department,
			NumMunicipios:     r.NumMunicipios,
			DominantClass:     domain.EnergyClass(r.DominantClass),
			SolarPct:          finite(r.SolarPct),
			EolicaPct:         finite(r.EolicaPct),
			HibridaPct:        finite(r.HibridaPct),
			ZNIPct:            finite(r.ZNIPct),
			UnknownPct:        finite(r.UnknownPct),
			HighConfidencePct: finite(r.HighConfidencePct),
			AvgSolarProb:      finite(r.AvgSolarProb),
			AvgEolicaProb:     finite(r.AvgEolicaProb),
			AvgHibridaProb:    finite(r.AvgHibridaProb),
		})
	}

	return ds
}

// finite maps NaN and infinite column values to absent, matching how the
// JSON document represents them.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func probability(v sql.NullFloat64) float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return 0
	}
	return v.Float64
}
