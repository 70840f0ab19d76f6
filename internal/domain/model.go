package domain

import "time"

// CanonicalKey identifies a department independently of how a source spells it.
type CanonicalKey string

// EnergyClass is the predicted renewable category for a municipality.
type EnergyClass string

const (
	ClassSolar   EnergyClass = "solar"
	ClassEolica  EnergyClass = "eolica"
	ClassHibrida EnergyClass = "hibrida"
)

// NetworkType tells whether a municipality is on the national grid.
type NetworkType string

const (
	NetworkSIN NetworkType = "SIN" // Sistema Interconectado Nacional
	NetworkZNI NetworkType = "ZNI" // Zona No Interconectada
)

// MunicipalityRecord is one row of the prediction dataset. Optional numeric
// fields are pointers so an absent value is distinguishable from zero.
type MunicipalityRecord struct {
	DaneCode          int    `json:"codigo_dane_municipio"`
	Name              string `json:"municipio"`
	DepartmentNameRaw string `json:"departamento"`

	Latitude       *float64 `json:"latitud"`
	Longitude      *float64 `json:"longitud"`
	AltitudeMeters *float64 `json:"altitud_msnm,omitempty"`

	RadiationKWhM2Day *float64 `json:"radiacion_kWhm2_dia,omitempty"`
	WindMS            *float64 `json:"viento_ms,omitempty"`
	TemperatureC      *float64 `json:"temperatura_C,omitempty"`

	PredictedClass EnergyClass `json:"predicted_class"`
	ProbSolar      float64     `json:"prob_solar"`
	ProbEolica     float64     `json:"prob_eolica"`
	ProbHibrida    float64     `json:"prob_hibrida"`

	NetworkType NetworkType `json:"tipo_red"`
	SourceLabel string      `json:"source_label,omitempty"`
}

// DepartmentAggregateRecord is the per-department summary produced offline
// alongside the municipality predictions. Fractions are in [0,1].
type DepartmentAggregateRecord struct {
	DepartmentNameRaw string      `json:"departamento"`
	NumMunicipios     int         `json:"num_municipios"`
	DominantClass     EnergyClass `json:"dominant_class"`

	SolarPct   *float64 `json:"solar_pct"`
	EolicaPct  *float64 `json:"eolica_pct"`
	HibridaPct *float64 `json:"hibrida_pct"`

	ZNIPct            *float64 `json:"zni_pct,omitempty"`
	UnknownPct        *float64 `json:"unknown_pct,omitempty"`
	HighConfidencePct *float64 `json:"high_confidence_pct,omitempty"`

	AvgSolarProb   *float64 `json:"avg_solar_prob,omitempty"`
	AvgEolicaProb  *float64 `json:"avg_eolica_prob,omitempty"`
	AvgHibridaProb *float64 `json:"avg_hibrida_prob,omitempty"`
}

// Bounds is a lat/lng bounding box in degrees.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stats summarizes a set of samples. Min, Max and Avg are nil when Count is 0.
type Stats struct {
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Count int      `json:"count"`
}

// AreaStats holds climate statistics over a department's municipalities.
type AreaStats struct {
	Altitude    Stats `json:"altitude"`
	Radiation   Stats `json:"radiation"`
	Wind        Stats `json:"wind"`
	Temperature Stats `json:"temperature"`
}

// GeographicInfo is derived from a department's municipality list.
type GeographicInfo struct {
	Bounds    *Bounds   `json:"bounds"`
	Center    *LatLng   `json:"center"`
	AreaStats AreaStats `json:"area_stats"`
}

// EnrichedDepartmentAggregate is a department aggregate plus computed geography.
type EnrichedDepartmentAggregate struct {
	DepartmentAggregateRecord
	CanonicalKey   CanonicalKey   `json:"canonical_key"`
	GeographicInfo GeographicInfo `json:"geographic_info"`
}

// Metadata describes the dataset as a whole.
type Metadata struct {
	GeneratedAt      string   `json:"generated_at,omitempty"`
	ModelType        string   `json:"model_type,omitempty"`
	NumMunicipios    int      `json:"num_municipios"`
	NumDepartamentos int      `json:"num_departamentos"`
	FeatureColumns   []string `json:"feature_columns,omitempty"`
}

// Dataset is the full prediction document.
type Dataset struct {
	Metadata      Metadata                    `json:"metadata"`
	Municipios    []MunicipalityRecord        `json:"municipios"`
	Departamentos []DepartmentAggregateRecord `json:"departamentos"`
}

// Snapshot is a loaded dataset together with its indexes. It is never mutated
// after construction.
type Snapshot struct {
	Dataset  Dataset
	Indexes  Indexes
	LoadedAt time.Time
	Source   string
}

// Clone returns a copy of m that shares no memory with it.
func (m MunicipalityRecord) Clone() MunicipalityRecord {
	m.Latitude = clonePtr(m.Latitude)
	m.Longitude = clonePtr(m.Longitude)
	m.AltitudeMeters = clonePtr(m.AltitudeMeters)
	m.RadiationKWhM2Day = clonePtr(m.RadiationKWhM2Day)
	m.WindMS = clonePtr(m.WindMS)
	m.TemperatureC = clonePtr(m.TemperatureC)
	return m
}

// Clone returns a copy of a that shares no memory with it.
func (a EnrichedDepartmentAggregate) Clone() EnrichedDepartmentAggregate {
	d := &a.DepartmentAggregateRecord
	d.SolarPct = clonePtr(d.SolarPct)
	d.EolicaPct = clonePtr(d.EolicaPct)
	d.HibridaPct = clonePtr(d.HibridaPct)
	d.ZNIPct = clonePtr(d.ZNIPct)
	d.UnknownPct = clonePtr(d.UnknownPct)
	d.HighConfidencePct = clonePtr(d.HighConfidencePct)
	d.AvgSolarProb = clonePtr(d.AvgSolarProb)
	d.AvgEolicaProb = clonePtr(d.AvgEolicaProb)
	d.AvgHibridaProb = clonePtr(d.AvgHibridaProb)

	g := &a.GeographicInfo
	g.Bounds = clonePtr(g.Bounds)
	g.Center = clonePtr(g.Center)
	for _, s := range []*Stats{&g.AreaStats.Altitude, &g.AreaStats.Radiation, &g.AreaStats.Wind, &g.AreaStats.Temperature} {
		s.Min = clonePtr(s.Min)
		s.Max = clonePtr(s.Max)
		s.Avg = clonePtr(s.Avg)
	}
	return a
}

// CloneMunicipios deep-copies a record list. A nil input stays nil.
func CloneMunicipios(in []MunicipalityRecord) []MunicipalityRecord {
	if in == nil {
		return nil
	}
	out := make([]MunicipalityRecord, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
