package query

import (
	"context"
	"slices"
	"strings"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
)

// Map marker colors per predicted class.
const (
	ColorSolar   = "#F59E0B"
	ColorEolica  = "#14B8A6"
	ColorHibrida = "#34D399"
	ColorUnknown = "#6B7280"
)

var classColors = map[domain.EnergyClass]string{
	domain.ClassSolar:   ColorSolar,
	domain.ClassEolica:  ColorEolica,
	domain.ClassHibrida: ColorHibrida,
}

// featuredCities stand in for a real "is capital" flag, which the dataset
// does not carry. Names are in folded form.
var featuredCities = []string{
	"MEDELLIN",
	"CALI",
	"BARRANQUILLA",
	"CARTAGENA",
	"BUCARAMANGA",
}

// MapMunicipality is a municipality with the values a map marker needs.
type MapMunicipality struct {
	domain.MunicipalityRecord
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
}

// MunicipiosForMap returns municipalities ready for plotting. An empty raw
// name selects the whole dataset. Below the zoom threshold only featured
// municipalities are kept.
func (s *Service) MunicipiosForMap(ctx context.Context, raw string, zoom float64) ([]MapMunicipality, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	munis := snap.Dataset.Municipios
	if strings.TrimSpace(raw) != "" {
		key := domain.NormalizeDepartmentName(raw)
		munis = snap.Indexes.MunicipiosByDept[key]
		if len(munis) == 0 {
			s.miss("municipios_for_map", raw, key)
		}
	}

	out := make([]MapMunicipality, 0, len(munis))
	for _, m := range munis {
		if zoom < s.zoomThreshold && !isFeatured(m.Name) {
			continue
		}
		out = append(out, MapMunicipality{
			MunicipalityRecord: m.Clone(),
			Color:              ClassColor(m.PredictedClass),
			Probability:        PrimaryProbability(m),
		})
	}
	return out, nil
}

// ClassColor returns the marker color for a class, ColorUnknown if unmapped.
func ClassColor(c domain.EnergyClass) string {
	if color, ok := classColors[c]; ok {
		return color
	}
	return ColorUnknown
}

// PrimaryProbability is the largest of the three class probabilities, or 0
// when none is positive. On exact ties the first of solar, eolica, hibrida
// is the one reported.
func PrimaryProbability(m domain.MunicipalityRecord) float64 {
	best := 0.0
	for _, p := range []float64{m.ProbSolar, m.ProbEolica, m.ProbHibrida} {
		if p > best {
			best = p
		}
	}
	return best
}

func isFeatured(name string) bool {
	folded := domain.FoldName(name)
	return strings.Contains(folded, "CAPITAL") || slices.Contains(featuredCities, folded)
}
