package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationTier(t *testing.T) {
	tests := []struct {
		name     string
		unknown  *float64
		highConf *float64
		expected string
	}{
		{"no uncertainty fields", nil, nil, TierConfirmed},
		{"mostly unknown", ptr(0.8), ptr(0.95), TierUnderEvaluation},
		{"boundary 0.7 is moderate", ptr(0.7), ptr(0.95), TierPreliminary},
		{"moderate unknown", ptr(0.4), ptr(0.95), TierPreliminary},
		{"low confidence", ptr(0.1), ptr(0.5), TierPreliminary},
		{"boundary 0.3 is confirmed", ptr(0.3), ptr(0.6), TierConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DepartmentAggregateRecord{UnknownPct: tt.unknown, HighConfidencePct: tt.highConf}
			assert.Equal(t, tt.expected, RecommendationTier(d))
		})
	}
}

func TestRecommend(t *testing.T) {
	t.Run("confirmed wind department in ZNI", func(t *testing.T) {
		text := Recommend(DepartmentAggregateRecord{
			DominantClass:     ClassEolica,
			EolicaPct:         ptr(0.62),
			AvgEolicaProb:     ptr(0.71),
			ZNIPct:            ptr(0.6),
			UnknownPct:        ptr(0.1),
			HighConfidencePct: ptr(0.92),
		})

		assert.True(t, strings.HasPrefix(text, TierConfirmed))
		assert.Contains(t, text, "Potencial eólico detectado (62.0% de municipios, prob. promedio: 71.0%)")
		assert.Contains(t, text, "parques eólicos")
		assert.Contains(t, text, "estabilidad muy alta")
		assert.Contains(t, text, "Zona No Interconectada")
		assert.Contains(t, text, "Complemento eólico")
		assert.NotContains(t, text, "autoconsumo")
	})

	t.Run("under evaluation omits project advice", func(t *testing.T) {
		text := Recommend(DepartmentAggregateRecord{
			DominantClass: ClassSolar,
			SolarPct:      ptr(0.9),
			UnknownPct:    ptr(0.85),
		})

		assert.True(t, strings.HasPrefix(text, TierUnderEvaluation))
		assert.Contains(t, text, "85.0% de los datos")
		assert.NotContains(t, text, "paneles solares")
		assert.NotContains(t, text, "autoconsumo")
	})

	t.Run("partial data", func(t *testing.T) {
		text := Recommend(DepartmentAggregateRecord{
			DominantClass: ClassHibrida,
			HibridaPct:    ptr(0.5),
			UnknownPct:    ptr(0.4),
		})

		assert.True(t, strings.HasPrefix(text, TierPreliminary))
		assert.Contains(t, text, "Base de datos parcial: 60.0%")
		assert.Contains(t, text, "sistemas mixtos")
	})

	t.Run("unknown dominant class", func(t *testing.T) {
		text := Recommend(DepartmentAggregateRecord{})

		assert.Contains(t, text, "fase de caracterización")
		assert.Equal(t, strings.TrimSpace(text), text)
	})
}
