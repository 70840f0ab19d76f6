package domain

import (
	"fmt"
	"strings"
)

// Confidence tiers for a department recommendation.
const (
	TierUnderEvaluation = "REGIÓN EN EVALUACIÓN"
	TierPreliminary     = "ANÁLISIS PRELIMINAR"
	TierConfirmed       = "ANÁLISIS CONFIRMADO"
)

// NoDataRecommendation is returned when a department has no aggregate.
const NoDataRecommendation = "No hay datos disponibles para este departamento."

// Thresholds on the aggregate fractions that drive the recommendation text.
const (
	highUncertaintyPct     = 0.7
	moderateUncertaintyPct = 0.3
	lowConfidencePct       = 0.6
	zniDominantPct         = 0.5
	strongSolarPct         = 0.7
	windComplementPct      = 0.3
)

// RecommendationTier classifies how much a department's prediction can be
// trusted. A high share of originally unknown labels dominates; otherwise a
// moderate share or a low high-confidence share yields a preliminary tier.
func RecommendationTier(d DepartmentAggregateRecord) string {
	unknown := valueOr(d.UnknownPct, 0)
	highConf := valueOr(d.HighConfidencePct, 1)

	switch {
	case unknown > highUncertaintyPct:
		return TierUnderEvaluation
	case unknown > moderateUncertaintyPct, highConf < lowConfidencePct:
		return TierPreliminary
	default:
		return TierConfirmed
	}
}

// Recommend renders a textual recommendation for a department aggregate.
func Recommend(d DepartmentAggregateRecord) string {
	unknown := valueOr(d.UnknownPct, 0)
	highConf := valueOr(d.HighConfidencePct, 1)
	tier := RecommendationTier(d)
	uncertain := tier == TierUnderEvaluation

	var b strings.Builder
	b.WriteString(tier)
	b.WriteString(" - ")

	switch d.DominantClass {
	case ClassSolar:
		fmt.Fprintf(&b, "Potencial solar identificado (%s de municipios, prob. promedio: %s). ",
			pct(d.SolarPct), pct(d.AvgSolarProb))
		if !uncertain {
			b.WriteString("Recomendado para proyectos de paneles solares y granjas fotovoltaicas. ")
		}
	case ClassEolica:
		fmt.Fprintf(&b, "Potencial eólico detectado (%s de municipios, prob. promedio: %s). ",
			pct(d.EolicaPct), pct(d.AvgEolicaProb))
		if !uncertain {
			b.WriteString("Considerar para parques eólicos y aprovechamiento de vientos. ")
		}
	case ClassHibrida:
		fmt.Fprintf(&b, "Potencial híbrido identificado (%s de municipios, prob. promedio: %s). ",
			pct(d.HibridaPct), pct(d.AvgHibridaProb))
		if !uncertain {
			b.WriteString("Evaluar para sistemas mixtos solar-eólicos. ")
		}
	default:
		b.WriteString("Potencial energético en fase de caracterización. ")
	}

	switch {
	case uncertain:
		fmt.Fprintf(&b, "\n\nRequiere estudios complementarios: %.1f%% de los datos fueron estimados por el modelo. "+
			"Se recomienda validación con mediciones locales antes de inversiones significativas.", unknown*100)
	case unknown > moderateUncertaintyPct:
		fmt.Fprintf(&b, "\n\nBase de datos parcial: %.1f%% de datos confirmados. "+
			"Considerar estudios adicionales para proyectos de gran escala.", (1-unknown)*100)
	default:
		fmt.Fprintf(&b, "\n\nPredicciones estables: %.1f%% de datos validados, estabilidad %s del modelo.",
			(1-unknown)*100, stabilityLevel(highConf))
	}

	if valueOr(d.ZNIPct, 0) > zniDominantPct {
		b.WriteString("\n\nZona No Interconectada: priorizar soluciones autónomas y almacenamiento energético.")
	}
	if valueOr(d.SolarPct, 0) > strongSolarPct && !uncertain {
		b.WriteString("\n\nExcelente para autoconsumo: radiación solar favorable para aplicaciones industriales y residenciales.")
	}
	if valueOr(d.EolicaPct, 0) > windComplementPct && !uncertain {
		b.WriteString("\n\nComplemento eólico: vientos favorables para diversificación energética.")
	}

	return strings.TrimSpace(b.String())
}

func stabilityLevel(highConf float64) string {
	switch {
	case highConf >= 0.9:
		return "muy alta"
	case highConf >= 0.7:
		return "alta"
	default:
		return "moderada"
	}
}

func pct(v *float64) string {
	return fmt.Sprintf("%.1f%%", valueOr(v, 0)*100)
}

func valueOr(v *float64, fallback float64) float64 {
	if f, ok := finiteValue(v); ok {
		return f
	}
	return fallback
}
