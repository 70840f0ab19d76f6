package domain

import "math"

// ComputeStats returns min, max, average and count over the finite samples.
// NaN and infinite values are dropped first. Min, max and avg are rounded to
// two decimals.
func ComputeStats(values []float64) Stats {
	var (
		count  int
		sum    float64
		lo, hi float64
	)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if count == 0 || v < lo {
			lo = v
		}
		if count == 0 || v > hi {
			hi = v
		}
		sum += v
		count++
	}

	if count == 0 {
		return Stats{}
	}

	return Stats{
		Min:   ptr(round2(lo)),
		Max:   ptr(round2(hi)),
		Avg:   ptr(round2(sum / float64(count))),
		Count: count,
	}
}

// ComputeGeographicInfo derives bounds, center and climate statistics from a
// municipality list. Bounds and center only consider records whose latitude
// and longitude are both present and finite; with none, both are nil.
func ComputeGeographicInfo(municipios []MunicipalityRecord) GeographicInfo {
	var (
		bounds          Bounds
		sumLat, sumLng  float64
		validCoords     int
		altitudes, rads []float64
		winds, temps    []float64
	)

	for _, m := range municipios {
		lat, latOK := finiteValue(m.Latitude)
		lng, lngOK := finiteValue(m.Longitude)
		if latOK && lngOK {
			if validCoords == 0 {
				bounds = Bounds{North: lat, South: lat, East: lng, West: lng}
			} else {
				bounds.North = math.Max(bounds.North, lat)
				bounds.South = math.Min(bounds.South, lat)
				bounds.East = math.Max(bounds.East, lng)
				bounds.West = math.Min(bounds.West, lng)
			}
			sumLat += lat
			sumLng += lng
			validCoords++
		}

		altitudes = appendPresent(altitudes, m.AltitudeMeters)
		rads = appendPresent(rads, m.RadiationKWhM2Day)
		winds = appendPresent(winds, m.WindMS)
		temps = appendPresent(temps, m.TemperatureC)
	}

	info := GeographicInfo{
		AreaStats: AreaStats{
			Altitude:    ComputeStats(altitudes),
			Radiation:   ComputeStats(rads),
			Wind:        ComputeStats(winds),
			Temperature: ComputeStats(temps),
		},
	}
	if validCoords > 0 {
		info.Bounds = &bounds
		info.Center = &LatLng{
			Lat: sumLat / float64(validCoords),
			Lng: sumLng / float64(validCoords),
		}
	}
	return info
}

func appendPresent(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

// finiteValue dereferences an optional sample, reporting false when it is
// absent, NaN or infinite.
func finiteValue(v *float64) (float64, bool) {
	if v == nil || !isFinite(*v) {
		return 0, false
	}
	return *v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr[T any](v T) *T { return &v }
