package domain

import (
	"maps"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// stripMarks decomposes accented letters and drops the combining marks,
	// e.g. "Á" -> "A", "Ñ" -> "N".
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

	// nonAlnumRe matches every run of characters outside A-Z and 0-9.
	nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]+`)
)

// geoJSONOverrides maps strings from the boundary dataset that lost their
// punctuation or spacing. Keys are in folded form so the raw "BogotáD.C."
// and an already-uppercased "BOGOTAD C" hit the same entry.
var geoJSONOverrides = map[string]CanonicalKey{
	"BOGOTAD C":             "BOGOTA D C",
	"BOGOTADC":              "BOGOTA D C",
	"LAGUAJIRA":             "LA GUAJIRA",
	"NORTEDESANTANDER":      "NORTE DE SANTANDER",
	"VALLEDELCAUCA":         "VALLE DEL CAUCA",
	"SANANDRESYPROVIDENCIA": SanAndresKey,
}

// aliasOverrides converges folded variants that name the same department.
var aliasOverrides = map[string]CanonicalKey{
	"BOGOTA":                     "BOGOTA D C",
	"BOGOTA DC":                  "BOGOTA D C",
	"DISTRITO CAPITAL":           "BOGOTA D C",
	"DISTRITO CAPITAL DE BOGOTA": "BOGOTA D C",
	"SANTAFE DE BOGOTA D C":      "BOGOTA D C",
	"SAN ANDRES":                 SanAndresKey,
	"SAN ANDRES Y PROVIDENCIA":   SanAndresKey,
	"SAN ANDRES PROVIDENCIA":     SanAndresKey,
	"SAN ANDRES PROVIDENCIA Y SANTA CATALINA": SanAndresKey,
	"ARCHIPIELAGO DE SAN ANDRES":              SanAndresKey,
	"VALLE":                                   "VALLE DEL CAUCA",
	"GUAJIRA":                                 "LA GUAJIRA",
	"N SANTANDER":                             "NORTE DE SANTANDER",
}

// SanAndresKey is the canonical key of the island department, whose legal
// name rarely survives intact in either source.
const SanAndresKey CanonicalKey = "ARCHIPIELAGO DE SAN ANDRES PROVIDENCIA Y SANTA CATALINA"

// GeoJSONOverrides returns a copy of the concatenated-name override table.
func GeoJSONOverrides() map[string]CanonicalKey { return maps.Clone(geoJSONOverrides) }

// AliasOverrides returns a copy of the folded-alias override table.
func AliasOverrides() map[string]CanonicalKey { return maps.Clone(aliasOverrides) }

// FoldName uppercases, strips diacritics and reduces every run of characters
// outside A-Z/0-9 to a single space. It never fails; on a transform error the
// uppercased input is folded without mark removal.
func FoldName(raw string) string {
	upper := strings.ToUpper(raw)
	stripped, _, err := transform.String(stripMarks, upper)
	if err != nil {
		stripped = upper
	}
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(stripped, " "))
}

// NormalizeDepartmentName maps a raw department name from any source to its
// canonical key. Unknown names are returned in folded form so lookups miss
// instead of failing.
func NormalizeDepartmentName(raw string) CanonicalKey {
	if raw == "" {
		return ""
	}

	folded := FoldName(raw)
	if key, ok := geoJSONOverrides[folded]; ok {
		return key
	}
	if key, ok := aliasOverrides[folded]; ok {
		return key
	}
	return CanonicalKey(folded)
}
