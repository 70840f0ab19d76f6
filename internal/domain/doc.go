// Package domain models the municipality-level renewable energy predictions
// for Colombia and the department aggregates derived from them.
//
// # Data Sources
//
// Two independently curated sources name departments differently:
//
//   - The prediction dataset (municipio_predictions.json), produced offline by a
//     Random Forest classifier. Names carry accents and punctuation, e.g.
//     "BOGOTÁ, D.C." or "ARCHIPIÉLAGO DE SAN ANDRÉS, PROVIDENCIA Y SANTA CATALINA".
//   - The map boundary dataset (GADM level 1), whose names are mixed case and
//     sometimes lost their separators, e.g. "BogotáD.C." or "LaGuajira".
//
// # Canonical Keys
//
// [NormalizeDepartmentName] folds both spellings to one [CanonicalKey]:
//
//	"Bogotá, D.C."  ->  "BOGOTA D C"
//	"BogotáD.C."    ->  "BOGOTA D C"
//	"La Guajira"    ->  "LA GUAJIRA"
//	"Nariño"        ->  "NARINO"
//
// Folding is uppercase, NFD decomposition, removal of combining marks, and
// collapse of every non-alphanumeric run to one space. Two override tables
// cover what folding cannot recover. Names that match nothing keep their
// folded form, so a lookup simply misses.
//
// # Dataset Conventions
//
// Fractions (solar_pct, zni_pct, ...) are in [0,1]. Class probabilities need
// not sum to 1. Missing floats are written by the producer as bare NaN
// tokens, which [DecodeDataset] reads as null.
//
// # Derived Geography
//
// [BuildIndexes] groups municipalities by key and attaches to each department
// its bounding box, centroid, and altitude/radiation/wind/temperature
// statistics (see [ComputeGeographicInfo]). Statistics are rounded to two
// decimals; centroids are not.
package domain
