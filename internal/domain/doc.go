// Package domain models planetary crater catalog data.
//
// # Data Source
//
// Crater records arrive from heterogeneous catalog exports: flat JSON objects
// with survey-specific column names, or GeoJSON Features with a properties map
// and a Point geometry. The upstream collector publishes each record as-is to
// the Kafka source topic; nothing upstream guarantees field names, units, or
// even that coordinates are present.
//
// # Field Aliases
//
// Each logical field is resolved through an ordered alias chain
// (case-sensitive):
//
//	identity:  id, ID, CRATER_ID, then name, then a generated UUID
//	latitude:  lat, latitude          (degrees)
//	longitude: lon, longitude         (degrees, wrapped into [-180, 180])
//	pixel:     x/pixel_x, y/pixel_y   (requires a configured pixel transform)
//	diameter:  diameter_m, diameter_km, diameter, diam
//	score:     water_score, score
//	psr:       psr_overlap, psr       (fraction in [0,1]; booleans coerce to 0/1)
//	spectral:  spectral_mean, spectral
//	hydrogen:  hydrogen_mean, hydrogen
//	depth:     depth_metric, depth
//
// # Unit Conventions
//
// Diameter is normalized to meters. The bare "diameter"/"diam" columns carry
// no unit, so a magnitude heuristic applies: values in (0, 100) are assumed
// kilometers and multiplied by 1000, values >= 100 are assumed meters already.
// The threshold misclassifies a genuinely sub-100 m crater; catalogs that care
// should use the unambiguous diameter_m / diameter_km spellings. See
// [resolveDiameterMeters].
//
// # Missing and Malformed Values
//
// Absent fields resolve to nil, never zero. A field present but not parseable
// as a number is treated the same as absent. A record missing both geographic
// and convertible pixel coordinates stays in the batch as unplaceable
// (Lat and Lon both nil); that is a caller-visible condition, not an error.
// Normalize is total on its input: no data-quality condition raises.
//
// # Water Score
//
// WaterScore is a derived [0,1] water-ice likelihood. Records that supply one
// keep it verbatim (ScoreSource "supplied"). For the rest,
// [EstimateMissingScores] computes a weighted average of the batch-normalized
// secondary measurements, redistributing the weight of measurements the
// individual record lacks. It needs the full batch because normalization uses
// corpus-wide min/max ranges.
//
// # PSR Overlap
//
// PSROverlap records the fraction of a crater footprint inside a Permanently
// Shadowed Region. When the input omits it and a PSR polygon set is loaded,
// it is recomputed as a 1/0 presence signal from center-point containment
// using even-odd ray casting; points exactly on a ring edge are decided by
// the ray-cast half-open edge rule and should not be relied upon. See
// [PSRIndex].
package domain
