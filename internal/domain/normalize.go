package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Alias chains per logical field, tried in order. Case-sensitive on purpose:
// the upstream catalogs that spell CRATER_ID in caps do so consistently.
var (
	idAliases       = []string{"id", "ID", "CRATER_ID"}
	nameAliases     = []string{"name"}
	latAliases      = []string{"lat", "latitude"}
	lonAliases      = []string{"lon", "longitude"}
	pixelXAliases   = []string{"x", "pixel_x"}
	pixelYAliases   = []string{"y", "pixel_y"}
	meterAliases    = []string{"diameter_m"}
	kmAliases       = []string{"diameter_km"}
	bareDiamAliases = []string{"diameter", "diam"}
	scoreAliases    = []string{"water_score", "score"}
	psrAliases      = []string{"psr_overlap", "psr"}
	spectralAliases = []string{"spectral_mean", "spectral"}
	hydrogenAliases = []string{"hydrogen_mean", "hydrogen"}
	depthAliases    = []string{"depth_metric", "depth"}
)

// PixelTransform maps pixel coordinates from a catalog image onto geographic
// degrees. Width and Height are the image dimensions in pixels; pixel y grows
// downward, so y=0 maps to MaxLat.
type PixelTransform struct {
	MinLon float64 `yaml:"min_lon" json:"min_lon"`
	MaxLon float64 `yaml:"max_lon" json:"max_lon"`
	MinLat float64 `yaml:"min_lat" json:"min_lat"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Apply converts pixel (x, y) to (lon, lat). Returns ok=false when the
// transform has degenerate dimensions.
func (t *PixelTransform) Apply(x, y float64) (lon, lat float64, ok bool) {
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return 0, 0, false
	}
	lon = t.MinLon + (x/t.Width)*(t.MaxLon-t.MinLon)
	lat = t.MaxLat - (y/t.Height)*(t.MaxLat-t.MinLat)
	return lon, lat, true
}

// Options carries the external configuration Normalize may consult.
// The zero value is valid: pixel-coordinate records then stay unplaceable.
type Options struct {
	PixelTransform *PixelTransform
}

// Normalize converts one raw record into the canonical Feature shape.
//
// It is total: any field may be absent, null, or of the wrong type, and the
// result degrades to nil fields rather than an error. The only
// non-determinism is the synthetic UUID assigned when no identity-like field
// resolves.
func Normalize(raw RawRecord, opts Options) Feature {
	f := Feature{ProcessedAt: clock.Now().UTC()}

	f.Lat, f.Lon = resolveCoordinates(raw, opts.PixelTransform)
	f.DiameterM = resolveDiameterMeters(raw.Fields)

	f.ID = resolveIdentity(raw.Fields)
	f.Name = lookupString(raw.Fields, nameAliases)
	if f.Name == "" {
		f.Name = f.ID
	}

	f.SpectralMean = lookupFloat(raw.Fields, spectralAliases)
	f.HydrogenMean = lookupFloat(raw.Fields, hydrogenAliases)
	f.DepthMetric = lookupFloat(raw.Fields, depthAliases)
	f.PSROverlap = resolvePSROverlap(raw.Fields)

	if score := lookupFloat(raw.Fields, scoreAliases); score != nil {
		f.WaterScore = score
		f.ScoreSource = ScoreSourceSupplied
	}

	return f
}

// resolveCoordinates applies the resolution chain: explicit lat/lon aliases,
// then a GeoJSON Point geometry, then pixel aliases through the transform.
// Either both coordinates resolve or neither does.
func resolveCoordinates(raw RawRecord, transform *PixelTransform) (*float64, *float64) {
	lat := lookupFloat(raw.Fields, latAliases)
	lon := lookupFloat(raw.Fields, lonAliases)
	if lat != nil && lon != nil {
		wrapped := wrapLongitude(*lon)
		return lat, &wrapped
	}

	if geoLon, geoLat, ok := raw.Geometry.PointCoordinates(); ok {
		wrapped := wrapLongitude(geoLon)
		return &geoLat, &wrapped
	}

	px := lookupFloat(raw.Fields, pixelXAliases)
	py := lookupFloat(raw.Fields, pixelYAliases)
	if px != nil && py != nil {
		if pLon, pLat, ok := transform.Apply(*px, *py); ok {
			wrapped := wrapLongitude(pLon)
			return &pLat, &wrapped
		}
	}

	return nil, nil
}

// wrapLongitude folds longitudes outside [-180, 180] back into range.
func wrapLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	wrapped := math.Mod(lon+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

// resolveDiameterMeters normalizes the diameter to meters. Explicit unit
// spellings win; the bare "diameter"/"diam" columns fall back to the
// magnitude heuristic: (0, 100) is assumed kilometers, >= 100 meters.
// Known limitation: a genuinely 50 m crater reported as {"diameter": 50}
// comes out as 50 km. Negative values resolve to nil.
func resolveDiameterMeters(fields map[string]any) *float64 {
	if v := lookupFloat(fields, meterAliases); v != nil {
		return nonNegative(*v)
	}
	if v := lookupFloat(fields, kmAliases); v != nil {
		return nonNegative(*v * 1000)
	}
	v := lookupFloat(fields, bareDiamAliases)
	if v == nil {
		return nil
	}
	if *v > 0 && *v < 100 {
		return nonNegative(*v * 1000)
	}
	return nonNegative(*v)
}

func nonNegative(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}

// resolveIdentity picks an id-like field, falling back to the name field and
// finally a random UUID so every feature is addressable.
func resolveIdentity(fields map[string]any) string {
	if id := lookupString(fields, idAliases); id != "" {
		return id
	}
	if name := lookupString(fields, nameAliases); name != "" {
		return name
	}
	return uuid.NewString()
}

// resolvePSROverlap reads the PSR fraction, coercing booleans to 0/1 and
// clamping numeric inputs into [0, 1].
func resolvePSROverlap(fields map[string]any) *float64 {
	for _, key := range psrAliases {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		if b, ok := v.(bool); ok {
			frac := 0.0
			if b {
				frac = 1.0
			}
			return &frac
		}
		if f, ok := coerceFloat(v); ok {
			frac := clamp01(f)
			return &frac
		}
	}
	return nil
}

// lookupFloat walks an alias chain and returns the first value coercible to
// a finite float. Malformed values are treated like absent ones.
func lookupFloat(fields map[string]any, aliases []string) *float64 {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		if f, ok := coerceFloat(v); ok {
			return &f
		}
	}
	return nil
}

// lookupString walks an alias chain and returns the first non-empty string
// representation. Numeric ids are formatted without an exponent.
func lookupString(fields map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
