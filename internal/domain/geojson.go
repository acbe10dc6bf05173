package domain

import (
	"encoding/json"
	"math"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature is the GeoJSON wire-format wrapper, not to be confused with
// the domain Feature (a catalogued crater).
type GeoJSONFeature struct {
	Type       string           `json:"type"`
	Properties map[string]any   `json:"properties"`
	Geometry   *GeoJSONGeometry `json:"geometry"`
}

// GeoJSONGeometry keeps coordinates raw because their nesting depth depends
// on the geometry type: Point []float64, Polygon [][][]float64,
// MultiPolygon [][][][]float64.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPointGeometry builds a Point geometry with [lon, lat] coordinates.
func NewPointGeometry(lon, lat float64) *GeoJSONGeometry {
	coords, _ := json.Marshal([2]float64{lon, lat}) //nolint:errcheck // two floats cannot fail
	return &GeoJSONGeometry{Type: "Point", Coordinates: coords}
}

// PointCoordinates extracts lon and lat from a Point geometry.
// Returns ok=false for non-Point types, short coordinate arrays, or
// non-finite values.
func (g *GeoJSONGeometry) PointCoordinates() (lon, lat float64, ok bool) {
	if g == nil || g.Type != "Point" {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	if math.IsNaN(coords[0]) || math.IsNaN(coords[1]) {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// PolygonRings extracts the ring set of a Polygon or MultiPolygon geometry
// as a flat list of polygons, each a list of [lon, lat] rings. The first
// ring of each polygon is the outer boundary, the rest are holes.
func (g *GeoJSONGeometry) PolygonRings() [][][][2]float64 {
	if g == nil {
		return nil
	}
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil
		}
		return [][][][2]float64{rings}
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil
		}
		return polys
	default:
		return nil
	}
}

// AnnotationsToGeoJSON converts persisted annotations into an exportable
// FeatureCollection. Unplaceable annotations get a null geometry; the
// comment property is omitted when empty.
func AnnotationsToGeoJSON(annotations []Annotation) GeoJSONFeatureCollection {
	features := make([]GeoJSONFeature, 0, len(annotations))
	for _, a := range annotations {
		props := map[string]any{
			"id":        a.ID,
			"name":      a.Name,
			"timestamp": a.TimestampISO,
		}
		if a.WaterScore != nil {
			props["water_score"] = *a.WaterScore
		} else {
			props["water_score"] = nil
		}
		if a.Comment != "" {
			props["comment"] = a.Comment
		}

		var geom *GeoJSONGeometry
		if a.Lat != nil && a.Lon != nil {
			geom = NewPointGeometry(*a.Lon, *a.Lat)
		}

		features = append(features, GeoJSONFeature{
			Type:       "Feature",
			Properties: props,
			Geometry:   geom,
		})
	}
	return GeoJSONFeatureCollection{Type: "FeatureCollection", Features: features}
}

// FeaturesToGeoJSON converts normalized features into a FeatureCollection,
// used by the offline catalog tool's geojson output mode.
func FeaturesToGeoJSON(features []Feature) GeoJSONFeatureCollection {
	out := make([]GeoJSONFeature, 0, len(features))
	for i := range features {
		f := &features[i]
		props := map[string]any{
			"id":   f.ID,
			"name": f.Name,
		}
		if f.DiameterM != nil {
			props["diameter_m"] = *f.DiameterM
		}
		if f.SpectralMean != nil {
			props["spectral_mean"] = *f.SpectralMean
		}
		if f.HydrogenMean != nil {
			props["hydrogen_mean"] = *f.HydrogenMean
		}
		if f.DepthMetric != nil {
			props["depth_metric"] = *f.DepthMetric
		}
		if f.PSROverlap != nil {
			props["psr_overlap"] = *f.PSROverlap
		}
		if f.WaterScore != nil {
			props["water_score"] = *f.WaterScore
		}
		if f.ScoreSource != "" {
			props["score_source"] = f.ScoreSource
		}

		var geom *GeoJSONGeometry
		if f.Placeable() {
			geom = NewPointGeometry(*f.Lon, *f.Lat)
		}

		out = append(out, GeoJSONFeature{Type: "Feature", Properties: props, Geometry: geom})
	}
	return GeoJSONFeatureCollection{Type: "FeatureCollection", Features: out}
}
