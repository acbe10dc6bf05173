package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// PSRIndex holds the Permanently Shadowed Region polygon set used to
// recompute missing psr_overlap values. A nil index is valid and contains
// nothing.
type PSRIndex struct {
	polygons [][][][2]float64 // polygon -> ring -> vertex [lon, lat]
}

// NewPSRIndex extracts every Polygon and MultiPolygon geometry from a
// FeatureCollection. Other geometry types are ignored.
func NewPSRIndex(fc GeoJSONFeatureCollection) *PSRIndex {
	idx := &PSRIndex{}
	for i := range fc.Features {
		idx.polygons = append(idx.polygons, fc.Features[i].Geometry.PolygonRings()...)
	}
	return idx
}

// LoadPSRIndex reads a GeoJSON FeatureCollection of PSR polygons from disk.
// A missing or malformed file is an explicit error: the caller decides
// whether to run without PSR enrichment.
func LoadPSRIndex(path string) (*PSRIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PSR polygons: %w", err)
	}
	var fc GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse PSR polygons: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parse PSR polygons: expected FeatureCollection, got %q", fc.Type)
	}
	return NewPSRIndex(fc), nil
}

// Size returns the number of polygons in the index.
func (x *PSRIndex) Size() int {
	if x == nil {
		return 0
	}
	return len(x.polygons)
}

// Contains reports whether the point falls inside at least one PSR polygon,
// using even-odd ray casting per ring: a point inside a hole ring is outside
// the polygon. An empty or nil index always reports false — that is the
// degraded no-polygon-data mode, not an error.
//
// Points exactly on a ring edge are decided by the half-open edge rule of
// the ray cast and are not part of the contract.
func (x *PSRIndex) Contains(lat, lon float64) bool {
	if x == nil {
		return false
	}
	for _, rings := range x.polygons {
		inside := false
		for _, ring := range rings {
			if ringContains(ring, lon, lat) {
				inside = !inside
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// OverlapFraction returns the center-point presence signal as a fraction:
// 1 when the point is inside any PSR polygon, else 0. The full
// footprint-area ratio is intentionally not computed; the score consumes
// the presence signal.
func (x *PSRIndex) OverlapFraction(lat, lon float64) float64 {
	if x.Contains(lat, lon) {
		return 1
	}
	return 0
}

// ringContains runs the even-odd ray cast of (x, y) against one ring.
// Vertices are [lon, lat]; an unclosed ring is treated as closed.
func ringContains(ring [][2]float64, x, y float64) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
