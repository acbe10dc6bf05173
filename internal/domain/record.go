package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RecordShape tags the two accepted input shapes. The shape is decided once
// at decode time; downstream code never re-tests the structure.
type RecordShape string

const (
	// ShapeFlat is a plain JSON object with survey-specific column names.
	ShapeFlat RecordShape = "flat"
	// ShapeGeoJSON is a GeoJSON Feature wrapper: properties plus geometry.
	ShapeGeoJSON RecordShape = "geojson"
)

// RawRecord is a single undecoded catalog entry. Fields holds the flat
// object's keys, or the GeoJSON Feature's properties. Geometry is non-nil
// only for GeoJSON records carrying a usable Point geometry.
type RawRecord struct {
	Shape    RecordShape
	Fields   map[string]any
	Geometry *GeoJSONGeometry
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Feature is the canonical crater record after normalization.
//
// Lat and Lon are either both nil or both set (the placeability invariant);
// a feature with nil coordinates is retained but excluded from spatial
// operations by callers. Measurement pointers are nil when the input lacked
// the field, never coerced to zero.
type Feature struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`

	DiameterM *float64 `json:"diameter_m,omitempty"`

	SpectralMean *float64 `json:"spectral_mean,omitempty"`
	HydrogenMean *float64 `json:"hydrogen_mean,omitempty"`
	DepthMetric  *float64 `json:"depth_metric,omitempty"`
	PSROverlap   *float64 `json:"psr_overlap,omitempty"`

	WaterScore *float64 `json:"water_score,omitempty"`

	// ScoreSource records WaterScore provenance: "supplied" when the input
	// carried an explicit score, "estimated" after EstimateMissingScores,
	// empty while still pending.
	ScoreSource string `json:"score_source,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Placeable reports whether the feature has resolved coordinates.
func (f *Feature) Placeable() bool {
	return f.Lat != nil && f.Lon != nil
}

// DecodeRawRecord parses one JSON object into a RawRecord, deciding its shape.
// An object with "type": "Feature" and a properties map is treated as GeoJSON;
// everything else is flat. Only Point geometries are retained — other geometry
// types are ignored, leaving coordinate resolution to the properties.
func DecodeRawRecord(data []byte) (RawRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return RawRecord{}, fmt.Errorf("decode raw record: %w", err)
	}
	return recordFromObject(obj)
}

// DecodeBatch parses a catalog payload: either a JSON array of objects or a
// GeoJSON FeatureCollection. Individual entries that are not objects are
// skipped; a payload that is neither shape is an error.
func DecodeBatch(data []byte) ([]RawRecord, error) {
	var root struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &root); err == nil && root.Type == "FeatureCollection" {
		return decodeEntries(root.Features)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode batch: payload is neither a JSON array nor a FeatureCollection: %w", err)
	}
	return decodeEntries(entries)
}

func decodeEntries(entries []json.RawMessage) ([]RawRecord, error) {
	records := make([]RawRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := DecodeRawRecord(entry)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromObject(obj map[string]json.RawMessage) (RawRecord, error) {
	typeStr := ""
	if raw, ok := obj["type"]; ok {
		_ = json.Unmarshal(raw, &typeStr) //nolint:errcheck // non-string type means flat record
	}

	if typeStr == "Feature" {
		rec := RawRecord{Shape: ShapeGeoJSON, Fields: map[string]any{}}
		if raw, ok := obj["properties"]; ok {
			var props map[string]any
			if err := json.Unmarshal(raw, &props); err == nil && props != nil {
				rec.Fields = props
			}
		}
		if raw, ok := obj["geometry"]; ok {
			var geom GeoJSONGeometry
			if err := json.Unmarshal(raw, &geom); err == nil && geom.Type == "Point" {
				rec.Geometry = &geom
			}
		}
		return rec, nil
	}

	fields := make(map[string]any, len(obj))
	for key, raw := range obj {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		fields[key] = v
	}
	return RawRecord{Shape: ShapeFlat, Fields: fields}, nil
}
