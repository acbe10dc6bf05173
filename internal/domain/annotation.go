package domain

import "time"

// Annotation is a user-confirmed candidate feature. Annotations live in the
// persistent store keyed by feature ID — at most one per ID — and are
// exportable as GeoJSON.
type Annotation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	WaterScore   *float64 `json:"water_score,omitempty"`
	TimestampISO string   `json:"timestamp"`
	Comment      string   `json:"comment,omitempty"`
}

// NewAnnotation creates an annotation from an accepted feature, stamped with
// the injected clock.
func NewAnnotation(f Feature, comment string) Annotation {
	return Annotation{
		ID:           f.ID,
		Name:         f.Name,
		Lat:          f.Lat,
		Lon:          f.Lon,
		WaterScore:   f.WaterScore,
		TimestampISO: clock.Now().UTC().Format(time.RFC3339),
		Comment:      comment,
	}
}
