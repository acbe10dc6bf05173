// Command genmock generates synthetic crater catalog fixtures covering the
// record shapes the normalizer has to handle: canonical flat records, legacy
// column names, GeoJSON Features, pixel-space coordinates, stringly-typed
// values, and sparse records. The generator is deterministic for a given
// seed so fixtures can be regenerated without churning test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -count 50 -seed 7 -out data/mock/crater_catalog_gen.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 25, "number of records to generate")
	seed := flag.Int64("seed", 1, "random seed")
	out := flag.String("out", "", "output path (default stdout)")
	flag.Parse()

	if *count <= 0 {
		return fmt.Errorf("count must be positive, got %d", *count)
	}

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // fixture generation, not crypto
	records := make([]map[string]any, 0, *count)
	for i := 0; i < *count; i++ {
		records = append(records, generateRecord(rng, i))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %d records to %s", len(records), *out)
	return nil
}

// generateRecord produces one record in a shape chosen round-robin so every
// generated catalog exercises all parser paths.
func generateRecord(rng *rand.Rand, i int) map[string]any {
	id := fmt.Sprintf("gen-%03d", i)
	lat := rng.Float64()*20 - 90 // southern polar region
	lon := rng.Float64()*360 - 180
	diameterKM := 1 + rng.Float64()*90

	switch i % 6 {
	case 0: // canonical flat record
		rec := map[string]any{
			"id":          id,
			"name":        fmt.Sprintf("Crater %d", i),
			"lat":         lat,
			"lon":         lon,
			"diameter_m":  diameterKM * 1000,
			"psr_overlap": rng.Float64(),
		}
		if rng.Float64() < 0.5 {
			rec["hydrogen_mean"] = rng.Float64() * 120
		}
		if rng.Float64() < 0.5 {
			rec["spectral_mean"] = rng.Float64()
		}
		return rec
	case 1: // legacy column names, unwrapped longitude
		return map[string]any{
			"CRATER_ID":   id,
			"latitude":    lat,
			"longitude":   lon + 360, // forces the wrap path
			"diameter_km": diameterKM,
			"hydrogen":    rng.Float64() * 120,
		}
	case 2: // GeoJSON Feature
		return map[string]any{
			"type": "Feature",
			"geometry": map[string]any{
				"type":        "Point",
				"coordinates": []float64{lon, lat},
			},
			"properties": map[string]any{
				"name":     fmt.Sprintf("Crater %d", i),
				"diameter": diameterKM, // bare value under 100, read as km
				"spectral": rng.Float64(),
			},
		}
	case 3: // pixel-space record, unplaceable without a transform
		return map[string]any{
			"id":         id,
			"pixel_x":    float64(rng.Intn(4096)),
			"pixel_y":    float64(rng.Intn(4096)),
			"diameter_m": diameterKM * 1000,
			"depth":      rng.Float64() * 3,
		}
	case 4: // stringly-typed export
		return map[string]any{
			"id":          id,
			"lat":         fmt.Sprintf("%.4f", lat),
			"lon":         fmt.Sprintf("%.4f", lon),
			"diameter":    fmt.Sprintf("%.2f", diameterKM),
			"psr":         rng.Float64() < 0.5,
			"water_score": fmt.Sprintf("%.2f", rng.Float64()),
		}
	default: // sparse record, mostly missing fields
		rec := map[string]any{"name": fmt.Sprintf("Unconfirmed %d", i)}
		if rng.Float64() < 0.5 {
			rec["lat"] = lat
			rec["lon"] = lon
		}
		return rec
	}
}
