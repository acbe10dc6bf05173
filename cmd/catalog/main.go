// Command catalog normalizes a crater catalog file offline, without Kafka.
// It runs the same normalization, PSR enrichment, and score estimation the
// streaming pipeline applies, then writes the result as a JSON array or a
// GeoJSON FeatureCollection.
//
// Usage:
//
//	go run ./cmd/catalog \
//	  -in data/mock/crater_catalog_mixed.json \
//	  -config catalog.yaml \
//	  -format geojson \
//	  -out features.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/embiggeneye/crater-etl/internal/config"
	"github.com/embiggeneye/crater-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input catalog file (JSON array or GeoJSON FeatureCollection)")
	cfgPath := flag.String("config", "", "optional YAML catalog config (pixel transform, weights, PSR file)")
	psrPath := flag.String("psr", "", "PSR polygon GeoJSON, overrides the config setting")
	out := flag.String("out", "", "output path (default stdout)")
	format := flag.String("format", "json", "output format: json or geojson")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}
	if *format != "json" && *format != "geojson" {
		return fmt.Errorf("unknown format %q, want json or geojson", *format)
	}

	catalog, err := config.LoadCatalog(*cfgPath)
	if err != nil {
		return err
	}

	psrFile := catalog.PSRGeoJSON
	if *psrPath != "" {
		psrFile = *psrPath
	}
	var psr *domain.PSRIndex
	if psrFile != "" {
		psr, err = domain.LoadPSRIndex(psrFile)
		if err != nil {
			return fmt.Errorf("load psr polygons: %w", err)
		}
		log.Printf("loaded %d PSR polygons from %s", psr.Size(), psrFile)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	records, err := domain.DecodeBatch(data)
	if err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	opts := domain.Options{PixelTransform: catalog.PixelTransform}
	features := make([]domain.Feature, 0, len(records))
	for _, rec := range records {
		f := domain.Normalize(rec, opts)
		if f.PSROverlap == nil && f.Placeable() && psr != nil && psr.Size() > 0 {
			overlap := psr.OverlapFraction(*f.Lat, *f.Lon)
			f.PSROverlap = &overlap
		}
		features = append(features, f)
	}

	domain.EstimateMissingScoresWeighted(features, catalog.Weights())

	var output any = features
	if *format == "geojson" {
		output = domain.FeaturesToGeoJSON(features)
	}
	if err := writeJSON(*out, output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printStats(features)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(features []domain.Feature) {
	var placeable, supplied, estimated, withPSR int
	for i := range features {
		f := &features[i]
		if f.Placeable() {
			placeable++
		}
		if f.PSROverlap != nil {
			withPSR++
		}
		switch f.ScoreSource {
		case domain.ScoreSourceSupplied:
			supplied++
		case domain.ScoreSourceEstimated:
			estimated++
		}
	}

	log.Printf("total: %d features", len(features))
	log.Printf("placeable: %d, unplaceable: %d", placeable, len(features)-placeable)
	log.Printf("scores: %d supplied, %d estimated", supplied, estimated)
	log.Printf("psr overlap present: %d", withPSR)
}
