package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/embiggeneye/crater-etl/internal/domain"
)

// CatalogConfig carries catalog-level settings that are deployment data
// rather than process environment: the pixel-to-geographic transform for
// image-space catalogs, score weight overrides, and the PSR polygon file.
type CatalogConfig struct {
	PixelTransform *domain.PixelTransform `yaml:"pixel_transform"`
	ScoreWeights   *domain.ScoreWeights   `yaml:"score_weights"`
	PSRGeoJSON     string                 `yaml:"psr_geojson"`
}

// LoadCatalog reads a YAML catalog config. An empty path returns the zero
// config: no pixel transform, default weights, no PSR polygons.
func LoadCatalog(path string) (*CatalogConfig, error) {
	if path == "" {
		return &CatalogConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}
	return &cfg, nil
}

// Weights returns the configured score weights, or the defaults.
func (c *CatalogConfig) Weights() domain.ScoreWeights {
	if c.ScoreWeights == nil {
		return domain.DefaultScoreWeights
	}
	return *c.ScoreWeights
}
