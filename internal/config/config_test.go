package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embiggeneye/crater-etl/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-crater-records", cfg.KafkaSourceTopic)
	assert.Equal(t, "normalized-crater-features", cfg.KafkaSinkTopic)
	assert.Equal(t, "crater-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "annotations.db", cfg.AnnotationsDB)
	assert.Empty(t, cfg.CatalogConfigPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("ANNOTATIONS_DB", "/var/lib/crater/annotations.db")
	t.Setenv("CATALOG_CONFIG", "catalog.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/var/lib/crater/annotations.db", cfg.AnnotationsDB)
	assert.Equal(t, "catalog.yaml", cfg.CatalogConfigPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path is zero config", func(t *testing.T) {
		cfg, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Nil(t, cfg.PixelTransform)
		assert.Equal(t, domain.DefaultScoreWeights, cfg.Weights())
		assert.Empty(t, cfg.PSRGeoJSON)
	})

	t.Run("full file", func(t *testing.T) {
		yaml := `
pixel_transform:
  min_lon: -180
  max_lon: 180
  min_lat: -90
  max_lat: 90
  width: 3600
  height: 1800
score_weights:
  psr: 0.5
  hydrogen: 0.3
  spectral: 0.15
  depth: 0.05
psr_geojson: psr_south_pole.geojson
`
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		cfg, err := LoadCatalog(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.PixelTransform)
		assert.Equal(t, 3600.0, cfg.PixelTransform.Width)
		assert.Equal(t, 0.5, cfg.Weights().PSR)
		assert.Equal(t, "psr_south_pole.geojson", cfg.PSRGeoJSON)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
