//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embiggeneye/crater-etl/internal/adapter/kafka"
	"github.com/embiggeneye/crater-etl/internal/config"
	"github.com/embiggeneye/crater-etl/internal/domain"
	"github.com/embiggeneye/crater-etl/internal/observability"
	"github.com/embiggeneye/crater-etl/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// normalizedMessage holds a deserialized message read from the sink topic.
type normalizedMessage struct {
	Feature domain.Feature
	Key     string
	Headers map[string]string
}

// readNormalized reads a single message from the sink consumer and deserializes it.
func readNormalized(ctx context.Context, t *testing.T, consumer *kafkago.Reader) normalizedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var feature domain.Feature
	require.NoError(t, json.Unmarshal(msg.Value, &feature), "unmarshal sink message")

	return normalizedMessage{
		Feature: feature,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (BatchExtractor)
// and kafka.Writer (BatchLoader) correctly round-trip a record through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish the canonical flat record (Cabeus) to the source topic.
	records := loadMockData(t)
	payload := records[0]

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.JSONEq(t, string(payload), string(raw.Value))
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Transform the raw event into a normalized feature.
	transformer := pipeline.NewTransformer(domain.Options{}, nil, discardLogger())
	feature, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.Feature{feature}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	nm := readNormalized(ctx, t, consumer)
	assert.Equal(t, "c-001", nm.Key, "messages are keyed by feature ID")
	assert.Equal(t, "true", nm.Headers["placeable"])
	assert.Contains(t, nm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, nm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "c-001", nm.Feature.ID)
	assert.Equal(t, "Cabeus", nm.Feature.Name)
	require.NotNil(t, nm.Feature.DiameterM)
	assert.Equal(t, 98000.0, *nm.Feature.DiameterM)
	require.NotNil(t, nm.Feature.PSROverlap)
	assert.Equal(t, 0.82, *nm.Feature.PSROverlap)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer →
// Estimator → Writer) with real Kafka and verifies the whole mixed-shape
// catalog is normalized and scored.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish the whole mock catalog to the source topic.
	records := loadMockData(t)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("record-%d", i)),
			Value: rec,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(domain.Options{}, nil, discardLogger())
	estimator := pipeline.NewEstimator(domain.DefaultScoreWeights)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, estimator, writer, discardLogger(), metrics, 50)

	// Run the pipeline in a goroutine.
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all normalized messages from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]normalizedMessage, 0, len(records))
	for len(received) < len(records) {
		nm := readNormalized(ctx, t, consumer)
		received = append(received, nm)
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(records))
	byID := map[string]normalizedMessage{}
	for _, nm := range received {
		byID[nm.Feature.ID] = nm

		// Every message must have placeable and processed_at headers.
		assert.Contains(t, nm.Headers, "placeable")
		assert.Contains(t, nm.Headers, "processed_at")
		_, err := time.Parse(time.RFC3339, nm.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format")

		// Every record arrives in the same batch, so every score is filled.
		require.NotNil(t, nm.Feature.WaterScore, "feature %s missing score", nm.Feature.ID)
		assert.GreaterOrEqual(t, *nm.Feature.WaterScore, 0.0)
		assert.LessOrEqual(t, *nm.Feature.WaterScore, 1.0)
	}

	// Spot-check the legacy-column record: unwrapped longitude 222.7.
	sp104, ok := byID["SP-104"]
	require.True(t, ok, "expected SP-104 in sink output")
	require.NotNil(t, sp104.Feature.Lon)
	assert.InDelta(t, -137.3, *sp104.Feature.Lon, 1e-9)

	// Spot-check the supplied-score record: passed through untouched.
	c6, ok := byID["c-006"]
	require.True(t, ok, "expected c-006 in sink output")
	assert.Equal(t, domain.ScoreSourceSupplied, c6.Feature.ScoreSource)
	assert.Equal(t, 0.91, *c6.Feature.WaterScore)

	// Spot-check the pixel-space record: unplaceable without a transform,
	// still published.
	c7, ok := byID["c-007"]
	require.True(t, ok, "expected c-007 in sink output")
	assert.Equal(t, "false", c7.Headers["placeable"])
	assert.Nil(t, c7.Feature.Lat)
}

// TestPipelineTransformError verifies that an undecodable message (poison
// pill) is skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish: invalid JSON, then a valid catalog record.
	records := loadMockData(t)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: records[0]},
	))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(domain.Options{}, nil, discardLogger())
	estimator := pipeline.NewEstimator(domain.DefaultScoreWeights)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, estimator, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	nm := readNormalized(ctx, t, consumer)
	assert.Equal(t, "c-001", nm.Feature.ID)
	assert.Equal(t, "Cabeus", nm.Feature.Name)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
