package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/embiggeneye/crater-etl/internal/config"
	"github.com/embiggeneye/crater-etl/internal/domain"
)

// Writer produces normalized features to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple features to the sink topic in
// a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, features []domain.Feature) error {
	if len(features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(features))
	for i := range features {
		msg, err := serializeToMessage(features[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Feature into a Kafka message keyed by the
// feature ID, so re-emitted catalogs land on stable partitions.
func serializeToMessage(feature domain.Feature) (kafkago.Message, error) {
	data, err := json.Marshal(feature)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(feature.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "placeable", Value: []byte(strconv.FormatBool(feature.Placeable()))},
			{Key: "processed_at", Value: []byte(feature.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
