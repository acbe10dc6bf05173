package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embiggeneye/crater-etl/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"id":"c-001"}`),
		Topic:     "raw-crater-records",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("catalog-loader")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"id":"c-001"}`, string(raw.Value))
	assert.Equal(t, "raw-crater-records", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "catalog-loader", raw.Headers["source"])
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lat, lon, score := -84.9, -35.5, 0.7
	feature := domain.Feature{
		ID:          "c-001",
		Name:        "Cabeus",
		Lat:         &lat,
		Lon:         &lon,
		WaterScore:  &score,
		ScoreSource: domain.ScoreSourceEstimated,
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(feature)
	require.NoError(t, err)

	assert.Equal(t, []byte("c-001"), msg.Key)
	assert.Contains(t, string(msg.Value), `"water_score":0.7`)
	assert.Contains(t, string(msg.Value), `"score_source":"estimated"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "placeable", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_Unplaceable(t *testing.T) {
	feature := domain.Feature{ID: "c-010", Name: "c-010"}

	msg, err := serializeToMessage(feature)
	require.NoError(t, err)

	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"lat":null`)
}
