// Package kafka publishes fused depth records to a sink topic for downstream
// consumers (the habitat model ingest, dashboards). The sink is optional;
// the CSV output table is always written.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces fused rows to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes fused rows to the sink topic in a
// single WriteMessages call.
func (w *Writer) PublishBatch(ctx context.Context, rows []domain.FusedRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
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

// serializeToMessage marshals a fused row into a Kafka message keyed by the
// observation id.
func serializeToMessage(row domain.FusedRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fused row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Obs.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(strconv.Itoa(row.Station.ID))},
			{Key: "processed_at", Value: []byte(row.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
