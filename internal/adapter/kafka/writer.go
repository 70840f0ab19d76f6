package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/energy-atlas-service/internal/config"
	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces department aggregate messages to a Kafka topic.
// It implements export.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured departments topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaDepartmentsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDepartments serializes every aggregate and writes them in a single
// WriteMessages call. Messages are keyed by canonical department key so each
// department always lands on the same partition.
func (w *Writer) PublishDepartments(ctx context.Context, loadedAt time.Time, aggs []domain.EnrichedDepartmentAggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(aggs))
	for i := range aggs {
		msg, err := serializeToMessage(aggs[i], loadedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write department aggregates: %w", err)
	}
	w.logger.Debug("department aggregates published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an enriched aggregate into a Kafka message.
func serializeToMessage(agg domain.EnrichedDepartmentAggregate, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize department aggregate %s: %w", agg.CanonicalKey, err)
	}
	return kafkago.Message{
		Key:   []byte(agg.CanonicalKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "canonical_key", Value: []byte(agg.CanonicalKey)},
			{Key: "loaded_at", Value: []byte(loadedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
