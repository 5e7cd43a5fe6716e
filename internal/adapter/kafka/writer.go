package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/isar-water-etl/internal/config"
	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// messageKey keys every reading so one partition keeps them ordered.
const messageKey = "isar"

// Writer mirrors composite readings to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one reading and waits for the broker acknowledgement.
func (w *Writer) Publish(ctx context.Context, reading domain.CompositeReading) error {
	msg, err := serializeToMessage(reading)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	w.logger.Debug("kafka reading published", "topic", w.writer.Topic, "time", reading.Time)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CompositeReading into a Kafka message.
func serializeToMessage(reading domain.CompositeReading) (kafkago.Message, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize composite reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("hnd-gkd-bayern")},
			{Key: "reading_time", Value: []byte(reading.Time)},
		},
	}, nil
}
