package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climo-likelihood/internal/config"
	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

// Writer produces likelihood results to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaResultsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a result and writes it to the results topic. Results
// for the same point and date share a key and therefore a partition.
func (w *Writer) Publish(ctx context.Context, result domain.LikelihoodResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write result %s: %w", result.Key(), err)
	}
	w.logger.Debug("result published", "key", result.Key(), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LikelihoodResult into a Kafka message.
func serializeToMessage(result domain.LikelihoodResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize likelihood result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "conditions", Value: []byte(strings.Join(result.ConditionNames(), ","))},
			{Key: "generated_at", Value: []byte(result.Metadata.GeneratedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
