package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/land-risk-service/internal/config"
	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// Writer produces completed evaluations to a Kafka topic.
// It implements pipeline.EvaluationPublisher.
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

// PublishEvaluation serializes and publishes one evaluation, keyed by parcel
// so downstream consumers see per-parcel ordering.
func (w *Writer) PublishEvaluation(ctx context.Context, eval domain.Evaluation) error {
	msg, err := serializeToMessage(eval)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Evaluation into a Kafka message.
func serializeToMessage(eval domain.Evaluation) (kafkago.Message, error) {
	data, err := json.Marshal(eval)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize evaluation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(eval.LocationSummary.ParcelID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "classification", Value: []byte(eval.EngineOutput.Classification)},
			{Key: "evaluated_at", Value: []byte(eval.Metadata.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
