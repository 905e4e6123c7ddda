// Package export streams typed funding events to Kafka for downstream
// analytics consumers. The export is best-effort: live sync and the ledger do
// not depend on it.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

type KafkaExporter struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaExporter(brokers []string, topic string) (*KafkaExporter, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("NewKafkaExporter: at least one broker required")
	}
	return &KafkaExporter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

// Publish writes the event keyed by campaign id, so per-campaign ordering is
// preserved within a partition.
func (e *KafkaExporter) Publish(ctx context.Context, event domain.FundingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}
	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Snapshot.CampaignID.String()),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (e *KafkaExporter) Close() error {
	return e.writer.Close()
}
