package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/accounting-ledger/internal/config"
)

// MessagePublisher publishes keyed messages to a primary topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// JournalRequestProducer publishes submitted posting journals to the journal topic.
// Messages are keyed by ledger number and hash-balanced, so every journal of one
// ledger lands on the same partition and is applied in submission order.
type JournalRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewJournalRequestProducer creates the API gateway producer and ensures the topic exists
func NewJournalRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*JournalRequestProducer, error) {
	if cfg.JournalTopic == "" {
		return nil, fmt.Errorf("kafka journal topic is not configured")
	}

	if err := ensureTopic(ctx, logger, cfg, cfg.JournalTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure journal topic %s exists: %w", cfg.JournalTopic, err)
	}

	return &JournalRequestProducer{
		logger: logger,
		writer: newSyncWriter(cfg, cfg.JournalTopic, &kafka.Hash{}),
		topic:  cfg.JournalTopic,
	}, nil
}

// Publish writes value as JSON under key. The write is synchronous so the caller
// only acknowledges a journal the broker accepted.
func (p *JournalRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal journal message: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   jsonValue,
		Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish journal message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish journal message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published journal message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *JournalRequestProducer) Close() error {
	p.logger.Info("Closing journal Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close journal kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
