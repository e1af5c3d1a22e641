// Package consumers reads journal requests from Kafka with at-least-once delivery.
package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/accounting-ledger/internal/config"
)

// MessageHandler processes one record. A returned error leaves the offset uncommitted.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// MessageReader is the part of kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer fetches records of one topic within a consumer group
// and commits each offset after its handler succeeded.
type KafkaConsumer struct {
	reader     MessageReader
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.BrokerList(),
		Topic:       cfg.JournalTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
	return &KafkaConsumer{
		reader:     reader,
		logger:     logger.With("topic", cfg.JournalTopic, "group_id", cfg.ConsumerGroup),
		retryDelay: time.Second,
	}
}

// Run blocks until ctx is cancelled. Fetch failures are logged and retried after a delay.
func (c *KafkaConsumer) Run(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Consuming from Kafka")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			c.logger.Info("Kafka consumer stopped")
			return nil
		}
		if err != nil {
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			select {
			case <-ctx.Done():
				c.logger.Info("Kafka consumer stopped")
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}
		c.process(ctx, msg, handler)
	}
}

func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	logger := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	logger.Debug("Received message from Kafka")

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		logger.Error("Failed to process message, offset left uncommitted", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		logger.Error("Failed to commit message offset", "error", err)
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
