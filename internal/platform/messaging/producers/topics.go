package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/accounting-ledger/internal/config"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// KafkaWriter is the part of *kafka.Writer the producers use
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the part of *kafka.Conn needed to bootstrap a topic
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// topicBootstrap creates missing topics. backoff is a field so tests can zero it.
type topicBootstrap struct {
	admin    topicAdmin
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

// topicConfig sizes a topic from cfg. The journal topic's partition count bounds
// how many ledgers the posting processor applies in parallel.
func topicConfig(cfg *config.KafkaConfig, topic string) kafka.TopicConfig {
	tc := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if tc.NumPartitions <= 0 {
		tc.NumPartitions = 1
	}
	if tc.ReplicationFactor <= 0 {
		tc.ReplicationFactor = 1
	}
	return tc
}

// ensure creates tc.Topic when no partitions of it can be read.
// A topic whose partitions were read even once is left untouched.
func (b *topicBootstrap) ensure(ctx context.Context, tc kafka.TopicConfig) error {
	var lastErr error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		partitions, err := b.admin.ReadPartitions(tc.Topic)
		if err == nil && len(partitions) > 0 {
			b.logger.Info("Kafka topic exists", "topic", tc.Topic, "partitions", len(partitions))
			return nil
		}
		if err == nil {
			break
		}
		lastErr = err
		b.logger.Warn("Failed to read topic partitions", "topic", tc.Topic, "attempt", attempt, "error", err)
		if attempt == b.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic check for %s interrupted: %w", tc.Topic, ctx.Err())
		case <-time.After(b.backoff):
		}
	}

	b.logger.Info("Creating Kafka topic",
		"topic", tc.Topic,
		"partitions", tc.NumPartitions,
		"replication_factor", tc.ReplicationFactor,
		"last_read_error", lastErr)
	if err := b.admin.CreateTopics(tc); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", tc.Topic, err)
	}
	return nil
}

// ensureTopic dials the brokers and makes sure topic exists
func ensureTopic(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", cfg.BrokerList()[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	b := &topicBootstrap{admin: conn, logger: logger, attempts: topicReadAttempts, backoff: topicReadBackoff}
	return b.ensure(ctx, topicConfig(cfg, topic))
}

// newSyncWriter returns a writer that waits for every in-sync replica
func newSyncWriter(cfg *config.KafkaConfig, topic string, balancer kafka.Balancer) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        topic,
		Balancer:     balancer,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}
}
