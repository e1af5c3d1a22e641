package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accounting-ledger/internal/config"
)

// fakeReader serves queued messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.committed))
	for _, m := range r.committed {
		keys = append(keys, string(m.Key))
	}
	return keys
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		JournalTopic:  "posting_journals",
		ConsumerGroup: "posting-processor-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg)
	require.NotNil(t, consumer)
	reader, ok := consumer.reader.(*kafka.Reader)
	require.True(t, ok)
	assert.Equal(t, "posting_journals", reader.Config().Topic)
	assert.Equal(t, "posting-processor-group", reader.Config().GroupID)
	assert.Equal(t, kafka.FirstOffset, reader.Config().StartOffset)
	assert.NoError(t, consumer.Close())
}

// runAsync starts Run and returns a channel carrying its result
func runAsync(ctx context.Context, c *KafkaConsumer, handler MessageHandler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, handler) }()
	return done
}

func TestKafkaConsumer_Run(t *testing.T) {
	t.Run("commits only handled messages", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{
			{Key: []byte("1"), Value: []byte("ok")},
			{Key: []byte("2"), Value: []byte("fail")},
			{Key: []byte("3"), Value: []byte("ok")},
		}}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger(), retryDelay: time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		handled := make(chan string, 3)
		done := runAsync(ctx, consumer, func(_ context.Context, key, value []byte) error {
			handled <- string(key)
			if string(value) == "fail" {
				return errors.New("handler failed")
			}
			return nil
		})

		for i := 0; i < 3; i++ {
			<-handled
		}
		assert.Eventually(t, func() bool { return len(reader.committedKeys()) == 2 }, time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, <-done)

		assert.Equal(t, []string{"1", "3"}, reader.committedKeys())
	})

	t.Run("fetch errors are retried", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("broker unavailable")},
			messages:  []kafka.Message{{Key: []byte("9")}},
		}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger(), retryDelay: time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := runAsync(ctx, consumer, func(context.Context, []byte, []byte) error { return nil })

		assert.Eventually(t, func() bool { return len(reader.committedKeys()) == 1 }, time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, <-done)
	})

	t.Run("cancelled context returns at once", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: &fakeReader{}, logger: newTestLogger(), retryDelay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, consumer.Run(ctx, func(context.Context, []byte, []byte) error { return nil }))
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("nil reader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: newTestLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("closes the reader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
