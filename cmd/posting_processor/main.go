package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/accounting-ledger/internal/config"
	"github.com/accounting-ledger/internal/data/mongo"
	"github.com/accounting-ledger/internal/data/postgres"
	"github.com/accounting-ledger/internal/logger"
	"github.com/accounting-ledger/internal/materializer"
	"github.com/accounting-ledger/internal/platform/messaging/consumers"
	"github.com/accounting-ledger/internal/platform/messaging/producers"
	"github.com/accounting-ledger/internal/platform/persistence"
	"github.com/accounting-ledger/internal/posting_processor/components"
	"github.com/accounting-ledger/internal/posting_processor/consumer"
	"github.com/accounting-ledger/internal/posting_processor/outbox_poller"
)

// drainTimeout bounds how long running journals may take to finish on shutdown
const drainTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig("posting_processor")
	if err != nil {
		// no logger yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	if err := run(log, cfg); err != nil {
		log.Error("Posting Processor stopped with errors", "error", err)
		os.Exit(1)
	}
	log.Info("Posting Processor shutdown completed")
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log.Info("Starting Posting Processor", "timezone", cfg.Accounting.Location().String())

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Error("Failed to close MongoDB connection", "error", err)
		}
	}()

	graphRepo := postgres.NewGraphRepository(log, postgresDB)
	postingRepo := postgres.NewPostingRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())
	if err := journalRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to prepare journal archive: %w", err)
	}

	builder := materializer.NewBuilder(graphRepo, log.With("component", "graph_builder"), cfg.Accounting.Clock())

	pool, err := components.CreateProcessingService(postgresDB, builder, postingRepo, outboxRepo, journalRepo, log, cfg)
	if err != nil {
		return err
	}
	defer pool.Shutdown(drainTimeout)

	// Without a DLQ topic undecodable journals stay uncommitted and are retried in place
	var deadLetters producers.DeadLetterPublisher
	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize DLQ producer: %w", err)
	}
	if dlqProducer != nil {
		deadLetters = dlqProducer
		defer func() {
			if err := dlqProducer.Close(); err != nil {
				log.Error("Failed to close DLQ producer", "error", err)
			}
		}()
	}

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	defer func() {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error("Failed to close Kafka consumer", "error", err)
		}
	}()

	handler := consumer.NewJournalEventHandler(log, pool, deadLetters)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewArchivePublisher(outboxRepo, journalRepo, log),
		log.With("component", "outbox_poller"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafkaConsumer.Run(gctx, handler.HandleMessage)
	})
	g.Go(func() error {
		poller.Start(gctx)
		return nil
	})

	log.Info("Posting Processor running",
		"topic", cfg.Kafka.JournalTopic,
		"group", cfg.Kafka.ConsumerGroup,
		"workers", pool.Capacity(),
	)
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown signal received, draining")
	return nil
}
