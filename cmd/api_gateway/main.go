package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/accounting-ledger/internal/api_gateway"
	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/config"
	"github.com/accounting-ledger/internal/data/mongo"
	"github.com/accounting-ledger/internal/data/postgres"
	"github.com/accounting-ledger/internal/logger"
	"github.com/accounting-ledger/internal/materializer"
	"github.com/accounting-ledger/internal/platform/messaging/producers"
	"github.com/accounting-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	if err := run(log, cfg); err != nil {
		log.Error("API Gateway stopped with errors", "error", err)
		os.Exit(1)
	}
	log.Info("API Gateway shutdown completed")
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	clock := cfg.Accounting.Clock()

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

	// Journals are keyed by ledger so one partition sees a ledger's journals in order
	journalProducer, err := producers.NewJournalRequestProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize journal producer: %w", err)
	}
	defer func() {
		if err := journalProducer.Close(); err != nil {
			log.Error("Failed to close journal producer", "error", err)
		}
	}()

	graphRepo := postgres.NewGraphRepository(log, postgresDB)
	creditRepo := postgres.NewCreditInfoRepository(log, postgresDB)
	budgetRepo := postgres.NewBudgetInfoRepository(log, postgresDB)
	yearMonthRepo := postgres.NewYearMonthRepository(log, postgresDB)
	builder := materializer.NewBuilder(graphRepo, log.With("component", "graph_builder"), clock)

	stores := service.InfoStores{Credits: creditRepo, Budgets: budgetRepo, Dimension: yearMonthRepo}
	bindStores := func(tx pgx.Tx) service.InfoStores {
		return service.InfoStores{
			Credits:   creditRepo.WithTx(tx),
			Budgets:   budgetRepo.WithTx(tx),
			Dimension: yearMonthRepo.WithTx(tx),
		}
	}

	server := api_gateway.NewServer(log, cfg,
		service.NewLedgerService(log, postgresDB, builder, postgres.NewMaintenanceRepository(log, postgresDB), clock),
		service.NewInfoService(log, postgresDB, builder, stores, bindStores, clock),
		service.NewJournalService(log, mongo.NewJournalRepository(log, mongoDB.Database()), journalProducer),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		// Stop accepting requests before closing what they depend on
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	return g.Wait()
}
