package components

import (
	"log/slog"
	"time"

	"github.com/accounting-ledger/internal/config"
	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

// CreatePostingEngine wires the engine with its default components.
func CreatePostingEngine(
	db service.TxBeginner,
	resolver service.LedgerResolver,
	postingRepo accounting.PostingRepository,
	outboxRepo outbox.Repository,
	archiveRepo journal.Repository,
	logger *slog.Logger,
	clock func() time.Time,
) *service.PostingEngine {
	return service.NewPostingEngine(
		db,
		NewJournalValidator(archiveRepo, outboxRepo, logger),
		resolver,
		NewPostingWriter(postingRepo, logger, clock),
		NewOutboxManager(outboxRepo, logger),
		NewFailureRecorder(archiveRepo, logger),
		accounting.PolicyWarningCalculator{},
		logger,
		clock,
	)
}

// CreateProcessingService puts the engine behind a ledger-serialized worker pool
func CreateProcessingService(
	db service.TxBeginner,
	resolver service.LedgerResolver,
	postingRepo accounting.PostingRepository,
	outboxRepo outbox.Repository,
	archiveRepo journal.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) (*service.LedgerPool, error) {
	engine := CreatePostingEngine(db, resolver, postingRepo, outboxRepo, archiveRepo, logger, cfg.Accounting.Clock())

	pool, err := service.NewLedgerPool(engine, cfg.WorkerPool.Size, logger.With("component", "worker_pool"))
	if err != nil {
		return nil, err
	}
	logger.Info("Created posting worker pool", "pool_size", cfg.WorkerPool.Size)
	return pool, nil
}
