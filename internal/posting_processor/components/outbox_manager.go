package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

// OutboxManagerImpl queues applied journal results for the archive
type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{outboxRepo: outboxRepo, logger: logger}
}

// CreateOutboxEntry writes the archive entry of result in tx, so it commits
// together with the posting lines or not at all.
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, j *accounting.PostingJournal, result *accounting.PostingJournalResult) error {
	msg, err := outbox.NewMessage(journal.NewAppliedEntry(j, result))
	if err != nil {
		return fmt.Errorf("failed to encode outbox payload for journal %s: %w", j.ID, err)
	}

	if err := m.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		m.logger.Error("Failed to queue applied journal",
			"journal_id", j.ID.String(),
			"ledger_id", j.LedgerID,
			"correlation_id", j.CorrelationID,
			"error", err)
		return fmt.Errorf("failed to create outbox message for journal %s: %w", j.ID, err)
	}

	m.logger.Debug("Applied journal queued for archive",
		"journal_id", j.ID.String(),
		"outbox_id", msg.ID,
		"warnings", len(result.Warnings))
	return nil
}
