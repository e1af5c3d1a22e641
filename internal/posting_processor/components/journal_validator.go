package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

type JournalValidatorImpl struct {
	archiveRepo journal.Repository
	outboxRepo  outbox.Repository
	logger      *slog.Logger
}

func NewJournalValidator(archiveRepo journal.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.JournalValidator {
	return &JournalValidatorImpl{
		archiveRepo: archiveRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

// Validate checks the journal's shape
func (v *JournalValidatorImpl) Validate(ctx context.Context, j *accounting.PostingJournal) error {
	if err := j.Validate(); err != nil {
		v.logger.Error("Invalid posting journal", "journal_id", j.ID.String(), "error", err)
		return err
	}
	return nil
}

// CheckIdempotency reports whether the journal was already applied or rejected.
// An outbox message means the journal committed but is not archived yet.
func (v *JournalValidatorImpl) CheckIdempotency(ctx context.Context, j *accounting.PostingJournal) (bool, error) {
	logger := v.logger
	if j.CorrelationID != "" {
		logger = v.logger.With("correlation_id", j.CorrelationID)
	}

	entry, err := v.archiveRepo.GetByJournalID(ctx, j.ID)
	if err != nil && !errors.Is(err, journal.ErrEntryNotFound{}) {
		logger.Error("Failed to check archive for idempotency", "journal_id", j.ID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for journal %s: %w", j.ID.String(), err)
	}
	if entry != nil && entry.Status.IsTerminal() {
		logger.Info("Journal already processed (idempotency)", "journal_id", j.ID.String(), "status", entry.Status)
		return true, nil
	}

	message, err := v.outboxRepo.GetByJournalID(ctx, j.ID)
	if err != nil && !errors.Is(err, outbox.ErrMessageNotFound{}) {
		logger.Error("Failed to check outbox for idempotency", "journal_id", j.ID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for journal %s: %w", j.ID.String(), err)
	}
	if message != nil {
		logger.Info("Journal already committed, awaiting archive", "journal_id", j.ID.String(), "outbox_id", message.ID)
		return true, nil
	}

	return false, nil
}
