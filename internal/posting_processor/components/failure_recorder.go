package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/shared"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

type FailureRecorderImpl struct {
	archiveRepo journal.Repository
	logger      *slog.Logger
}

func NewFailureRecorder(archiveRepo journal.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// RecordFailure archives a rejected journal
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, j *accounting.PostingJournal, failureReason string) error {
	logger := r.logger
	if j.CorrelationID != "" {
		logger = r.logger.With("correlation_id", j.CorrelationID)
	}

	logger.Info("Recording rejected journal", "journal_id", j.ID.String(), "reason", failureReason)

	existingEntry, err := r.archiveRepo.GetByJournalID(ctx, j.ID)
	if err != nil && !errors.Is(err, journal.ErrEntryNotFound{}) {
		logger.Error("Failed to get existing archive entry for rejected journal", "journal_id", j.ID.String(), "error", err)
	}

	if existingEntry != nil {
		if existingEntry.Status == shared.JournalStatusRejected {
			logger.Info("Archive entry already marked as REJECTED", "journal_id", j.ID.String())
			return nil
		}
		if updateErr := r.archiveRepo.UpdateStatus(ctx, j.ID, shared.JournalStatusRejected, failureReason); updateErr != nil {
			logger.Error("Failed to update archive entry to REJECTED", "journal_id", j.ID.String(), "error", updateErr)
			return updateErr
		}
		return nil
	}

	if createErr := r.archiveRepo.Create(ctx, journal.NewRejectedEntry(j, failureReason)); createErr != nil {
		logger.Error("Failed to create REJECTED archive entry", "journal_id", j.ID.String(), "error", createErr)
		return createErr
	}
	logger.Info("Successfully created REJECTED archive entry", "journal_id", j.ID.String())
	return nil
}
