package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/platform/messaging/producers"
)

// JournalServiceImpl implements the JournalService interface
type JournalServiceImpl struct {
	archiveRepo journal.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
	clock       func() time.Time
}

// NewJournalService creates a new journal service
func NewJournalService(logger *slog.Logger, archiveRepo journal.Repository, producer producers.MessagePublisher) JournalService {
	return &JournalServiceImpl{
		archiveRepo: archiveRepo,
		producer:    producer,
		logger:      logger,
		clock:       time.Now,
	}
}

// SubmitJournal publishes the journal keyed by its ledger number, so journals of one
// ledger are applied by one consumer in order. A caller-supplied id makes resubmission safe.
func (s *JournalServiceImpl) SubmitJournal(ctx context.Context, j *accounting.PostingJournal) (*journal.Entry, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	} else {
		existing, err := s.archiveRepo.GetByJournalID(ctx, j.ID)
		if err != nil && !errors.Is(err, journal.ErrEntryNotFound{}) {
			s.logger.Error("Failed to check for an archived journal", "journal_id", j.ID.String(), "error", err)
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Journal already processed",
				"journal_id", j.ID.String(),
				"status", string(existing.Status),
			)
			return existing, nil
		}
	}
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = s.clock()
	}

	key := strconv.FormatInt(j.LedgerID, 10)
	if err := s.producer.Publish(ctx, key, j); err != nil {
		s.logger.Error("Failed to publish posting journal",
			"journal_id", j.ID.String(),
			"ledger_id", j.LedgerID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Posting journal published",
		"journal_id", j.ID.String(),
		"ledger_id", j.LedgerID,
		"lines", len(j.Lines),
	)
	return nil, nil
}

func (s *JournalServiceImpl) GetJournal(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error) {
	entry, err := s.archiveRepo.GetByJournalID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, journal.ErrEntryNotFound{}) {
			s.logger.Error("Failed to get journal", "journal_id", journalID.String(), "error", err)
		}
		return nil, err
	}
	return entry, nil
}

func (s *JournalServiceImpl) ListLedgerJournals(ctx context.Context, ledgerID int64, page, perPage int) ([]*journal.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.archiveRepo.GetByLedgerID(ctx, ledgerID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.archiveRepo.CountByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
