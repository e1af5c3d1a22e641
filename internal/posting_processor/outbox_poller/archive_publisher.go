package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/domain/shared"
)

// ErrUndecodablePayload marks a message that was given up without retries
var ErrUndecodablePayload = errors.New("undecodable outbox payload")

// ArchivePublisher moves applied journal results from the outbox to the archive
type ArchivePublisher interface {
	PublishToArchive(ctx context.Context, message *outbox.Message) error
}

// ArchivePublisherImpl implements ArchivePublisher
type ArchivePublisherImpl struct {
	outboxRepo  outbox.Repository
	archiveRepo journal.Repository
	logger      *slog.Logger
}

// NewArchivePublisher creates a new publisher
func NewArchivePublisher(
	outboxRepo outbox.Repository,
	archiveRepo journal.Repository,
	logger *slog.Logger,
) ArchivePublisher {
	return &ArchivePublisherImpl{
		outboxRepo:  outboxRepo,
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// PublishToArchive writes the entry carried by message and marks the message processed.
// Writing is idempotent: an entry already archived as APPLIED is left untouched.
func (p *ArchivePublisherImpl) PublishToArchive(ctx context.Context, message *outbox.Message) error {
	entry, err := message.Entry()
	if err != nil {
		p.logger.Error("Outbox payload is not a journal entry, giving it up",
			"outbox_id", message.ID, "journal_id", message.JournalID, "error", err,
		)
		if markErr := p.outboxRepo.MarkFailed(ctx, message.ID); markErr != nil {
			p.logger.Error("Failed to mark outbox message failed", "outbox_id", message.ID, "error", markErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Archiving applied journal", "outbox_id", message.ID, "journal_id", entry.JournalID)

	err = p.archiveRepo.Create(ctx, entry)
	switch {
	case err == nil:
		logger.Info("Created journal archive entry", "journal_id", entry.JournalID)
	case errors.Is(err, journal.ErrDuplicateEntry{}):
		if err := p.reconcile(ctx, logger, entry); err != nil {
			return err
		}
	default:
		logger.Error("Failed to create journal archive entry", "journal_id", entry.JournalID, "error", err)
		return fmt.Errorf("failed to archive journal %s: %w", entry.JournalID, err)
	}

	if err := p.outboxRepo.MarkProcessed(ctx, message.ID); err != nil {
		logger.Error("Failed to mark outbox message processed",
			"outbox_id", message.ID, "journal_id", message.JournalID, "error", err,
		)
		return fmt.Errorf("archive write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.JournalID, message.ID, err)
	}

	logger.Info("Outbox message processed", "outbox_id", message.ID, "journal_id", message.JournalID)
	return nil
}

// reconcile handles a journal that already has an archive entry. The committed
// result wins over any earlier entry.
func (p *ArchivePublisherImpl) reconcile(ctx context.Context, logger *slog.Logger, entry *journal.Entry) error {
	existing, err := p.archiveRepo.GetByJournalID(ctx, entry.JournalID)
	if err != nil && !errors.Is(err, journal.ErrEntryNotFound{}) {
		logger.Error("Failed to read existing archive entry", "journal_id", entry.JournalID, "error", err)
		return fmt.Errorf("failed to read archive entry %s: %w", entry.JournalID, err)
	}
	if existing != nil && existing.Status == shared.JournalStatusApplied {
		logger.Info("Journal already archived as APPLIED", "journal_id", entry.JournalID)
		return nil
	}

	if err := p.archiveRepo.Replace(ctx, entry); err != nil {
		logger.Error("Failed to replace archive entry", "journal_id", entry.JournalID, "error", err)
		return fmt.Errorf("failed to replace archive entry %s: %w", entry.JournalID, err)
	}
	logger.Info("Replaced archive entry with applied result", "journal_id", entry.JournalID)
	return nil
}
