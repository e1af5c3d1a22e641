package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// ProcessingService defines the interface for processing submitted posting journals.
type ProcessingService interface {
	ProcessJournal(ctx context.Context, j *accounting.PostingJournal) error
}

// TxBeginner opens the database transaction a journal is applied in
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LedgerResolver materializes the ledger graph a journal is checked against
type LedgerResolver interface {
	BuildLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error)
}

// JournalValidator validates journals before processing
type JournalValidator interface {
	Validate(ctx context.Context, j *accounting.PostingJournal) error
	CheckIdempotency(ctx context.Context, j *accounting.PostingJournal) (bool, error)
}

// PostingWriter persists the journal's lines inside tx, capturing running values and warnings
type PostingWriter interface {
	WriteLines(ctx context.Context, tx pgx.Tx, ledger *accounting.Ledger, j *accounting.PostingJournal, calc accounting.WarningCalculator) ([]accounting.PostingLineRow, []accounting.PostingWarning, error)
}

// OutboxManager handles the creation of outbox entries for applied journals
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, j *accounting.PostingJournal, result *accounting.PostingJournalResult) error
}

// FailureRecorder handles recording rejected journals
type FailureRecorder interface {
	RecordFailure(ctx context.Context, j *accounting.PostingJournal, failureReason string) error
}
