package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/infoseries"
)

// LedgerResolver materializes ledger graphs
type LedgerResolver interface {
	BuildLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error)
}

// TxExecutor runs fn in one database transaction
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// InfoStores groups the series stores and the shared year-month dimension
type InfoStores struct {
	Credits   infoseries.Store[decimal.Decimal]
	Budgets   infoseries.Store[accounting.BudgetAmount]
	Dimension infoseries.Dimension
}

// InfoStoreBinder returns InfoStores that run their statements on tx
type InfoStoreBinder func(tx pgx.Tx) InfoStores

// LedgerService defines ledger reads and maintenance
type LedgerService interface {
	// GetLedger materializes the ledger as of statusDate
	GetLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error)

	// DeleteLedger removes an empty ledger.
	// Returns IntegrityViolationError while accounts or posting lines remain
	DeleteLedger(ctx context.Context, ledgerID int64) error

	// DeleteAccount removes an account no posting line refers to
	DeleteAccount(ctx context.Context, ledgerID int64, kind accounting.AccountKind, number int64) error

	// AmendPostingLine and DeletePostingLine always fail: posting lines are immutable
	AmendPostingLine(ctx context.Context, id uuid.UUID) error
	DeletePostingLine(ctx context.Context, id uuid.UUID) error
}

// InfoService maintains the monthly credit-limit and budget series
type InfoService interface {
	SynchronizeCreditInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[decimal.Decimal], by string) (infoseries.Changes, error)
	SynchronizeBudgetInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[accounting.BudgetAmount], by string) (infoseries.Changes, error)

	// DeleteCreditInfo and DeleteBudgetInfo only accept months after the current one
	DeleteCreditInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error)
	DeleteBudgetInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error)

	ExpandCreditInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[decimal.Decimal], error)
	ExpandBudgetInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[accounting.BudgetAmount], error)
}

// JournalService defines journal submission and archive reads
type JournalService interface {
	// SubmitJournal publishes the journal for asynchronous application.
	// Returns the archived entry instead when the journal id was already processed
	SubmitJournal(ctx context.Context, j *accounting.PostingJournal) (*journal.Entry, error)

	// GetJournal returns the archived outcome.
	// Returns journal.ErrEntryNotFound while the journal is pending or unknown
	GetJournal(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error)

	// ListLedgerJournals returns a page of archived entries and the total count
	ListLedgerJournals(ctx context.Context, ledgerID int64, page, perPage int) ([]*journal.Entry, int64, error)
}
