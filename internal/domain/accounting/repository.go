package accounting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// GraphSource is the read side the graph builder fetches flat rows from
type GraphSource interface {
	// GetLedger returns ErrLedgerNotFound when no ledger has the id.
	GetLedger(ctx context.Context, ledgerID int64) (*LedgerRow, error)
	ListAccountRows(ctx context.Context, ledgerID int64, kind AccountKind) ([]AccountRow, error)
	// ListPostingLineRows returns lines dated on or before until, ordered by position.
	ListPostingLineRows(ctx context.Context, ledgerID int64, until time.Time) ([]PostingLineRow, error)
	ListCreditInfoRows(ctx context.Context, ledgerID int64, until YearMonth) ([]CreditInfoRow, error)
	ListBudgetInfoRows(ctx context.Context, ledgerID int64, until YearMonth) ([]BudgetInfoRow, error)
	// ListReferencedAccounts returns every account some posting line of the ledger points at.
	ListReferencedAccounts(ctx context.Context, ledgerID int64) ([]AccountRef, error)
}

// PostingRepository is the write side used while applying a journal
type PostingRepository interface {
	// MaxSortOrder returns the highest sort order used on date, or 0.
	MaxSortOrder(ctx context.Context, ledgerID int64, date time.Time) (int, error)
	// BalanceBefore sums debit minus credit over the account's lines strictly before pos.
	BalanceBefore(ctx context.Context, kind AccountKind, key AccountKey, pos PostingPosition) (decimal.Decimal, error)
	InsertPostingLine(ctx context.Context, row *PostingLineRow) error
	WithTx(tx pgx.Tx) PostingRepository
}

// MaintenanceRepository removes ledgers and accounts that nothing references
type MaintenanceRepository interface {
	DeleteLedger(ctx context.Context, ledgerID int64) error
	DeleteAccount(ctx context.Context, kind AccountKind, key AccountKey) error
	WithTx(tx pgx.Tx) MaintenanceRepository
}
