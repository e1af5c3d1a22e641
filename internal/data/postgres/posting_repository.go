package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/platform/persistence"
)

// postingColumns maps an account kind to the posting line column holding its account number
var postingColumns = map[accounting.AccountKind]string{
	accounting.AccountKindRegular: "account_number",
	accounting.AccountKindBudget:  "budget_account_number",
	accounting.AccountKindContact: "contact_account_number",
}

// PostingRepository implements accounting.PostingRepository for PostgreSQL
type PostingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPostingRepository creates a new PostgreSQL posting repository
func NewPostingRepository(logger *slog.Logger, db *persistence.PostgresDB) accounting.PostingRepository {
	return &PostingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to the journal's transaction
func (r *PostingRepository) WithTx(tx pgx.Tx) accounting.PostingRepository {
	return &PostingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// MaxSortOrder returns the highest sort order used on date, or 0 when the date has no lines
func (r *PostingRepository) MaxSortOrder(ctx context.Context, ledgerID int64, date time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(sort_order), 0)
		FROM posting_lines
		WHERE ledger_id = $1 AND posting_date = $2
	`

	var maxOrder int
	if err := r.querier.QueryRow(ctx, query, ledgerID, accounting.DateOf(date)).Scan(&maxOrder); err != nil {
		r.logger.Error("Failed to read max sort order", "ledger_id", ledgerID, "error", err)
		return 0, fmt.Errorf("failed to read max sort order: %w", asConflict("posting_line", err))
	}
	return maxOrder, nil
}

// BalanceBefore sums debit minus credit over the account's lines strictly before
// pos. Captured values are not used since a back-dated line leaves the values of
// later lines untouched.
func (r *PostingRepository) BalanceBefore(ctx context.Context, kind accounting.AccountKind, key accounting.AccountKey, pos accounting.PostingPosition) (decimal.Decimal, error) {
	column, ok := postingColumns[kind]
	if !ok {
		return decimal.Zero, accounting.ValidationError{Field: "account_kind", Reason: "unknown account kind " + string(kind)}
	}
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(debit - credit), 0)
		FROM posting_lines
		WHERE ledger_id = $1 AND %s = $2 AND (posting_date, sort_order) < ($3, $4)
	`, column)

	var balance decimal.Decimal
	err := r.querier.QueryRow(ctx, query, key.LedgerID, key.Number, accounting.DateOf(pos.Date), pos.SortOrder).Scan(&balance)
	if err != nil {
		r.logger.Error("Failed to read account balance",
			"kind", kind,
			"account", key.String(),
			"error", err,
		)
		return decimal.Zero, fmt.Errorf("failed to read account balance: %w", asConflict("posting_line", err))
	}
	return balance, nil
}

// InsertPostingLine stores a new line. A clash on (ledger, date, sort order) means
// another journal wrote the same ledger concurrently.
func (r *PostingRepository) InsertPostingLine(ctx context.Context, line *accounting.PostingLineRow) error {
	query := `
		INSERT INTO posting_lines (id, sort_order, ledger_id, posting_date, reference, account_number,
		                           budget_account_number, contact_account_number, debit, credit,
		                           account_value, budget_value, contact_value, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		line.ID,
		line.SortOrder,
		line.LedgerID,
		accounting.DateOf(line.Date),
		line.Reference,
		line.AccountNumber,
		line.BudgetAccountNumber,
		line.ContactAccountNumber,
		line.Debit,
		line.Credit,
		line.AccountValue,
		line.BudgetValue,
		line.ContactValue,
		line.Audit.CreatedAt,
		line.Audit.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to insert posting line",
			"line_id", line.ID.String(),
			"ledger_id", line.LedgerID,
			"error", err,
		)
		if isUniqueViolation(err) {
			return accounting.ConcurrencyConflictError{Entity: "posting_line", Cause: err}
		}
		return fmt.Errorf("failed to insert posting line: %w", asConflict("posting_line", err))
	}

	return nil
}
