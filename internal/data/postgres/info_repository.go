package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/infoseries"
	"github.com/accounting-ledger/internal/platform/persistence"
)

const yearMonthID = `(SELECT id FROM year_months WHERE year = $3 AND month = $4)`

// CreditInfoRepository stores the compacted credit-limit series of regular accounts
type CreditInfoRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ infoseries.Store[decimal.Decimal] = (*CreditInfoRepository)(nil)

// NewCreditInfoRepository creates a new PostgreSQL credit info repository
func NewCreditInfoRepository(logger *slog.Logger, db *persistence.PostgresDB) *CreditInfoRepository {
	return &CreditInfoRepository{querier: db.Pool(), logger: logger}
}

// WithTx wraps the repository with a transaction
func (r *CreditInfoRepository) WithTx(tx pgx.Tx) *CreditInfoRepository {
	return &CreditInfoRepository{querier: tx, logger: r.logger}
}

// List returns the account's credit records in ascending period order
func (r *CreditInfoRepository) List(ctx context.Context, key accounting.AccountKey) ([]infoseries.Record[decimal.Decimal], error) {
	query := `
		SELECT ym.year, ym.month, c.credit_limit, c.created_at, c.created_by, c.modified_at, c.modified_by
		FROM credit_infos c
		JOIN year_months ym ON ym.id = c.year_month_id
		WHERE c.ledger_id = $1 AND c.account_number = $2
		ORDER BY ym.year ASC, ym.month ASC
	`

	rows, err := r.querier.Query(ctx, query, key.LedgerID, key.Number)
	if err != nil {
		r.logger.Error("Failed to list credit infos", "account", key.String(), "error", err)
		return nil, fmt.Errorf("failed to list credit infos: %w", asConflict("credit_info", err))
	}
	defer rows.Close()

	var records []infoseries.Record[decimal.Decimal]
	for rows.Next() {
		var (
			record infoseries.Record[decimal.Decimal]
			month  int
		)
		err := rows.Scan(
			&record.Period.Year,
			&month,
			&record.Value,
			&record.Audit.CreatedAt,
			&record.Audit.CreatedBy,
			&record.Audit.ModifiedAt,
			&record.Audit.ModifiedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit info: %w", err)
		}
		record.Period.Month = time.Month(month)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over credit infos: %w", err)
	}

	return records, nil
}

// Create stores a record; the period's year month must already be acquired
func (r *CreditInfoRepository) Create(ctx context.Context, key accounting.AccountKey, record infoseries.Record[decimal.Decimal]) error {
	query := `
		INSERT INTO credit_infos (ledger_id, account_number, year_month_id, credit_limit, created_at, created_by)
		VALUES ($1, $2, ` + yearMonthID + `, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		key.LedgerID, key.Number, record.Period.Year, int(record.Period.Month),
		record.Value, record.Audit.CreatedAt, record.Audit.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create credit info", "account", key.String(), "period", record.Period.String(), "error", err)
		if isUniqueViolation(err) {
			return accounting.ConcurrencyConflictError{Entity: "credit_info", Cause: err}
		}
		return fmt.Errorf("failed to create credit info: %w", asConflict("credit_info", err))
	}
	return nil
}

// Update overwrites the record's value and modification stamp
func (r *CreditInfoRepository) Update(ctx context.Context, key accounting.AccountKey, record infoseries.Record[decimal.Decimal]) error {
	query := `
		UPDATE credit_infos
		SET credit_limit = $5, modified_at = $6, modified_by = $7
		WHERE ledger_id = $1 AND account_number = $2 AND year_month_id = ` + yearMonthID + `
	`

	result, err := r.querier.Exec(ctx, query,
		key.LedgerID, key.Number, record.Period.Year, int(record.Period.Month),
		record.Value, record.Audit.ModifiedAt, record.Audit.ModifiedBy,
	)
	if err != nil {
		r.logger.Error("Failed to update credit info", "account", key.String(), "period", record.Period.String(), "error", err)
		return fmt.Errorf("failed to update credit info: %w", asConflict("credit_info", err))
	}
	if result.RowsAffected() == 0 {
		return accounting.ConcurrencyConflictError{Entity: "credit_info"}
	}
	return nil
}

// Delete removes the record for period
func (r *CreditInfoRepository) Delete(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) error {
	query := `
		DELETE FROM credit_infos
		WHERE ledger_id = $1 AND account_number = $2 AND year_month_id = ` + yearMonthID + `
	`

	result, err := r.querier.Exec(ctx, query, key.LedgerID, key.Number, period.Year, int(period.Month))
	if err != nil {
		r.logger.Error("Failed to delete credit info", "account", key.String(), "period", period.String(), "error", err)
		return fmt.Errorf("failed to delete credit info: %w", asConflict("credit_info", err))
	}
	if result.RowsAffected() == 0 {
		return accounting.ConcurrencyConflictError{Entity: "credit_info"}
	}
	return nil
}

// BudgetInfoRepository stores the compacted budget series of budget accounts
type BudgetInfoRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ infoseries.Store[accounting.BudgetAmount] = (*BudgetInfoRepository)(nil)

// NewBudgetInfoRepository creates a new PostgreSQL budget info repository
func NewBudgetInfoRepository(logger *slog.Logger, db *persistence.PostgresDB) *BudgetInfoRepository {
	return &BudgetInfoRepository{querier: db.Pool(), logger: logger}
}

// WithTx wraps the repository with a transaction
func (r *BudgetInfoRepository) WithTx(tx pgx.Tx) *BudgetInfoRepository {
	return &BudgetInfoRepository{querier: tx, logger: r.logger}
}

// List returns the account's budget records in ascending period order
func (r *BudgetInfoRepository) List(ctx context.Context, key accounting.AccountKey) ([]infoseries.Record[accounting.BudgetAmount], error) {
	query := `
		SELECT ym.year, ym.month, b.income, b.expense, b.created_at, b.created_by, b.modified_at, b.modified_by
		FROM budget_infos b
		JOIN year_months ym ON ym.id = b.year_month_id
		WHERE b.ledger_id = $1 AND b.account_number = $2
		ORDER BY ym.year ASC, ym.month ASC
	`

	rows, err := r.querier.Query(ctx, query, key.LedgerID, key.Number)
	if err != nil {
		r.logger.Error("Failed to list budget infos", "account", key.String(), "error", err)
		return nil, fmt.Errorf("failed to list budget infos: %w", asConflict("budget_info", err))
	}
	defer rows.Close()

	var records []infoseries.Record[accounting.BudgetAmount]
	for rows.Next() {
		var (
			record infoseries.Record[accounting.BudgetAmount]
			month  int
		)
		err := rows.Scan(
			&record.Period.Year,
			&month,
			&record.Value.Income,
			&record.Value.Expense,
			&record.Audit.CreatedAt,
			&record.Audit.CreatedBy,
			&record.Audit.ModifiedAt,
			&record.Audit.ModifiedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget info: %w", err)
		}
		record.Period.Month = time.Month(month)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over budget infos: %w", err)
	}

	return records, nil
}

// Create stores a record; the period's year month must already be acquired
func (r *BudgetInfoRepository) Create(ctx context.Context, key accounting.AccountKey, record infoseries.Record[accounting.BudgetAmount]) error {
	query := `
		INSERT INTO budget_infos (ledger_id, account_number, year_month_id, income, expense, created_at, created_by)
		VALUES ($1, $2, ` + yearMonthID + `, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		key.LedgerID, key.Number, record.Period.Year, int(record.Period.Month),
		record.Value.Income, record.Value.Expense, record.Audit.CreatedAt, record.Audit.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create budget info", "account", key.String(), "period", record.Period.String(), "error", err)
		if isUniqueViolation(err) {
			return accounting.ConcurrencyConflictError{Entity: "budget_info", Cause: err}
		}
		return fmt.Errorf("failed to create budget info: %w", asConflict("budget_info", err))
	}
	return nil
}

// Update overwrites the record's income, expense and modification stamp
func (r *BudgetInfoRepository) Update(ctx context.Context, key accounting.AccountKey, record infoseries.Record[accounting.BudgetAmount]) error {
	query := `
		UPDATE budget_infos
		SET income = $5, expense = $6, modified_at = $7, modified_by = $8
		WHERE ledger_id = $1 AND account_number = $2 AND year_month_id = ` + yearMonthID + `
	`

	result, err := r.querier.Exec(ctx, query,
		key.LedgerID, key.Number, record.Period.Year, int(record.Period.Month),
		record.Value.Income, record.Value.Expense, record.Audit.ModifiedAt, record.Audit.ModifiedBy,
	)
	if err != nil {
		r.logger.Error("Failed to update budget info", "account", key.String(), "period", record.Period.String(), "error", err)
		return fmt.Errorf("failed to update budget info: %w", asConflict("budget_info", err))
	}
	if result.RowsAffected() == 0 {
		return accounting.ConcurrencyConflictError{Entity: "budget_info"}
	}
	return nil
}

// Delete removes the record for period
func (r *BudgetInfoRepository) Delete(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) error {
	query := `
		DELETE FROM budget_infos
		WHERE ledger_id = $1 AND account_number = $2 AND year_month_id = ` + yearMonthID + `
	`

	result, err := r.querier.Exec(ctx, query, key.LedgerID, key.Number, period.Year, int(period.Month))
	if err != nil {
		r.logger.Error("Failed to delete budget info", "account", key.String(), "period", period.String(), "error", err)
		return fmt.Errorf("failed to delete budget info: %w", asConflict("budget_info", err))
	}
	if result.RowsAffected() == 0 {
		return accounting.ConcurrencyConflictError{Entity: "budget_info"}
	}
	return nil
}

// YearMonthRepository implements infoseries.Dimension over the shared year_months table
type YearMonthRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ infoseries.Dimension = (*YearMonthRepository)(nil)

// NewYearMonthRepository creates a new PostgreSQL year month repository
func NewYearMonthRepository(logger *slog.Logger, db *persistence.PostgresDB) *YearMonthRepository {
	return &YearMonthRepository{querier: db.Pool(), logger: logger}
}

// WithTx wraps the repository with a transaction
func (r *YearMonthRepository) WithTx(tx pgx.Tx) *YearMonthRepository {
	return &YearMonthRepository{querier: tx, logger: r.logger}
}

// Acquire returns the period's row id, inserting the row on first reference
func (r *YearMonthRepository) Acquire(ctx context.Context, period accounting.YearMonth) (int64, error) {
	query := `
		INSERT INTO year_months (year, month)
		VALUES ($1, $2)
		ON CONFLICT (year, month) DO UPDATE SET year = EXCLUDED.year
		RETURNING id
	`

	var id int64
	if err := r.querier.QueryRow(ctx, query, period.Year, int(period.Month)).Scan(&id); err != nil {
		r.logger.Error("Failed to acquire year month", "period", period.String(), "error", err)
		return 0, fmt.Errorf("failed to acquire year month: %w", asConflict("year_month", err))
	}
	return id, nil
}

// Release deletes the period's row when neither info table references it
func (r *YearMonthRepository) Release(ctx context.Context, period accounting.YearMonth) (bool, error) {
	query := `
		DELETE FROM year_months ym
		WHERE ym.year = $1 AND ym.month = $2
		  AND NOT EXISTS (SELECT 1 FROM credit_infos c WHERE c.year_month_id = ym.id)
		  AND NOT EXISTS (SELECT 1 FROM budget_infos b WHERE b.year_month_id = ym.id)
	`

	result, err := r.querier.Exec(ctx, query, period.Year, int(period.Month))
	if err != nil {
		r.logger.Error("Failed to release year month", "period", period.String(), "error", err)
		return false, fmt.Errorf("failed to release year month: %w", asConflict("year_month", err))
	}
	return result.RowsAffected() > 0, nil
}
