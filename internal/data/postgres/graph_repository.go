// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository runs against a persistence.Querier so it can be bound to the
// pool or to the transaction of one journal.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/platform/persistence"
)

var accountTables = map[accounting.AccountKind]string{
	accounting.AccountKindRegular: "regular_accounts",
	accounting.AccountKindBudget:  "budget_accounts",
	accounting.AccountKindContact: "contact_accounts",
}

func accountTable(kind accounting.AccountKind) (string, error) {
	table, ok := accountTables[kind]
	if !ok {
		return "", accounting.ValidationError{Field: "account_kind", Reason: "unknown account kind " + string(kind)}
	}
	return table, nil
}

const postingLineColumns = `id, sort_order, ledger_id, posting_date, reference, account_number,
		       budget_account_number, contact_account_number, debit, credit,
		       account_value, budget_value, contact_value, created_at, created_by`

func scanPostingLine(row pgx.Row) (accounting.PostingLineRow, error) {
	var line accounting.PostingLineRow
	err := row.Scan(
		&line.ID,
		&line.SortOrder,
		&line.LedgerID,
		&line.Date,
		&line.Reference,
		&line.AccountNumber,
		&line.BudgetAccountNumber,
		&line.ContactAccountNumber,
		&line.Debit,
		&line.Credit,
		&line.AccountValue,
		&line.BudgetValue,
		&line.ContactValue,
		&line.Audit.CreatedAt,
		&line.Audit.CreatedBy,
	)
	return line, err
}

// GraphRepository implements accounting.GraphSource for PostgreSQL
type GraphRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewGraphRepository creates a graph source reading from the pool
func NewGraphRepository(logger *slog.Logger, db *persistence.PostgresDB) *GraphRepository {
	return &GraphRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx so a build sees the transaction's own writes
func (r *GraphRepository) WithTx(tx pgx.Tx) *GraphRepository {
	return &GraphRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetLedger retrieves a ledger row by id
func (r *GraphRepository) GetLedger(ctx context.Context, ledgerID int64) (*accounting.LedgerRow, error) {
	query := `
		SELECT id, name, letterhead_id, balance_policy, back_dating_limit_days,
		       created_at, created_by, modified_at, modified_by
		FROM ledgers
		WHERE id = $1
	`

	var ledger accounting.LedgerRow
	err := r.querier.QueryRow(ctx, query, ledgerID).Scan(
		&ledger.ID,
		&ledger.Name,
		&ledger.LetterheadID,
		&ledger.BalancePolicy,
		&ledger.BackDatingLimitDays,
		&ledger.Audit.CreatedAt,
		&ledger.Audit.CreatedBy,
		&ledger.Audit.ModifiedAt,
		&ledger.Audit.ModifiedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounting.ErrLedgerNotFound{LedgerID: ledgerID}
		}
		r.logger.Error("Failed to get ledger", "ledger_id", ledgerID, "error", err)
		return nil, fmt.Errorf("failed to get ledger: %w", asConflict("ledger", err))
	}

	return &ledger, nil
}

// ListAccountRows returns every account of kind with its basic account and group
// joined in. Missing joins leave Basic or Group nil.
func (r *GraphRepository) ListAccountRows(ctx context.Context, ledgerID int64, kind accounting.AccountKind) ([]accounting.AccountRow, error) {
	table, err := accountTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT a.ledger_id, a.account_number, a.account_group_id,
		       b.name, b.description, b.note, b.created_at, b.created_by, b.modified_at, b.modified_by,
		       g.id, g.name
		FROM %s a
		LEFT JOIN basic_accounts b ON b.ledger_id = a.ledger_id AND b.account_number = a.account_number
		LEFT JOIN account_groups g ON g.id = a.account_group_id
		WHERE a.ledger_id = $1
		ORDER BY a.account_number ASC
	`, table)

	rows, err := r.querier.Query(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to list accounts", "ledger_id", ledgerID, "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to list %s accounts: %w", kind.Label(), asConflict("account", err))
	}
	defer rows.Close()

	var accounts []accounting.AccountRow
	for rows.Next() {
		var (
			account                 accounting.AccountRow
			name, description, note *string
			createdBy, modifiedBy   *string
			createdAt, modifiedAt   *time.Time
			groupID                 *int64
			groupName               *string
		)
		err := rows.Scan(
			&account.LedgerID,
			&account.Number,
			&account.GroupID,
			&name, &description, &note, &createdAt, &createdBy, &modifiedAt, &modifiedBy,
			&groupID, &groupName,
		)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.Kind = kind
		if name != nil {
			account.Basic = &accounting.BasicAccountRow{
				Name:        *name,
				Description: deref(description),
				Note:        deref(note),
				Audit: accounting.AuditInfo{
					CreatedBy:  deref(createdBy),
					ModifiedAt: modifiedAt,
					ModifiedBy: deref(modifiedBy),
				},
			}
			if createdAt != nil {
				account.Basic.Audit.CreatedAt = *createdAt
			}
		}
		if groupID != nil {
			account.Group = &accounting.AccountGroupRow{ID: *groupID, Name: deref(groupName)}
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over accounts", "error", err)
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// ListPostingLineRows returns the ledger's lines dated on or before until in position order
func (r *GraphRepository) ListPostingLineRows(ctx context.Context, ledgerID int64, until time.Time) ([]accounting.PostingLineRow, error) {
	query := `
		SELECT ` + postingLineColumns + `
		FROM posting_lines
		WHERE ledger_id = $1 AND posting_date <= $2
		ORDER BY posting_date ASC, sort_order ASC
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, accounting.DateOf(until))
	if err != nil {
		r.logger.Error("Failed to list posting lines", "ledger_id", ledgerID, "error", err)
		return nil, fmt.Errorf("failed to list posting lines: %w", asConflict("posting_line", err))
	}
	defer rows.Close()

	var lines []accounting.PostingLineRow
	for rows.Next() {
		line, err := scanPostingLine(rows)
		if err != nil {
			r.logger.Error("Failed to scan posting line", "error", err)
			return nil, fmt.Errorf("failed to scan posting line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over posting lines", "error", err)
		return nil, fmt.Errorf("error iterating over posting lines: %w", err)
	}

	return lines, nil
}

// ListCreditInfoRows returns credit snapshots up to and including until
func (r *GraphRepository) ListCreditInfoRows(ctx context.Context, ledgerID int64, until accounting.YearMonth) ([]accounting.CreditInfoRow, error) {
	query := `
		SELECT c.ledger_id, c.account_number, ym.year, ym.month, c.credit_limit,
		       c.created_at, c.created_by, c.modified_at, c.modified_by
		FROM credit_infos c
		JOIN year_months ym ON ym.id = c.year_month_id
		WHERE c.ledger_id = $1 AND (ym.year, ym.month) <= ($2, $3)
		ORDER BY c.account_number ASC, ym.year ASC, ym.month ASC
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, until.Year, int(until.Month))
	if err != nil {
		r.logger.Error("Failed to list credit infos", "ledger_id", ledgerID, "error", err)
		return nil, fmt.Errorf("failed to list credit infos: %w", asConflict("credit_info", err))
	}
	defer rows.Close()

	var infos []accounting.CreditInfoRow
	for rows.Next() {
		var (
			info  accounting.CreditInfoRow
			month int
		)
		err := rows.Scan(
			&info.LedgerID,
			&info.AccountNumber,
			&info.Period.Year,
			&month,
			&info.CreditLimit,
			&info.Audit.CreatedAt,
			&info.Audit.CreatedBy,
			&info.Audit.ModifiedAt,
			&info.Audit.ModifiedBy,
		)
		if err != nil {
			r.logger.Error("Failed to scan credit info", "error", err)
			return nil, fmt.Errorf("failed to scan credit info: %w", err)
		}
		info.Period.Month = time.Month(month)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over credit infos: %w", err)
	}

	return infos, nil
}

// ListBudgetInfoRows returns budget snapshots up to and including until
func (r *GraphRepository) ListBudgetInfoRows(ctx context.Context, ledgerID int64, until accounting.YearMonth) ([]accounting.BudgetInfoRow, error) {
	query := `
		SELECT b.ledger_id, b.account_number, ym.year, ym.month, b.income, b.expense,
		       b.created_at, b.created_by, b.modified_at, b.modified_by
		FROM budget_infos b
		JOIN year_months ym ON ym.id = b.year_month_id
		WHERE b.ledger_id = $1 AND (ym.year, ym.month) <= ($2, $3)
		ORDER BY b.account_number ASC, ym.year ASC, ym.month ASC
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, until.Year, int(until.Month))
	if err != nil {
		r.logger.Error("Failed to list budget infos", "ledger_id", ledgerID, "error", err)
		return nil, fmt.Errorf("failed to list budget infos: %w", asConflict("budget_info", err))
	}
	defer rows.Close()

	var infos []accounting.BudgetInfoRow
	for rows.Next() {
		var (
			info  accounting.BudgetInfoRow
			month int
		)
		err := rows.Scan(
			&info.LedgerID,
			&info.AccountNumber,
			&info.Period.Year,
			&month,
			&info.Budget.Income,
			&info.Budget.Expense,
			&info.Audit.CreatedAt,
			&info.Audit.CreatedBy,
			&info.Audit.ModifiedAt,
			&info.Audit.ModifiedBy,
		)
		if err != nil {
			r.logger.Error("Failed to scan budget info", "error", err)
			return nil, fmt.Errorf("failed to scan budget info: %w", err)
		}
		info.Period.Month = time.Month(month)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over budget infos: %w", err)
	}

	return infos, nil
}

// ListReferencedAccounts returns each account some line of the ledger points at,
// regardless of posting date.
func (r *GraphRepository) ListReferencedAccounts(ctx context.Context, ledgerID int64) ([]accounting.AccountRef, error) {
	query := `
		SELECT 'REGULAR', account_number FROM posting_lines WHERE ledger_id = $1
		UNION
		SELECT 'BUDGET', budget_account_number FROM posting_lines
		WHERE ledger_id = $1 AND budget_account_number IS NOT NULL
		UNION
		SELECT 'CONTACT', contact_account_number FROM posting_lines
		WHERE ledger_id = $1 AND contact_account_number IS NOT NULL
	`

	rows, err := r.querier.Query(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to list referenced accounts", "ledger_id", ledgerID, "error", err)
		return nil, fmt.Errorf("failed to list referenced accounts: %w", asConflict("posting_line", err))
	}
	defer rows.Close()

	var refs []accounting.AccountRef
	for rows.Next() {
		var ref accounting.AccountRef
		if err := rows.Scan(&ref.Kind, &ref.Number); err != nil {
			return nil, fmt.Errorf("failed to scan referenced account: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over referenced accounts: %w", err)
	}

	return refs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
