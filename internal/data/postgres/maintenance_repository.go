package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/platform/persistence"
)

// MaintenanceRepository implements accounting.MaintenanceRepository for PostgreSQL.
// Callers check the computed deletable flag first; the restrictive foreign keys
// are the last line when a posting slipped in between.
type MaintenanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMaintenanceRepository creates a new PostgreSQL maintenance repository
func NewMaintenanceRepository(logger *slog.Logger, db *persistence.PostgresDB) accounting.MaintenanceRepository {
	return &MaintenanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *MaintenanceRepository) WithTx(tx pgx.Tx) accounting.MaintenanceRepository {
	return &MaintenanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// DeleteLedger removes a ledger together with its groups and basic accounts
func (r *MaintenanceRepository) DeleteLedger(ctx context.Context, ledgerID int64) error {
	query := `
		DELETE FROM ledgers
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to delete ledger", "ledger_id", ledgerID, "error", err)
		if isForeignKeyViolation(err) {
			return accounting.IntegrityViolationError{
				Entity: "ledger",
				ID:     strconv.FormatInt(ledgerID, 10),
				Reason: "ledger still has accounts or posting lines",
			}
		}
		return fmt.Errorf("failed to delete ledger: %w", asConflict("ledger", err))
	}

	if result.RowsAffected() == 0 {
		return accounting.ErrLedgerNotFound{LedgerID: ledgerID}
	}

	return nil
}

// DeleteAccount removes an account, its basic account and its info snapshots,
// then drops year months no snapshot points at anymore.
func (r *MaintenanceRepository) DeleteAccount(ctx context.Context, kind accounting.AccountKind, key accounting.AccountKey) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE ledger_id = $1 AND account_number = $2
	`, table)

	result, err := r.querier.Exec(ctx, query, key.LedgerID, key.Number)
	if err != nil {
		r.logger.Error("Failed to delete account", "kind", kind, "account", key.String(), "error", err)
		if isForeignKeyViolation(err) {
			return accounting.IntegrityViolationError{
				Entity: kind.Label() + " account",
				ID:     key.String(),
				Reason: "account is referenced by posting lines",
			}
		}
		return fmt.Errorf("failed to delete account: %w", asConflict("account", err))
	}
	if result.RowsAffected() == 0 {
		return accounting.ErrAccountNotFound{Kind: kind, Key: key}
	}

	basicQuery := `
		DELETE FROM basic_accounts
		WHERE ledger_id = $1 AND account_number = $2
	`
	if _, err := r.querier.Exec(ctx, basicQuery, key.LedgerID, key.Number); err != nil {
		r.logger.Error("Failed to delete basic account", "account", key.String(), "error", err)
		return fmt.Errorf("failed to delete basic account: %w", asConflict("account", err))
	}

	sweepQuery := `
		DELETE FROM year_months ym
		WHERE NOT EXISTS (SELECT 1 FROM credit_infos c WHERE c.year_month_id = ym.id)
		  AND NOT EXISTS (SELECT 1 FROM budget_infos b WHERE b.year_month_id = ym.id)
	`
	swept, err := r.querier.Exec(ctx, sweepQuery)
	if err != nil {
		r.logger.Error("Failed to release year months", "error", err)
		return fmt.Errorf("failed to release year months: %w", asConflict("year_month", err))
	}
	if swept.RowsAffected() > 0 {
		r.logger.Debug("Released unreferenced year months", "count", swept.RowsAffected())
	}

	return nil
}
