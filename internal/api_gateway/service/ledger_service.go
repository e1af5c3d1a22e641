package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	db          TxExecutor
	resolver    LedgerResolver
	maintenance accounting.MaintenanceRepository
	logger      *slog.Logger
	clock       func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	logger *slog.Logger,
	db TxExecutor,
	resolver LedgerResolver,
	maintenance accounting.MaintenanceRepository,
	clock func() time.Time,
) LedgerService {
	if clock == nil {
		clock = time.Now
	}
	return &LedgerServiceImpl{
		db:          db,
		resolver:    resolver,
		maintenance: maintenance,
		logger:      logger,
		clock:       clock,
	}
}

func (s *LedgerServiceImpl) GetLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error) {
	ledger, err := s.resolver.BuildLedger(ctx, ledgerID, statusDate)
	if err != nil {
		if !errors.Is(err, accounting.ErrLedgerNotFound{}) {
			s.logger.Error("Failed to build ledger", "ledger_id", ledgerID, "error", err)
		}
		return nil, err
	}
	return ledger, nil
}

// DeleteLedger checks the freshly computed deletable flag before touching storage.
// Rows the graph excluded still block the delete through their foreign keys.
func (s *LedgerServiceImpl) DeleteLedger(ctx context.Context, ledgerID int64) error {
	ledger, err := s.resolver.BuildLedger(ctx, ledgerID, s.clock())
	if err != nil {
		return err
	}
	if !ledger.Deletable {
		return accounting.IntegrityViolationError{
			Entity: "ledger",
			ID:     strconv.FormatInt(ledgerID, 10),
			Reason: "ledger still has accounts or posting lines",
		}
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.maintenance.WithTx(tx).DeleteLedger(ctx, ledgerID)
	})
	if err != nil {
		s.logger.Error("Failed to delete ledger", "ledger_id", ledgerID, "error", err)
		return err
	}

	s.logger.Info("Ledger deleted", "ledger_id", ledgerID)
	return nil
}

func (s *LedgerServiceImpl) DeleteAccount(ctx context.Context, ledgerID int64, kind accounting.AccountKind, number int64) error {
	if !kind.IsValid() {
		return accounting.ValidationError{Field: "account_kind", Reason: "unknown account kind " + string(kind)}
	}
	ledger, err := s.resolver.BuildLedger(ctx, ledgerID, s.clock())
	if err != nil {
		return err
	}

	key := accounting.AccountKey{LedgerID: ledgerID, Number: number}
	account, ok := ledger.Account(kind, number)
	if !ok {
		return accounting.ErrAccountNotFound{Kind: kind, Key: key}
	}
	if !account.Base().Deletable {
		return accounting.IntegrityViolationError{
			Entity: kind.Label() + " account",
			ID:     key.String(),
			Reason: "account is referenced by posting lines",
		}
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.maintenance.WithTx(tx).DeleteAccount(ctx, kind, key)
	})
	if err != nil {
		s.logger.Error("Failed to delete account", "ledger_id", ledgerID, "account_number", number, "kind", string(kind), "error", err)
		return err
	}

	s.logger.Info("Account deleted", "ledger_id", ledgerID, "account_number", number, "kind", string(kind))
	return nil
}

func (s *LedgerServiceImpl) AmendPostingLine(_ context.Context, id uuid.UUID) error {
	return (&accounting.PostingLine{ID: id}).Amend()
}

func (s *LedgerServiceImpl) DeletePostingLine(_ context.Context, id uuid.UUID) error {
	return accounting.UnsupportedOperationError{Operation: fmt.Sprintf("delete posting line %s", id)}
}
