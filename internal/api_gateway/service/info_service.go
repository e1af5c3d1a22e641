package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/infoseries"
)

// MaxExpandMonths bounds the range an expansion may cover
const MaxExpandMonths = 1200

// InfoServiceImpl implements the InfoService interface. Writes run the compactor in
// one transaction over stores bound to it.
type InfoServiceImpl struct {
	db       TxExecutor
	resolver LedgerResolver
	stores   InfoStores
	bind     InfoStoreBinder
	logger   *slog.Logger
	clock    func() time.Time
}

// NewInfoService creates a new info series service. stores serves reads outside
// a transaction; bind produces the transactional ones.
func NewInfoService(
	logger *slog.Logger,
	db TxExecutor,
	resolver LedgerResolver,
	stores InfoStores,
	bind InfoStoreBinder,
	clock func() time.Time,
) InfoService {
	if clock == nil {
		clock = time.Now
	}
	return &InfoServiceImpl{
		db:       db,
		resolver: resolver,
		stores:   stores,
		bind:     bind,
		logger:   logger,
		clock:    clock,
	}
}

func (s *InfoServiceImpl) SynchronizeCreditInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[decimal.Decimal], by string) (infoseries.Changes, error) {
	for _, e := range desired {
		if e.Value.IsNegative() {
			return infoseries.Changes{}, accounting.ValidationError{Field: "credit_limit", Reason: e.Period.String() + " must not be negative"}
		}
	}
	if err := s.requireAccount(ctx, accounting.AccountKindRegular, key); err != nil {
		return infoseries.Changes{}, err
	}

	var changes infoseries.Changes
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		stores := s.bind(tx)
		var err error
		changes, err = infoseries.NewCompactor[decimal.Decimal](stores.Credits, stores.Dimension, s.logger, s.clock).
			Synchronize(ctx, key, desired, by)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to synchronize credit info", "account", key.String(), "error", err)
		return infoseries.Changes{}, err
	}
	return changes, nil
}

func (s *InfoServiceImpl) SynchronizeBudgetInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[accounting.BudgetAmount], by string) (infoseries.Changes, error) {
	if err := s.requireAccount(ctx, accounting.AccountKindBudget, key); err != nil {
		return infoseries.Changes{}, err
	}

	var changes infoseries.Changes
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		stores := s.bind(tx)
		var err error
		changes, err = infoseries.NewCompactor[accounting.BudgetAmount](stores.Budgets, stores.Dimension, s.logger, s.clock).
			Synchronize(ctx, key, desired, by)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to synchronize budget info", "account", key.String(), "error", err)
		return infoseries.Changes{}, err
	}
	return changes, nil
}

func (s *InfoServiceImpl) DeleteCreditInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error) {
	if err := s.requireFuture("credit info", key, period); err != nil {
		return infoseries.Changes{}, err
	}
	if err := s.requireAccount(ctx, accounting.AccountKindRegular, key); err != nil {
		return infoseries.Changes{}, err
	}

	var changes infoseries.Changes
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		stores := s.bind(tx)
		var err error
		changes, err = infoseries.NewCompactor[decimal.Decimal](stores.Credits, stores.Dimension, s.logger, s.clock).
			Remove(ctx, key, period)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete credit info", "account", key.String(), "period", period.String(), "error", err)
		return infoseries.Changes{}, err
	}
	return changes, nil
}

func (s *InfoServiceImpl) DeleteBudgetInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error) {
	if err := s.requireFuture("budget info", key, period); err != nil {
		return infoseries.Changes{}, err
	}
	if err := s.requireAccount(ctx, accounting.AccountKindBudget, key); err != nil {
		return infoseries.Changes{}, err
	}

	var changes infoseries.Changes
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		stores := s.bind(tx)
		var err error
		changes, err = infoseries.NewCompactor[accounting.BudgetAmount](stores.Budgets, stores.Dimension, s.logger, s.clock).
			Remove(ctx, key, period)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete budget info", "account", key.String(), "period", period.String(), "error", err)
		return infoseries.Changes{}, err
	}
	return changes, nil
}

func (s *InfoServiceImpl) ExpandCreditInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[decimal.Decimal], error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accounting.AccountKindRegular, key); err != nil {
		return nil, err
	}
	records, err := s.stores.Credits.List(ctx, key)
	if err != nil {
		return nil, err
	}
	return infoseries.Expand(records, from, to), nil
}

func (s *InfoServiceImpl) ExpandBudgetInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[accounting.BudgetAmount], error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accounting.AccountKindBudget, key); err != nil {
		return nil, err
	}
	records, err := s.stores.Budgets.List(ctx, key)
	if err != nil {
		return nil, err
	}
	return infoseries.Expand(records, from, to), nil
}

// requireAccount verifies the account is part of the ledger's graph with the given kind
func (s *InfoServiceImpl) requireAccount(ctx context.Context, kind accounting.AccountKind, key accounting.AccountKey) error {
	ledger, err := s.resolver.BuildLedger(ctx, key.LedgerID, s.clock())
	if err != nil {
		return err
	}
	if _, ok := ledger.Account(kind, key.Number); !ok {
		return accounting.ErrAccountNotFound{Kind: kind, Key: key}
	}
	return nil
}

func (s *InfoServiceImpl) requireFuture(entity string, key accounting.AccountKey, period accounting.YearMonth) error {
	if accounting.SnapshotDeletable(period, s.clock()) {
		return nil
	}
	return accounting.IntegrityViolationError{
		Entity: entity,
		ID:     key.String() + "@" + period.String(),
		Reason: "only months after the current month may be deleted",
	}
}

func validateRange(from, to accounting.YearMonth) error {
	if to.Before(from) {
		return accounting.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	if from.MonthsUntil(to) >= MaxExpandMonths {
		return accounting.ValidationError{Field: "to", Reason: "range is too long"}
	}
	return nil
}
