package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/infoseries"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error) {
	args := m.Called(ctx, ledgerID, statusDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Ledger), args.Error(1)
}

func (m *MockLedgerService) DeleteLedger(ctx context.Context, ledgerID int64) error {
	args := m.Called(ctx, ledgerID)
	return args.Error(0)
}

func (m *MockLedgerService) DeleteAccount(ctx context.Context, ledgerID int64, kind accounting.AccountKind, number int64) error {
	args := m.Called(ctx, ledgerID, kind, number)
	return args.Error(0)
}

func (m *MockLedgerService) AmendPostingLine(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLedgerService) DeletePostingLine(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInfoService struct {
	mock.Mock
}

func (m *MockInfoService) SynchronizeCreditInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[decimal.Decimal], by string) (infoseries.Changes, error) {
	args := m.Called(ctx, key, desired, by)
	return args.Get(0).(infoseries.Changes), args.Error(1)
}

func (m *MockInfoService) SynchronizeBudgetInfo(ctx context.Context, key accounting.AccountKey, desired []infoseries.Entry[accounting.BudgetAmount], by string) (infoseries.Changes, error) {
	args := m.Called(ctx, key, desired, by)
	return args.Get(0).(infoseries.Changes), args.Error(1)
}

func (m *MockInfoService) DeleteCreditInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error) {
	args := m.Called(ctx, key, period)
	return args.Get(0).(infoseries.Changes), args.Error(1)
}

func (m *MockInfoService) DeleteBudgetInfo(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (infoseries.Changes, error) {
	args := m.Called(ctx, key, period)
	return args.Get(0).(infoseries.Changes), args.Error(1)
}

func (m *MockInfoService) ExpandCreditInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[decimal.Decimal], error) {
	args := m.Called(ctx, key, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infoseries.Entry[decimal.Decimal]), args.Error(1)
}

func (m *MockInfoService) ExpandBudgetInfo(ctx context.Context, key accounting.AccountKey, from, to accounting.YearMonth) ([]infoseries.Entry[accounting.BudgetAmount], error) {
	args := m.Called(ctx, key, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infoseries.Entry[accounting.BudgetAmount]), args.Error(1)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) SubmitJournal(ctx context.Context, j *accounting.PostingJournal) (*journal.Entry, error) {
	args := m.Called(ctx, j)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalService) GetJournal(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalService) ListLedgerJournals(ctx context.Context, ledgerID int64, page, perPage int) ([]*journal.Entry, int64, error) {
	args := m.Called(ctx, ledgerID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*journal.Entry), args.Get(1).(int64), args.Error(2)
}

var (
	_ service.LedgerService  = (*MockLedgerService)(nil)
	_ service.InfoService    = (*MockInfoService)(nil)
	_ service.JournalService = (*MockJournalService)(nil)
)
