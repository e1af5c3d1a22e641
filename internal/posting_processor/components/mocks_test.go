package components

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/domain/shared"
)

type MockJournalRepo struct {
	mock.Mock
}

func (m *MockJournalRepo) Create(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepo) Replace(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepo) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalRepo) GetByLedgerID(ctx context.Context, ledgerID int64, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, ledgerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepo) CountByLedgerID(ctx context.Context, ledgerID int64) (int64, error) {
	args := m.Called(ctx, ledgerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepo) UpdateStatus(ctx context.Context, journalID uuid.UUID, status shared.JournalStatus, reason string) error {
	args := m.Called(ctx, journalID, status, reason)
	return args.Error(0)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) RecordFailure(ctx context.Context, id int64, maxAttempts int) (outbox.Attempt, error) {
	args := m.Called(ctx, id, maxAttempts)
	return args.Get(0).(outbox.Attempt), args.Error(1)
}

func (m *MockOutboxRepo) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// memoryPostingRepo records inserted lines and answers value lookups from them
type memoryPostingRepo struct {
	lines    []accounting.PostingLineRow
	failOn   int
	inserted int
}

func (r *memoryPostingRepo) MaxSortOrder(_ context.Context, ledgerID int64, date time.Time) (int, error) {
	max := 0
	for _, l := range r.lines {
		if l.LedgerID == ledgerID && l.Date.Equal(date) && l.SortOrder > max {
			max = l.SortOrder
		}
	}
	return max, nil
}

func (r *memoryPostingRepo) BalanceBefore(_ context.Context, kind accounting.AccountKind, key accounting.AccountKey, pos accounting.PostingPosition) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, l := range r.lines {
		if l.LedgerID != key.LedgerID || !l.Position().Before(pos) || !touches(l, kind, key.Number) {
			continue
		}
		balance = balance.Add(l.Debit).Sub(l.Credit)
	}
	return balance, nil
}

func touches(l accounting.PostingLineRow, kind accounting.AccountKind, number int64) bool {
	switch kind {
	case accounting.AccountKindRegular:
		return l.AccountNumber == number
	case accounting.AccountKindBudget:
		return l.BudgetAccountNumber != nil && *l.BudgetAccountNumber == number
	case accounting.AccountKindContact:
		return l.ContactAccountNumber != nil && *l.ContactAccountNumber == number
	}
	return false
}

func (r *memoryPostingRepo) InsertPostingLine(_ context.Context, row *accounting.PostingLineRow) error {
	r.inserted++
	if r.failOn > 0 && r.inserted == r.failOn {
		return errors.New("insert failed")
	}
	r.lines = append(r.lines, *row)
	return nil
}

func (r *memoryPostingRepo) WithTx(pgx.Tx) accounting.PostingRepository {
	return r
}
