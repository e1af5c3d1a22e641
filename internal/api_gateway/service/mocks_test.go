package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/shared"
	"github.com/accounting-ledger/internal/infoseries"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock returns June 15, 2024
func fixedClock() time.Time {
	return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) BuildLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error) {
	args := m.Called(ctx, ledgerID, statusDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Ledger), args.Error(1)
}

// fakeTx runs fn directly and records whether the transaction committed
type fakeTx struct {
	calls     int
	committed int
}

func (f *fakeTx) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		return err
	}
	f.committed++
	return nil
}

type MockMaintenanceRepo struct {
	mock.Mock
}

func (m *MockMaintenanceRepo) DeleteLedger(ctx context.Context, ledgerID int64) error {
	args := m.Called(ctx, ledgerID)
	return args.Error(0)
}

func (m *MockMaintenanceRepo) DeleteAccount(ctx context.Context, kind accounting.AccountKind, key accounting.AccountKey) error {
	args := m.Called(ctx, kind, key)
	return args.Error(0)
}

func (m *MockMaintenanceRepo) WithTx(tx pgx.Tx) accounting.MaintenanceRepository {
	return m
}

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

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// memoryStore is an in-memory series store
type memoryStore[V any] struct {
	records map[accounting.AccountKey][]infoseries.Record[V]
}

func newMemoryStore[V any]() *memoryStore[V] {
	return &memoryStore[V]{records: make(map[accounting.AccountKey][]infoseries.Record[V])}
}

func (s *memoryStore[V]) List(_ context.Context, key accounting.AccountKey) ([]infoseries.Record[V], error) {
	records := slices.Clone(s.records[key])
	slices.SortFunc(records, func(a, b infoseries.Record[V]) int { return a.Period.Compare(b.Period) })
	return records, nil
}

func (s *memoryStore[V]) Create(_ context.Context, key accounting.AccountKey, record infoseries.Record[V]) error {
	s.records[key] = append(s.records[key], record)
	return nil
}

func (s *memoryStore[V]) Update(_ context.Context, key accounting.AccountKey, record infoseries.Record[V]) error {
	for i, r := range s.records[key] {
		if r.Period == record.Period {
			s.records[key][i] = record
			return nil
		}
	}
	return accounting.ConcurrencyConflictError{Entity: "info"}
}

func (s *memoryStore[V]) Delete(_ context.Context, key accounting.AccountKey, period accounting.YearMonth) error {
	s.records[key] = slices.DeleteFunc(s.records[key], func(r infoseries.Record[V]) bool { return r.Period == period })
	return nil
}

// memoryDimension hands out ids and never releases rows
type memoryDimension struct {
	ids map[accounting.YearMonth]int64
}

func (d *memoryDimension) Acquire(_ context.Context, period accounting.YearMonth) (int64, error) {
	if d.ids == nil {
		d.ids = make(map[accounting.YearMonth]int64)
	}
	if id, ok := d.ids[period]; ok {
		return id, nil
	}
	d.ids[period] = int64(len(d.ids) + 1)
	return d.ids[period], nil
}

func (d *memoryDimension) Release(context.Context, accounting.YearMonth) (bool, error) {
	return false, nil
}

var (
	_ accounting.MaintenanceRepository          = (*MockMaintenanceRepo)(nil)
	_ journal.Repository                        = (*MockJournalRepo)(nil)
	_ infoseries.Store[accounting.BudgetAmount] = (*memoryStore[accounting.BudgetAmount])(nil)
	_ infoseries.Dimension                      = (*memoryDimension)(nil)
)
