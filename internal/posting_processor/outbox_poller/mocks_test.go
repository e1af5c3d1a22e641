package outbox_poller

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/domain/shared"
)

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
	return m
}

type MockArchiveRepo struct {
	mock.Mock
}

func (m *MockArchiveRepo) Create(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockArchiveRepo) Replace(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockArchiveRepo) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockArchiveRepo) GetByLedgerID(ctx context.Context, ledgerID int64, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, ledgerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockArchiveRepo) CountByLedgerID(ctx context.Context, ledgerID int64) (int64, error) {
	args := m.Called(ctx, ledgerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArchiveRepo) UpdateStatus(ctx context.Context, journalID uuid.UUID, status shared.JournalStatus, reason string) error {
	args := m.Called(ctx, journalID, status, reason)
	return args.Error(0)
}

type MockArchivePublisher struct {
	mock.Mock
}

func (m *MockArchivePublisher) PublishToArchive(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

var (
	_ outbox.Repository  = (*MockOutboxRepo)(nil)
	_ journal.Repository = (*MockArchiveRepo)(nil)
	_ ArchivePublisher   = (*MockArchivePublisher)(nil)
)
