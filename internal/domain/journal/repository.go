package journal

import (
	"context"

	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/shared"
)

// Repository manages archived journal entries with pagination support
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	Replace(ctx context.Context, entry *Entry) error
	GetByJournalID(ctx context.Context, journalID uuid.UUID) (*Entry, error)
	GetByLedgerID(ctx context.Context, ledgerID int64, limit, offset int) ([]*Entry, error)
	CountByLedgerID(ctx context.Context, ledgerID int64) (int64, error)
	UpdateStatus(ctx context.Context, journalID uuid.UUID, status shared.JournalStatus, reason string) error
}

// ErrEntryNotFound indicates a missing archive entry
type ErrEntryNotFound struct {
	JournalID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.JournalID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.JournalID == uuid.Nil {
		return true
	}
	return e.JournalID == t.JournalID
}

// ErrDuplicateEntry indicates the journal was already archived
type ErrDuplicateEntry struct {
	JournalID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate journal entry: " + e.JournalID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.JournalID == uuid.Nil {
		return true
	}
	return e.JournalID == t.JournalID
}
