package outbox

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Attempt is the outcome of recording a failed archive write
type Attempt struct {
	Count  int  // failed attempts so far, including this one
	GaveUp bool // the message left the pending set for good
}

// Repository stores outbox messages next to the posting lines they describe
type Repository interface {
	// Create stores a pending message. A second message for one journal is ErrDuplicateMessage.
	Create(ctx context.Context, message *Message) error

	// GetPending returns up to limit pending messages, oldest first
	GetPending(ctx context.Context, limit int) ([]*Message, error)

	// GetByJournalID returns ErrMessageNotFound when the journal was never applied
	GetByJournalID(ctx context.Context, journalID uuid.UUID) (*Message, error)

	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error

	// RecordFailure counts one failed attempt and gives the message up once
	// maxAttempts is reached, in a single statement
	RecordFailure(ctx context.Context, id int64, maxAttempts int) (Attempt, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	if e.ID == 0 {
		return "outbox message not found"
	}
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	return ok && (t.ID == 0 || t.ID == e.ID)
}

// ErrDuplicateMessage indicates the journal already has an outbox message
type ErrDuplicateMessage struct {
	JournalID uuid.UUID
}

func (e ErrDuplicateMessage) Error() string {
	return "duplicate outbox message for journal " + e.JournalID.String()
}

func (e ErrDuplicateMessage) Is(target error) bool {
	t, ok := target.(ErrDuplicateMessage)
	return ok && (t.JournalID == uuid.Nil || t.JournalID == e.JournalID)
}
