package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/domain/shared"
)

// Message carries an applied journal from the posting transaction to the archive
type Message struct {
	ID            int64               `json:"id"`
	JournalID     uuid.UUID           `json:"journal_id"`
	LedgerID      int64               `json:"ledger_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps the archive entry of an applied journal. The message is
// stamped with the moment the journal was applied, so the outbox drains in
// commit order.
func NewMessage(entry *journal.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive entry %s: %w", entry.JournalID, err)
	}

	createdAt := time.Now()
	if entry.ProcessedAt != nil {
		createdAt = *entry.ProcessedAt
	}
	return &Message{
		JournalID: entry.JournalID,
		LedgerID:  entry.LedgerID,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		CreatedAt: createdAt,
	}, nil
}

// Entry decodes the archive entry carried by the payload
func (m *Message) Entry() (*journal.Entry, error) {
	var entry journal.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	if entry.JournalID != m.JournalID {
		return nil, fmt.Errorf("payload belongs to journal %s, message to %s", entry.JournalID, m.JournalID)
	}
	return &entry, nil
}
