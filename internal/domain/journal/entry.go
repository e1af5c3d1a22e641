package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/shared"
)

// Entry is the archived outcome of one posting journal. Amounts are kept as
// decimal strings so the document stays exact in every store.
type Entry struct {
	JournalID     uuid.UUID            `json:"journal_id" bson:"journal_id"`
	LedgerID      int64                `json:"ledger_id" bson:"ledger_id"`
	Status        shared.JournalStatus `json:"status" bson:"status"`
	FailureReason string               `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	SubmittedBy   string               `json:"submitted_by,omitempty" bson:"submitted_by,omitempty"`
	CorrelationID string               `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Lines         []Line               `json:"lines,omitempty" bson:"lines,omitempty"`
	Warnings      []Warning            `json:"warnings,omitempty" bson:"warnings,omitempty"`
	SubmittedAt   time.Time            `json:"submitted_at" bson:"submitted_at"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// Line is an archived posting line
type Line struct {
	ID                   uuid.UUID `json:"id" bson:"id"`
	SortOrder            int       `json:"sort_order" bson:"sort_order"`
	Date                 string    `json:"date" bson:"date"`
	Reference            string    `json:"reference,omitempty" bson:"reference,omitempty"`
	AccountNumber        int64     `json:"account_number" bson:"account_number"`
	BudgetAccountNumber  *int64    `json:"budget_account_number,omitempty" bson:"budget_account_number,omitempty"`
	ContactAccountNumber *int64    `json:"contact_account_number,omitempty" bson:"contact_account_number,omitempty"`
	Debit                string    `json:"debit" bson:"debit"`
	Credit               string    `json:"credit" bson:"credit"`
	AccountValue         string    `json:"account_value" bson:"account_value"`
	BudgetValue          string    `json:"budget_value,omitempty" bson:"budget_value,omitempty"`
	ContactValue         string    `json:"contact_value,omitempty" bson:"contact_value,omitempty"`
}

// Warning is an archived posting warning
type Warning struct {
	LineID        uuid.UUID `json:"line_id" bson:"line_id"`
	AccountKind   string    `json:"account_kind" bson:"account_kind"`
	AccountNumber int64     `json:"account_number" bson:"account_number"`
	Balance       string    `json:"balance" bson:"balance"`
	CreditLimit   string    `json:"credit_limit" bson:"credit_limit"`
	Kind          string    `json:"kind" bson:"kind"`
}

// NewAppliedEntry archives a committed journal result
func NewAppliedEntry(j *accounting.PostingJournal, result *accounting.PostingJournalResult) *Entry {
	appliedAt := result.AppliedAt
	entry := &Entry{
		JournalID:     result.JournalID,
		LedgerID:      result.LedgerID,
		Status:        shared.JournalStatusApplied,
		SubmittedBy:   j.SubmittedBy,
		CorrelationID: j.CorrelationID,
		SubmittedAt:   j.SubmittedAt,
		ProcessedAt:   &appliedAt,
	}
	for _, row := range result.Lines {
		line := Line{
			ID:                   row.ID,
			SortOrder:            row.SortOrder,
			Date:                 row.Date.Format(time.DateOnly),
			Reference:            row.Reference,
			AccountNumber:        row.AccountNumber,
			BudgetAccountNumber:  row.BudgetAccountNumber,
			ContactAccountNumber: row.ContactAccountNumber,
			Debit:                row.Debit.String(),
			Credit:               row.Credit.String(),
			AccountValue:         row.AccountValue.String(),
		}
		if row.BudgetValue.Valid {
			line.BudgetValue = row.BudgetValue.Decimal.String()
		}
		if row.ContactValue.Valid {
			line.ContactValue = row.ContactValue.Decimal.String()
		}
		entry.Lines = append(entry.Lines, line)
	}
	for _, w := range result.Warnings {
		entry.Warnings = append(entry.Warnings, Warning{
			LineID:        w.LineID,
			AccountKind:   string(w.Account.Kind),
			AccountNumber: w.Account.Number,
			Balance:       w.Balance.String(),
			CreditLimit:   w.CreditLimit.String(),
			Kind:          string(w.Kind),
		})
	}
	return entry
}

// NewRejectedEntry archives a journal that was not applied
func NewRejectedEntry(j *accounting.PostingJournal, reason string) *Entry {
	now := time.Now()
	return &Entry{
		JournalID:     j.ID,
		LedgerID:      j.LedgerID,
		Status:        shared.JournalStatusRejected,
		FailureReason: reason,
		SubmittedBy:   j.SubmittedBy,
		CorrelationID: j.CorrelationID,
		SubmittedAt:   j.SubmittedAt,
		ProcessedAt:   &now,
	}
}
