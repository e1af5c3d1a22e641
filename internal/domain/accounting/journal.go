package accounting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProposedPostingLine is a not-yet-persisted line of a journal
type ProposedPostingLine struct {
	Date                 time.Time       `json:"date"`
	Reference            string          `json:"reference"`
	AccountNumber        int64           `json:"account_number"`
	BudgetAccountNumber  *int64          `json:"budget_account_number,omitempty"`
	ContactAccountNumber *int64          `json:"contact_account_number,omitempty"`
	Debit                decimal.Decimal `json:"debit"`
	Credit               decimal.Decimal `json:"credit"`
}

// PostingJournal is an ordered batch of proposed lines applied as one unit
type PostingJournal struct {
	ID            uuid.UUID             `json:"id"`
	LedgerID      int64                 `json:"ledger_id"`
	Lines         []ProposedPostingLine `json:"lines"`
	SubmittedBy   string                `json:"submitted_by"`
	CorrelationID string                `json:"correlation_id,omitempty"`
	SubmittedAt   time.Time             `json:"submitted_at"`
}

// Validate checks the journal's shape; ledger membership and dates are checked on application.
func (j *PostingJournal) Validate() error {
	if j.LedgerID <= 0 {
		return ValidationError{Field: "ledger_id", Reason: "must be positive"}
	}
	if len(j.Lines) == 0 {
		return ValidationError{Field: "lines", Reason: "journal has no lines"}
	}
	for i, line := range j.Lines {
		if line.Date.IsZero() {
			return ValidationError{Field: fmt.Sprintf("lines[%d].date", i), Reason: "is required"}
		}
		if line.AccountNumber <= 0 {
			return ValidationError{Field: fmt.Sprintf("lines[%d].account_number", i), Reason: "must be positive"}
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ValidationError{Field: fmt.Sprintf("lines[%d]", i), Reason: "debit and credit must not be negative"}
		}
	}
	return nil
}

// PostingWarning flags a line whose resulting balance violates the ledger policy
type PostingWarning struct {
	LineID      uuid.UUID       `json:"line_id"`
	Account     AccountRef      `json:"account"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Kind        WarningKind     `json:"kind"`
}

// PostingJournalResult is the committed outcome of a journal
type PostingJournalResult struct {
	JournalID uuid.UUID        `json:"journal_id"`
	LedgerID  int64            `json:"ledger_id"`
	Lines     []PostingLineRow `json:"lines"`
	Warnings  []PostingWarning `json:"warnings"`
	AppliedAt time.Time        `json:"applied_at"`
}
