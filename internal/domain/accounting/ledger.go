package accounting

import (
	"time"
)

// Ledger is a numbered book grouping accounts and postings. Its collections are
// populated by the graph builder for one status date.
type Ledger struct {
	ID                  int64
	Name                string
	LetterheadID        *int64
	BalancePolicy       BalancePolicy
	BackDatingLimitDays int // 0 means unlimited
	Audit               AuditInfo
	StatusDate          time.Time
	Deletable           bool

	RegularAccounts []*RegularAccount
	BudgetAccounts  []*BudgetAccount
	ContactAccounts []*ContactAccount
	PostingLines    []*PostingLine
}

// NewLedgerFromRow creates an unpopulated ledger
func NewLedgerFromRow(row *LedgerRow, statusDate time.Time) *Ledger {
	return &Ledger{
		ID:                  row.ID,
		Name:                row.Name,
		LetterheadID:        row.LetterheadID,
		BalancePolicy:       row.BalancePolicy,
		BackDatingLimitDays: row.BackDatingLimitDays,
		Audit:               row.Audit,
		StatusDate:          statusDate,
	}
}

// Account returns the materialized account of the given kind and number
func (l *Ledger) Account(kind AccountKind, number int64) (Account, bool) {
	switch kind {
	case AccountKindRegular:
		for _, a := range l.RegularAccounts {
			if a.Number == number {
				return a, true
			}
		}
	case AccountKindBudget:
		for _, a := range l.BudgetAccounts {
			if a.Number == number {
				return a, true
			}
		}
	case AccountKindContact:
		for _, a := range l.ContactAccounts {
			if a.Number == number {
				return a, true
			}
		}
	}
	return nil, false
}

// AllowsPostingDate applies the back-dating limit: a posting may not be older
// than BackDatingLimitDays days relative to today.
func (l *Ledger) AllowsPostingDate(date, today time.Time) bool {
	if l.BackDatingLimitDays <= 0 {
		return true
	}
	return DaysBetween(date, today) <= l.BackDatingLimitDays
}
