package accounting

import (
	"fmt"
	"time"
)

// AccountKey identifies an account inside its ledger
type AccountKey struct {
	LedgerID int64 `json:"ledger_id"`
	Number   int64 `json:"account_number"`
}

func (k AccountKey) String() string {
	return fmt.Sprintf("%d/%d", k.LedgerID, k.Number)
}

// Account is implemented by RegularAccount, BudgetAccount and ContactAccount
type Account interface {
	Kind() AccountKind
	Base() *AccountBase
	// PostingWindowStart is the earliest posting date attached to the account.
	PostingWindowStart() time.Time
}

// AccountBase holds what every account kind shares. Ledger is a non-owning back-reference.
type AccountBase struct {
	Ledger       *Ledger
	Number       int64
	GroupID      *int64
	Name         string
	Description  string
	Note         string
	Audit        AuditInfo
	StatusDate   time.Time
	Deletable    bool
	PostingLines []*PostingLine
}

func (a *AccountBase) Base() *AccountBase {
	return a
}

// Key returns the (ledger, number) identity
func (a *AccountBase) Key() AccountKey {
	if a.Ledger == nil {
		return AccountKey{Number: a.Number}
	}
	return AccountKey{LedgerID: a.Ledger.ID, Number: a.Number}
}

// RegularAccount carries a real balance and a monthly credit-limit series
type RegularAccount struct {
	AccountBase
	CreditInfos []*CreditInfo
}

func (a *RegularAccount) Kind() AccountKind { return AccountKindRegular }

func (a *RegularAccount) PostingWindowStart() time.Time {
	return PostingWindowStart(AccountKindRegular, a.StatusDate)
}

// BudgetAccount carries a monthly income/expense budget series
type BudgetAccount struct {
	AccountBase
	BudgetInfos []*BudgetInfo
}

func (a *BudgetAccount) Kind() AccountKind { return AccountKindBudget }

func (a *BudgetAccount) PostingWindowStart() time.Time {
	return PostingWindowStart(AccountKindBudget, a.StatusDate)
}

// ContactAccount carries a counterparty balance
type ContactAccount struct {
	AccountBase
}

func (a *ContactAccount) Kind() AccountKind { return AccountKindContact }

func (a *ContactAccount) PostingWindowStart() time.Time {
	return PostingWindowStart(AccountKindContact, a.StatusDate)
}

// PostingWindowStart returns the first date whose postings are attached to an account of
// the given kind. Budget accounts only keep January 1 of the prior year onwards.
func PostingWindowStart(kind AccountKind, statusDate time.Time) time.Time {
	if kind == AccountKindBudget {
		return time.Date(statusDate.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// InPostingWindow reports whether date falls in [PostingWindowStart, StatusDate]
func InPostingWindow(a Account, date time.Time) bool {
	day := DateOf(date)
	if day.Before(a.PostingWindowStart()) {
		return false
	}
	return !day.After(DateOf(a.Base().StatusDate))
}
