package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingPosition orders posting lines by date, then intra-date sort order
type PostingPosition struct {
	Date      time.Time `json:"date"`
	SortOrder int       `json:"sort_order"`
}

// Before reports whether p sorts strictly before other
func (p PostingPosition) Before(other PostingPosition) bool {
	pd, od := DateOf(p.Date), DateOf(other.Date)
	if !pd.Equal(od) {
		return pd.Before(od)
	}
	return p.SortOrder < other.SortOrder
}

// PostingLine is one immutable ledger entry. The *Value fields are the running
// balances of the involved accounts captured when the line was created.
type PostingLine struct {
	ID             uuid.UUID
	SortOrder      int
	Ledger         *Ledger
	Date           time.Time
	Reference      string
	Account        *RegularAccount
	BudgetAccount  *BudgetAccount
	ContactAccount *ContactAccount
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	AccountValue   decimal.Decimal
	BudgetValue    decimal.NullDecimal
	ContactValue   decimal.NullDecimal
	Audit          AuditInfo
}

// Position returns the ordering key of the line
func (l *PostingLine) Position() PostingPosition {
	return PostingPosition{Date: l.Date, SortOrder: l.SortOrder}
}

// Amount returns debit minus credit
func (l *PostingLine) Amount() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// Amend always fails: posting lines cannot change after creation.
func (l *PostingLine) Amend() error {
	return UnsupportedOperationError{Operation: "amend posting line " + l.ID.String()}
}
