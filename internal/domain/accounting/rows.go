package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The *Row types mirror persisted records as fetched by the storage layer. They are
// flat and acyclic; the graph builder turns them into linked entities.

// LedgerRow is a persisted ledger record
type LedgerRow struct {
	ID                  int64
	Name                string
	LetterheadID        *int64
	BalancePolicy       BalancePolicy
	BackDatingLimitDays int
	Audit               AuditInfo
}

// AccountGroupRow is the group an account is filed under
type AccountGroupRow struct {
	ID   int64
	Name string
}

// BasicAccountRow holds the descriptive columns shared by all account kinds
type BasicAccountRow struct {
	Name        string
	Description string
	Note        string
	Audit       AuditInfo
}

// AccountRow is a kind-specific account record with its joined basic and group rows.
// Basic and Group are nil when the join found nothing.
type AccountRow struct {
	LedgerID int64
	Number   int64
	Kind     AccountKind
	GroupID  *int64
	Basic    *BasicAccountRow
	Group    *AccountGroupRow
}

// Key returns the (ledger, number) identity
func (r AccountRow) Key() AccountKey {
	return AccountKey{LedgerID: r.LedgerID, Number: r.Number}
}

// PostingLineRow is a persisted posting line
type PostingLineRow struct {
	ID                   uuid.UUID           `json:"id"`
	SortOrder            int                 `json:"sort_order"`
	LedgerID             int64               `json:"ledger_id"`
	Date                 time.Time           `json:"date"`
	Reference            string              `json:"reference"`
	AccountNumber        int64               `json:"account_number"`
	BudgetAccountNumber  *int64              `json:"budget_account_number,omitempty"`
	ContactAccountNumber *int64              `json:"contact_account_number,omitempty"`
	Debit                decimal.Decimal     `json:"debit"`
	Credit               decimal.Decimal     `json:"credit"`
	AccountValue         decimal.Decimal     `json:"account_value"`
	BudgetValue          decimal.NullDecimal `json:"budget_value"`
	ContactValue         decimal.NullDecimal `json:"contact_value"`
	Audit                AuditInfo           `json:"audit"`
}

// Position returns the ordering key of the row
func (r PostingLineRow) Position() PostingPosition {
	return PostingPosition{Date: r.Date, SortOrder: r.SortOrder}
}

// CreditInfoRow is a persisted credit-limit snapshot
type CreditInfoRow struct {
	LedgerID      int64
	AccountNumber int64
	Period        YearMonth
	CreditLimit   decimal.Decimal
	Audit         AuditInfo
}

// BudgetInfoRow is a persisted budget snapshot
type BudgetInfoRow struct {
	LedgerID      int64
	AccountNumber int64
	Period        YearMonth
	Budget        BudgetAmount
	Audit         AuditInfo
}

// AccountRef names an account of a known kind inside a ledger
type AccountRef struct {
	Kind   AccountKind `json:"kind"`
	Number int64       `json:"number"`
}
