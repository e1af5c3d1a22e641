package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetAmount is the monthly income and expense pair of a budget account
type BudgetAmount struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Equal compares both halves numerically
func (b BudgetAmount) Equal(other BudgetAmount) bool {
	return b.Income.Equal(other.Income) && b.Expense.Equal(other.Expense)
}

// CreditInfo is the credit limit of a regular account from Period onwards
type CreditInfo struct {
	Account     *RegularAccount
	Period      YearMonth
	CreditLimit decimal.Decimal
	Audit       AuditInfo
	Deletable   bool
}

// BudgetInfo is the budget of a budget account from Period onwards
type BudgetInfo struct {
	Account   *BudgetAccount
	Period    YearMonth
	Budget    BudgetAmount
	Audit     AuditInfo
	Deletable bool
}

// SnapshotDeletable reports whether a snapshot may be removed by a user:
// only months strictly after the current month are mutable history.
func SnapshotDeletable(period YearMonth, today time.Time) bool {
	return period.After(YearMonthOf(today))
}
