package accounting

import "github.com/shopspring/decimal"

// WarningKind classifies a posting warning
type WarningKind string

const (
	WarningBalanceBelowZero    WarningKind = "BALANCE_BELOW_ZERO"
	WarningCreditLimitExceeded WarningKind = "CREDIT_LIMIT_EXCEEDED"
)

// WarningCalculator decides whether a resulting balance deserves a warning.
// Implementations must be pure.
type WarningCalculator interface {
	Calculate(policy BalancePolicy, creditLimit, balance decimal.Decimal) (WarningKind, bool)
}

// PolicyWarningCalculator applies the ledger's balance-below-zero policy
type PolicyWarningCalculator struct{}

// Calculate warns below zero for Disallowed, below -creditLimit for AllowedWithLimit
// and never for Allowed.
func (PolicyWarningCalculator) Calculate(policy BalancePolicy, creditLimit, balance decimal.Decimal) (WarningKind, bool) {
	switch policy {
	case BalancePolicyDisallowed:
		if balance.IsNegative() {
			return WarningBalanceBelowZero, true
		}
	case BalancePolicyAllowedWithLimit:
		if balance.LessThan(creditLimit.Neg()) {
			return WarningCreditLimitExceeded, true
		}
	}
	return "", false
}
