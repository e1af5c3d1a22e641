// Package accounting holds the ledger domain: ledgers, the three account kinds,
// immutable posting lines, monthly info snapshots and posting journals.
package accounting

import (
	"strings"
	"time"
)

// AccountKind distinguishes the three participants of a posting line
type AccountKind string

const (
	AccountKindRegular AccountKind = "REGULAR"
	AccountKindBudget  AccountKind = "BUDGET"
	AccountKindContact AccountKind = "CONTACT"
)

// AccountKinds lists every kind in materialization order
var AccountKinds = []AccountKind{AccountKindRegular, AccountKindBudget, AccountKindContact}

// IsValid checks if the kind is one of the known account kinds
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindRegular, AccountKindBudget, AccountKindContact:
		return true
	}
	return false
}

// Label returns the lower-case form used in URLs and messages
func (k AccountKind) Label() string {
	return strings.ToLower(string(k))
}

// RequiresGroup reports whether rows of this kind are unusable without their account group.
func (k AccountKind) RequiresGroup() bool {
	return k == AccountKindRegular || k == AccountKindBudget
}

// BalancePolicy governs whether balances may drop below zero
type BalancePolicy string

const (
	BalancePolicyDisallowed       BalancePolicy = "DISALLOWED"
	BalancePolicyAllowed          BalancePolicy = "ALLOWED"
	BalancePolicyAllowedWithLimit BalancePolicy = "ALLOWED_WITH_LIMIT"
)

// IsValid checks if the policy is a valid BalancePolicy
func (p BalancePolicy) IsValid() bool {
	return p == BalancePolicyDisallowed || p == BalancePolicyAllowed || p == BalancePolicyAllowedWithLimit
}

// AuditInfo carries creation and modification stamps
type AuditInfo struct {
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	ModifiedBy string     `json:"modified_by,omitempty"`
}

// NewAuditInfo stamps a fresh entity
func NewAuditInfo(by string, at time.Time) AuditInfo {
	return AuditInfo{CreatedAt: at, CreatedBy: by}
}

// Touch records a modification
func (a *AuditInfo) Touch(by string, at time.Time) {
	a.ModifiedAt = &at
	a.ModifiedBy = by
}

// DateOf truncates t to its calendar date in UTC, keeping the date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
