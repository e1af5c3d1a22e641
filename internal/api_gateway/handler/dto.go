package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
	"github.com/accounting-ledger/internal/infoseries"
)

// LedgerResponse represents a materialized ledger in API responses
type LedgerResponse struct {
	ID                  int64                 `json:"id"`
	Name                string                `json:"name"`
	BalancePolicy       string                `json:"balance_policy"`
	BackDatingLimitDays int                   `json:"back_dating_limit_days"`
	StatusDate          string                `json:"status_date"`
	Deletable           bool                  `json:"deletable"`
	RegularAccounts     []AccountResponse     `json:"regular_accounts"`
	BudgetAccounts      []AccountResponse     `json:"budget_accounts"`
	ContactAccounts     []AccountResponse     `json:"contact_accounts"`
	PostingLines        []PostingLineResponse `json:"posting_lines"`
	Audit               accounting.AuditInfo  `json:"audit"`
}

// AccountResponse represents an account of any kind in API responses
type AccountResponse struct {
	Number       int64                `json:"number"`
	Kind         string               `json:"kind"`
	GroupID      *int64               `json:"group_id,omitempty"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Note         string               `json:"note,omitempty"`
	Balance      string               `json:"balance"`
	Deletable    bool                 `json:"deletable"`
	PostingLines []string             `json:"posting_lines"`
	CreditInfos  []CreditInfoResponse `json:"credit_infos,omitempty"`
	BudgetInfos  []BudgetInfoResponse `json:"budget_infos,omitempty"`
	Audit        accounting.AuditInfo `json:"audit"`
}

// PostingLineResponse represents a posting line in API responses
type PostingLineResponse struct {
	ID                   string `json:"id"`
	Date                 string `json:"date"`
	SortOrder            int    `json:"sort_order"`
	Reference            string `json:"reference,omitempty"`
	AccountNumber        int64  `json:"account_number"`
	BudgetAccountNumber  *int64 `json:"budget_account_number,omitempty"`
	ContactAccountNumber *int64 `json:"contact_account_number,omitempty"`
	Debit                string `json:"debit"`
	Credit               string `json:"credit"`
	AccountValue         string `json:"account_value"`
	BudgetValue          string `json:"budget_value,omitempty"`
	ContactValue         string `json:"contact_value,omitempty"`
}

// CreditInfoResponse represents one credit limit snapshot
type CreditInfoResponse struct {
	Period      string `json:"period"`
	CreditLimit string `json:"credit_limit"`
	Deletable   bool   `json:"deletable"`
}

// BudgetInfoResponse represents one budget snapshot
type BudgetInfoResponse struct {
	Period    string `json:"period"`
	Income    string `json:"income"`
	Expense   string `json:"expense"`
	Deletable bool   `json:"deletable"`
}

// CreditSeriesEntry is one month of a credit limit series in requests and responses
type CreditSeriesEntry struct {
	Period      string          `json:"period" binding:"required"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// BudgetSeriesEntry is one month of a budget series in requests and responses
type BudgetSeriesEntry struct {
	Period  string          `json:"period" binding:"required"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// SynchronizeCreditInfoRequest replaces the listed months of a credit series
type SynchronizeCreditInfoRequest struct {
	Entries []CreditSeriesEntry `json:"entries" binding:"required,dive"`
}

// SynchronizeBudgetInfoRequest replaces the listed months of a budget series
type SynchronizeBudgetInfoRequest struct {
	Entries []BudgetSeriesEntry `json:"entries" binding:"required,dive"`
}

// SeriesRangeParams bounds an expansion query
type SeriesRangeParams struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// ChangesResponse reports the writes a series operation issued
type ChangesResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// SubmitJournalRequest represents a posting journal submission
type SubmitJournalRequest struct {
	ID    string               `json:"id,omitempty" binding:"omitempty,uuid"`
	Lines []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// JournalLineRequest is one proposed posting line
type JournalLineRequest struct {
	Date                 string          `json:"date" binding:"required"`
	Reference            string          `json:"reference"`
	AccountNumber        int64           `json:"account_number" binding:"required,gt=0"`
	BudgetAccountNumber  *int64          `json:"budget_account_number,omitempty"`
	ContactAccountNumber *int64          `json:"contact_account_number,omitempty"`
	Debit                decimal.Decimal `json:"debit"`
	Credit               decimal.Decimal `json:"credit"`
}

// JournalResponse represents an archived journal outcome in API responses
type JournalResponse struct {
	JournalID     string            `json:"journal_id"`
	LedgerID      int64             `json:"ledger_id"`
	Status        string            `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	SubmittedBy   string            `json:"submitted_by,omitempty"`
	Lines         []journal.Line    `json:"lines,omitempty"`
	Warnings      []journal.Warning `json:"warnings,omitempty"`
	SubmittedAt   string            `json:"submitted_at"`
	ProcessedAt   string            `json:"processed_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapLedgerToResponse(l *accounting.Ledger) LedgerResponse {
	response := LedgerResponse{
		ID:                  l.ID,
		Name:                l.Name,
		BalancePolicy:       string(l.BalancePolicy),
		BackDatingLimitDays: l.BackDatingLimitDays,
		StatusDate:          l.StatusDate.Format(time.DateOnly),
		Deletable:           l.Deletable,
		RegularAccounts:     []AccountResponse{},
		BudgetAccounts:      []AccountResponse{},
		ContactAccounts:     []AccountResponse{},
		PostingLines:        []PostingLineResponse{},
		Audit:               l.Audit,
	}

	for _, a := range l.RegularAccounts {
		resp := mapAccountToResponse(a)
		for _, info := range a.CreditInfos {
			resp.CreditInfos = append(resp.CreditInfos, CreditInfoResponse{
				Period:      info.Period.String(),
				CreditLimit: info.CreditLimit.String(),
				Deletable:   info.Deletable,
			})
		}
		response.RegularAccounts = append(response.RegularAccounts, resp)
	}
	for _, a := range l.BudgetAccounts {
		resp := mapAccountToResponse(a)
		for _, info := range a.BudgetInfos {
			resp.BudgetInfos = append(resp.BudgetInfos, BudgetInfoResponse{
				Period:    info.Period.String(),
				Income:    info.Budget.Income.String(),
				Expense:   info.Budget.Expense.String(),
				Deletable: info.Deletable,
			})
		}
		response.BudgetAccounts = append(response.BudgetAccounts, resp)
	}
	for _, a := range l.ContactAccounts {
		response.ContactAccounts = append(response.ContactAccounts, mapAccountToResponse(a))
	}
	for _, line := range l.PostingLines {
		response.PostingLines = append(response.PostingLines, mapPostingLineToResponse(line))
	}
	return response
}

// mapAccountToResponse sums debit minus credit over the account's lines as its
// balance. Captured line values are kept out of it since a back-dated line never
// updates the values of lines after it.
func mapAccountToResponse(a accounting.Account) AccountResponse {
	base := a.Base()
	response := AccountResponse{
		Number:       base.Number,
		Kind:         a.Kind().Label(),
		GroupID:      base.GroupID,
		Name:         base.Name,
		Description:  base.Description,
		Note:         base.Note,
		Deletable:    base.Deletable,
		PostingLines: []string{},
		Audit:        base.Audit,
	}
	balance := decimal.Zero
	for _, line := range base.PostingLines {
		response.PostingLines = append(response.PostingLines, line.ID.String())
		balance = balance.Add(line.Debit).Sub(line.Credit)
	}
	response.Balance = balance.String()
	return response
}

func mapPostingLineToResponse(line *accounting.PostingLine) PostingLineResponse {
	response := PostingLineResponse{
		ID:           line.ID.String(),
		Date:         line.Date.Format(time.DateOnly),
		SortOrder:    line.SortOrder,
		Reference:    line.Reference,
		Debit:        line.Debit.String(),
		Credit:       line.Credit.String(),
		AccountValue: line.AccountValue.String(),
	}
	if line.Account != nil {
		response.AccountNumber = line.Account.Number
	}
	if line.BudgetAccount != nil {
		number := line.BudgetAccount.Number
		response.BudgetAccountNumber = &number
	}
	if line.ContactAccount != nil {
		number := line.ContactAccount.Number
		response.ContactAccountNumber = &number
	}
	if line.BudgetValue.Valid {
		response.BudgetValue = line.BudgetValue.Decimal.String()
	}
	if line.ContactValue.Valid {
		response.ContactValue = line.ContactValue.Decimal.String()
	}
	return response
}

func mapChangesToResponse(c infoseries.Changes) ChangesResponse {
	return ChangesResponse{Created: c.Created, Updated: c.Updated, Deleted: c.Deleted}
}

func mapJournalToResponse(entry *journal.Entry) JournalResponse {
	response := JournalResponse{
		JournalID:     entry.JournalID.String(),
		LedgerID:      entry.LedgerID,
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		SubmittedBy:   entry.SubmittedBy,
		Lines:         entry.Lines,
		Warnings:      entry.Warnings,
		SubmittedAt:   entry.SubmittedAt.Format(time.RFC3339),
	}
	if entry.ProcessedAt != nil {
		response.ProcessedAt = entry.ProcessedAt.Format(time.RFC3339)
	}
	return response
}
