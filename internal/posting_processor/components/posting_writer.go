package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/infoseries"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

// PostingWriterImpl implements the PostingWriter interface
type PostingWriterImpl struct {
	postingRepo accounting.PostingRepository
	logger      *slog.Logger
	clock       func() time.Time
}

func NewPostingWriter(postingRepo accounting.PostingRepository, logger *slog.Logger, clock func() time.Time) service.PostingWriter {
	if clock == nil {
		clock = time.Now
	}
	return &PostingWriterImpl{
		postingRepo: postingRepo,
		logger:      logger,
		clock:       clock,
	}
}

// WriteLines inserts the journal's lines in order. Each line's value is the sum of
// debit minus credit over the account's lines positioned before it, plus its own
// amount. A line carries at most one warning and budget accounts are never warned about.
func (w *PostingWriterImpl) WriteLines(ctx context.Context, tx pgx.Tx, ledger *accounting.Ledger, j *accounting.PostingJournal, calc accounting.WarningCalculator) ([]accounting.PostingLineRow, []accounting.PostingWarning, error) {
	repo := w.postingRepo.WithTx(tx)
	now := w.clock()
	today := accounting.DateOf(now)
	sequence := newSortSequence(repo, ledger.ID)
	balances := newBalanceTracker(repo, ledger.ID)

	rows := make([]accounting.PostingLineRow, 0, len(j.Lines))
	var warnings []accounting.PostingWarning
	for i, proposed := range j.Lines {
		regular, err := w.checkLine(ledger, proposed, today)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i, err)
		}

		date := accounting.DateOf(proposed.Date)
		sortOrder, err := sequence.next(ctx, date)
		if err != nil {
			return nil, nil, err
		}
		row := accounting.PostingLineRow{
			ID:                   uuid.New(),
			SortOrder:            sortOrder,
			LedgerID:             ledger.ID,
			Date:                 date,
			Reference:            proposed.Reference,
			AccountNumber:        proposed.AccountNumber,
			BudgetAccountNumber:  proposed.BudgetAccountNumber,
			ContactAccountNumber: proposed.ContactAccountNumber,
			Debit:                proposed.Debit,
			Credit:               proposed.Credit,
			Audit:                accounting.NewAuditInfo(j.SubmittedBy, now),
		}
		amount := proposed.Debit.Sub(proposed.Credit)
		pos := row.Position()

		row.AccountValue, err = balances.apply(ctx, accounting.AccountRef{Kind: accounting.AccountKindRegular, Number: row.AccountNumber}, pos, amount)
		if err != nil {
			return nil, nil, err
		}
		if row.BudgetAccountNumber != nil {
			value, err := balances.apply(ctx, accounting.AccountRef{Kind: accounting.AccountKindBudget, Number: *row.BudgetAccountNumber}, pos, amount)
			if err != nil {
				return nil, nil, err
			}
			row.BudgetValue = decimal.NewNullDecimal(value)
		}
		if row.ContactAccountNumber != nil {
			value, err := balances.apply(ctx, accounting.AccountRef{Kind: accounting.AccountKindContact, Number: *row.ContactAccountNumber}, pos, amount)
			if err != nil {
				return nil, nil, err
			}
			row.ContactValue = decimal.NewNullDecimal(value)
		}

		if err := repo.InsertPostingLine(ctx, &row); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i, err)
		}

		if warning, ok := lineWarning(calc, ledger.BalancePolicy, regular, row); ok {
			warnings = append(warnings, warning)
		}
		rows = append(rows, row)
	}

	w.logger.Debug("Posting lines written", "journal_id", j.ID.String(), "lines", len(rows), "warnings", len(warnings))
	return rows, warnings, nil
}

// checkLine verifies ledger membership of every referenced account and the
// back-dating limit, returning the line's regular account.
func (w *PostingWriterImpl) checkLine(ledger *accounting.Ledger, line accounting.ProposedPostingLine, today time.Time) (*accounting.RegularAccount, error) {
	account, ok := ledger.Account(accounting.AccountKindRegular, line.AccountNumber)
	if !ok {
		return nil, accounting.ErrAccountNotFound{Kind: accounting.AccountKindRegular, Key: accounting.AccountKey{LedgerID: ledger.ID, Number: line.AccountNumber}}
	}
	if line.BudgetAccountNumber != nil {
		if _, ok := ledger.Account(accounting.AccountKindBudget, *line.BudgetAccountNumber); !ok {
			return nil, accounting.ErrAccountNotFound{Kind: accounting.AccountKindBudget, Key: accounting.AccountKey{LedgerID: ledger.ID, Number: *line.BudgetAccountNumber}}
		}
	}
	if line.ContactAccountNumber != nil {
		if _, ok := ledger.Account(accounting.AccountKindContact, *line.ContactAccountNumber); !ok {
			return nil, accounting.ErrAccountNotFound{Kind: accounting.AccountKindContact, Key: accounting.AccountKey{LedgerID: ledger.ID, Number: *line.ContactAccountNumber}}
		}
	}
	if !ledger.AllowsPostingDate(line.Date, today) {
		return nil, accounting.BackDatingError{Date: line.Date, LimitDays: ledger.BackDatingLimitDays}
	}
	return account.(*accounting.RegularAccount), nil
}

// lineWarning judges the regular account first. The contact account, which has
// no credit limit, is only reported when the regular account is within policy.
func lineWarning(calc accounting.WarningCalculator, policy accounting.BalancePolicy, regular *accounting.RegularAccount, row accounting.PostingLineRow) (accounting.PostingWarning, bool) {
	limit := creditLimitAt(regular, accounting.YearMonthOf(row.Date))
	if kind, warn := calc.Calculate(policy, limit, row.AccountValue); warn {
		return accounting.PostingWarning{
			LineID:      row.ID,
			Account:     accounting.AccountRef{Kind: accounting.AccountKindRegular, Number: row.AccountNumber},
			Balance:     row.AccountValue,
			CreditLimit: limit,
			Kind:        kind,
		}, true
	}
	if !row.ContactValue.Valid {
		return accounting.PostingWarning{}, false
	}
	if kind, warn := calc.Calculate(policy, decimal.Zero, row.ContactValue.Decimal); warn {
		return accounting.PostingWarning{
			LineID:      row.ID,
			Account:     accounting.AccountRef{Kind: accounting.AccountKindContact, Number: *row.ContactAccountNumber},
			Balance:     row.ContactValue.Decimal,
			CreditLimit: decimal.Zero,
			Kind:        kind,
		}, true
	}
	return accounting.PostingWarning{}, false
}

func creditLimitAt(account *accounting.RegularAccount, period accounting.YearMonth) decimal.Decimal {
	records := make([]infoseries.Record[decimal.Decimal], 0, len(account.CreditInfos))
	for _, info := range account.CreditInfos {
		records = append(records, infoseries.Record[decimal.Decimal]{Period: info.Period, Value: info.CreditLimit})
	}
	return infoseries.ValueAt(records, period)
}
