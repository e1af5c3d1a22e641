package components

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accounting-ledger/internal/domain/accounting"
)

var writerNow = time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func int64Ptr(v int64) *int64 { return &v }

func testLedger(policy accounting.BalancePolicy) *accounting.Ledger {
	ledger := &accounting.Ledger{ID: 1, BalancePolicy: policy, StatusDate: day(2024, 3, 10)}
	regular := &accounting.RegularAccount{AccountBase: accounting.AccountBase{Ledger: ledger, Number: 1000}}
	ledger.RegularAccounts = []*accounting.RegularAccount{regular}
	ledger.BudgetAccounts = []*accounting.BudgetAccount{{AccountBase: accounting.AccountBase{Ledger: ledger, Number: 5000}}}
	ledger.ContactAccounts = []*accounting.ContactAccount{{AccountBase: accounting.AccountBase{Ledger: ledger, Number: 9000}}}
	return ledger
}

func journalOf(lines ...accounting.ProposedPostingLine) *accounting.PostingJournal {
	return &accounting.PostingJournal{ID: uuid.New(), LedgerID: 1, SubmittedBy: "alice", Lines: lines}
}

func newTestWriter(repo accounting.PostingRepository) *PostingWriterImpl {
	return NewPostingWriter(repo, slog.Default(), func() time.Time { return writerNow }).(*PostingWriterImpl)
}

func TestPostingWriter_OffsettingLinesLeaveZero(t *testing.T) {
	repo := &memoryPostingRepo{}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(25000)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Credit: dec(25000)},
	)

	rows, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyDisallowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].AccountValue.Equal(dec(25000)))
	assert.True(t, rows[1].AccountValue.Equal(dec(0)))
	assert.Equal(t, 1, rows[0].SortOrder)
	assert.Equal(t, 2, rows[1].SortOrder)
	assert.Empty(t, warnings)
	assert.Len(t, repo.lines, 2)
}

func TestPostingWriter_NegativeBalanceWarns(t *testing.T) {
	repo := &memoryPostingRepo{}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(100)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Credit: dec(150)},
	)

	rows, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyDisallowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.True(t, rows[1].AccountValue.Equal(dec(-50)))
	require.Len(t, warnings, 1)
	assert.Equal(t, rows[1].ID, warnings[0].LineID)
	assert.Equal(t, accounting.AccountRef{Kind: accounting.AccountKindRegular, Number: 1000}, warnings[0].Account)
	assert.Equal(t, accounting.WarningBalanceBelowZero, warnings[0].Kind)
}

func TestPostingWriter_ContinuesFromPersistedValue(t *testing.T) {
	repo := &memoryPostingRepo{lines: []accounting.PostingLineRow{
		{ID: uuid.New(), LedgerID: 1, Date: day(2024, 2, 20), SortOrder: 4, AccountNumber: 1000, Debit: dec(300), AccountValue: dec(300)},
		{ID: uuid.New(), LedgerID: 1, Date: day(2024, 3, 1), SortOrder: 4, AccountNumber: 1000, Debit: dec(200), AccountValue: dec(500)},
	}}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Credit: dec(50)},
		accounting.ProposedPostingLine{Date: day(2024, 2, 25), AccountNumber: 1000, Debit: dec(10)},
	)

	rows, _, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyAllowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.Equal(t, 5, rows[0].SortOrder)
	assert.True(t, rows[0].AccountValue.Equal(dec(450)))
	// back-dated into February: continues from the 2024-02-20 line only
	assert.Equal(t, 1, rows[1].SortOrder)
	assert.True(t, rows[1].AccountValue.Equal(dec(310)))
}

func TestPostingWriter_TracksBudgetAndContactValues(t *testing.T) {
	repo := &memoryPostingRepo{}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 2), AccountNumber: 1000, BudgetAccountNumber: int64Ptr(5000), ContactAccountNumber: int64Ptr(9000), Debit: dec(40)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 3), AccountNumber: 1000, BudgetAccountNumber: int64Ptr(5000), ContactAccountNumber: int64Ptr(9000), Credit: dec(100)},
	)

	rows, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyDisallowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	require.True(t, rows[1].BudgetValue.Valid)
	assert.True(t, rows[1].BudgetValue.Decimal.Equal(dec(-60)))
	require.True(t, rows[1].ContactValue.Valid)
	assert.True(t, rows[1].ContactValue.Decimal.Equal(dec(-60)))

	// regular and contact are both negative; only the regular account is reported
	require.Len(t, warnings, 1)
	assert.Equal(t, rows[1].ID, warnings[0].LineID)
	assert.Equal(t, accounting.AccountKindRegular, warnings[0].Account.Kind)
}

func TestPostingWriter_ContactWarnsWhenRegularWithinPolicy(t *testing.T) {
	repo := &memoryPostingRepo{lines: []accounting.PostingLineRow{
		{ID: uuid.New(), LedgerID: 1, Date: day(2024, 3, 1), SortOrder: 1, AccountNumber: 1000, Debit: dec(1000), AccountValue: dec(1000)},
	}}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 2), AccountNumber: 1000, ContactAccountNumber: int64Ptr(9000), Credit: dec(100)},
	)

	rows, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyDisallowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.True(t, rows[0].AccountValue.Equal(dec(900)))
	require.Len(t, warnings, 1)
	assert.Equal(t, accounting.AccountRef{Kind: accounting.AccountKindContact, Number: 9000}, warnings[0].Account)
	assert.True(t, warnings[0].Balance.Equal(dec(-100)))
}

func TestPostingWriter_OutOfOrderLinesAccumulate(t *testing.T) {
	repo := &memoryPostingRepo{}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 5), AccountNumber: 1000, Debit: dec(100)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(50)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 6), AccountNumber: 1000, Debit: dec(0)},
	)

	rows, _, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyAllowed), j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.True(t, rows[0].AccountValue.Equal(dec(100)))
	assert.True(t, rows[1].AccountValue.Equal(dec(50)))
	assert.True(t, rows[2].AccountValue.Equal(dec(150)))
}

func TestPostingWriter_BackDatedJournalCountsTowardsLaterLines(t *testing.T) {
	repo := &memoryPostingRepo{}
	writer := newTestWriter(repo)
	ledger := testLedger(accounting.BalancePolicyDisallowed)
	ctx := context.Background()

	_, _, err := writer.WriteLines(ctx, nil, ledger, journalOf(accounting.ProposedPostingLine{Date: day(2024, 3, 5), AccountNumber: 1000, Debit: dec(100)}), accounting.PolicyWarningCalculator{})
	require.NoError(t, err)
	_, _, err = writer.WriteLines(ctx, nil, ledger, journalOf(accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(50)}), accounting.PolicyWarningCalculator{})
	require.NoError(t, err)

	rows, warnings, err := writer.WriteLines(ctx, nil, ledger, journalOf(accounting.ProposedPostingLine{Date: day(2024, 3, 8), AccountNumber: 1000, Credit: dec(120)}), accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.True(t, rows[0].AccountValue.Equal(dec(30)))
	assert.Empty(t, warnings)
}

// Every line's value is its own amount plus the amounts of the lines written
// before it that sit earlier in the ledger, whatever order the dates arrive in.
func TestPostingWriter_RunningValueWithShuffledDates(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	repo := &memoryPostingRepo{}
	writer := newTestWriter(repo)
	ledger := testLedger(accounting.BalancePolicyAllowed)

	var written []accounting.PostingLineRow
	total := decimal.Zero
	for n := 0; n < 8; n++ {
		count := 1 + rng.Intn(5)
		var lines []accounting.ProposedPostingLine
		for i := 0; i < count; i++ {
			line := accounting.ProposedPostingLine{Date: day(2024, 2, 1+rng.Intn(28)), AccountNumber: 1000}
			if amount := int64(rng.Intn(400) - 200); amount >= 0 {
				line.Debit = dec(amount)
			} else {
				line.Credit = dec(-amount)
			}
			lines = append(lines, line)
		}
		rows, _, err := writer.WriteLines(context.Background(), nil, ledger, journalOf(lines...), accounting.PolicyWarningCalculator{})
		require.NoError(t, err)
		written = append(written, rows...)
	}

	for i, row := range written {
		want := row.Debit.Sub(row.Credit)
		for _, earlier := range written[:i] {
			if earlier.Position().Before(row.Position()) {
				want = want.Add(earlier.Debit).Sub(earlier.Credit)
			}
		}
		assert.True(t, want.Equal(row.AccountValue), "line %d on %s: want %s, got %s", i, row.Date.Format(time.DateOnly), want, row.AccountValue)
		total = total.Add(row.Debit).Sub(row.Credit)
	}

	rows, _, err := writer.WriteLines(context.Background(), nil, ledger, journalOf(accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000}), accounting.PolicyWarningCalculator{})
	require.NoError(t, err)
	assert.True(t, total.Equal(rows[0].AccountValue))
}

func TestPostingWriter_CreditLimitFromInfoSeries(t *testing.T) {
	ledger := testLedger(accounting.BalancePolicyAllowedWithLimit)
	regular := ledger.RegularAccounts[0]
	regular.CreditInfos = []*accounting.CreditInfo{
		{Account: regular, Period: accounting.YearMonth{Year: 2024, Month: time.January}, CreditLimit: dec(100)},
		{Account: regular, Period: accounting.YearMonth{Year: 2024, Month: time.March}, CreditLimit: dec(200)},
	}
	repo := &memoryPostingRepo{}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 2, 10), AccountNumber: 1000, Credit: dec(150)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 5), AccountNumber: 1000, Credit: dec(30)},
	)

	_, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, ledger, j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, accounting.WarningCreditLimitExceeded, warnings[0].Kind)
	assert.True(t, warnings[0].CreditLimit.Equal(dec(100)))
	assert.True(t, warnings[0].Balance.Equal(dec(-150)))
}

func TestPostingWriter_RejectsInvalidLines(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		line    accounting.ProposedPostingLine
		wantErr error
	}{
		{
			name:    "unknown regular account",
			line:    accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1001, Debit: dec(1)},
			wantErr: accounting.ErrAccountNotFound{},
		},
		{
			name:    "unknown contact account",
			line:    accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, ContactAccountNumber: int64Ptr(1), Debit: dec(1)},
			wantErr: accounting.ErrAccountNotFound{},
		},
		{
			name:    "older than back-dating limit",
			limit:   3,
			line:    accounting.ProposedPostingLine{Date: day(2024, 3, 6), AccountNumber: 1000, Debit: dec(1)},
			wantErr: accounting.BackDatingError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := testLedger(accounting.BalancePolicyAllowed)
			ledger.BackDatingLimitDays = tt.limit
			repo := &memoryPostingRepo{}
			j := journalOf(
				accounting.ProposedPostingLine{Date: day(2024, 3, 9), AccountNumber: 1000, Debit: dec(5)},
				tt.line,
			)

			rows, warnings, err := newTestWriter(repo).WriteLines(context.Background(), nil, ledger, j, accounting.PolicyWarningCalculator{})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, rows)
			assert.Nil(t, warnings)
		})
	}
}

func TestPostingWriter_BackDatingBoundaryIsInclusive(t *testing.T) {
	ledger := testLedger(accounting.BalancePolicyAllowed)
	ledger.BackDatingLimitDays = 3
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 7), AccountNumber: 1000, Debit: dec(1)},
		accounting.ProposedPostingLine{Date: day(2024, 4, 1), AccountNumber: 1000, Debit: dec(1)},
	)

	rows, _, err := newTestWriter(&memoryPostingRepo{}).WriteLines(context.Background(), nil, ledger, j, accounting.PolicyWarningCalculator{})

	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPostingWriter_InsertFailureStopsJournal(t *testing.T) {
	repo := &memoryPostingRepo{failOn: 2}
	j := journalOf(
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(1)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(1)},
		accounting.ProposedPostingLine{Date: day(2024, 3, 1), AccountNumber: 1000, Debit: dec(1)},
	)

	rows, _, err := newTestWriter(repo).WriteLines(context.Background(), nil, testLedger(accounting.BalancePolicyAllowed), j, accounting.PolicyWarningCalculator{})

	assert.ErrorContains(t, err, "insert failed")
	assert.Nil(t, rows)
	assert.Equal(t, 2, repo.inserted)
}
