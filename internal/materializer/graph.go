package materializer

import (
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// graph is the state of one build. The row indexes are read-only once classify
// returns; only the cache is written concurrently.
type graph struct {
	cache  *IdentityCache
	ledger *accounting.Ledger
	today  time.Time

	accounts   map[accounting.AccountKind]map[int64]accounting.AccountRow
	numbers    map[accounting.AccountKind][]int64
	order      []accounting.PostingLineRow
	lines      map[accounting.AccountRef][]accounting.PostingLineRow
	credits    map[int64][]accounting.CreditInfoRow
	budgets    map[int64][]accounting.BudgetInfoRow
	referenced map[accounting.AccountRef]bool
}

func (g *graph) optionalRef(kind accounting.AccountKind, number *int64) (accounting.AccountRef, bool) {
	if number == nil {
		return accounting.AccountRef{}, false
	}
	if _, ok := g.accounts[kind][*number]; !ok {
		return accounting.AccountRef{}, false
	}
	return accounting.AccountRef{Kind: kind, Number: *number}, true
}

// materialize runs one goroutine per account kind over the shared cache
func (g *graph) materialize(ctx context.Context) (*accounting.Ledger, error) {
	ledger, _ := register(g.cache, EntityLedger, g.ledger.ID, g.ledger)

	var (
		regular []*accounting.RegularAccount
		budget  []*accounting.BudgetAccount
		contact []*accounting.ContactAccount
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for _, n := range g.numbers[accounting.AccountKindRegular] {
			if err := ctx.Err(); err != nil {
				return err
			}
			regular = append(regular, g.regularAccount(n))
		}
		return nil
	})
	eg.Go(func() error {
		for _, n := range g.numbers[accounting.AccountKindBudget] {
			if err := ctx.Err(); err != nil {
				return err
			}
			budget = append(budget, g.budgetAccount(n))
		}
		return nil
	})
	eg.Go(func() error {
		for _, n := range g.numbers[accounting.AccountKindContact] {
			if err := ctx.Err(); err != nil {
				return err
			}
			contact = append(contact, g.contactAccount(n))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ledger.RegularAccounts = regular
	ledger.BudgetAccounts = budget
	ledger.ContactAccounts = contact
	for _, row := range g.order {
		ledger.PostingLines = append(ledger.PostingLines, g.postingLine(row))
	}
	return ledger, nil
}

func (g *graph) base(row accounting.AccountRow) accounting.AccountBase {
	return accounting.AccountBase{
		Ledger:      g.ledger,
		Number:      row.Number,
		GroupID:     row.GroupID,
		Name:        row.Basic.Name,
		Description: row.Basic.Description,
		Note:        row.Basic.Note,
		Audit:       row.Basic.Audit,
		StatusDate:  g.ledger.StatusDate,
		Deletable:   !g.referenced[accounting.AccountRef{Kind: row.Kind, Number: row.Number}],
	}
}

func (g *graph) key(number int64) accounting.AccountKey {
	return accounting.AccountKey{LedgerID: g.ledger.ID, Number: number}
}

// regularAccount returns nil for numbers without a usable row. The instance is
// registered before its lines are attached so cycles resolve to it.
func (g *graph) regularAccount(number int64) *accounting.RegularAccount {
	key := g.key(number)
	if account, ok := lookup[*accounting.RegularAccount](g.cache, EntityRegularAccount, key); ok {
		return account
	}
	row, ok := g.accounts[accounting.AccountKindRegular][number]
	if !ok {
		return nil
	}
	account, registered := register(g.cache, EntityRegularAccount, key, &accounting.RegularAccount{AccountBase: g.base(row)})
	if !registered {
		return account
	}

	for _, info := range g.credits[number] {
		account.CreditInfos = append(account.CreditInfos, &accounting.CreditInfo{
			Account:     account,
			Period:      info.Period,
			CreditLimit: info.CreditLimit,
			Audit:       info.Audit,
			Deletable:   accounting.SnapshotDeletable(info.Period, g.today),
		})
	}
	sortInfos(account.CreditInfos, func(i *accounting.CreditInfo) accounting.YearMonth { return i.Period })
	account.PostingLines = g.attachLines(account, accounting.AccountKindRegular, number)
	return account
}

func (g *graph) budgetAccount(number int64) *accounting.BudgetAccount {
	key := g.key(number)
	if account, ok := lookup[*accounting.BudgetAccount](g.cache, EntityBudgetAccount, key); ok {
		return account
	}
	row, ok := g.accounts[accounting.AccountKindBudget][number]
	if !ok {
		return nil
	}
	account, registered := register(g.cache, EntityBudgetAccount, key, &accounting.BudgetAccount{AccountBase: g.base(row)})
	if !registered {
		return account
	}

	for _, info := range g.budgets[number] {
		account.BudgetInfos = append(account.BudgetInfos, &accounting.BudgetInfo{
			Account:   account,
			Period:    info.Period,
			Budget:    info.Budget,
			Audit:     info.Audit,
			Deletable: accounting.SnapshotDeletable(info.Period, g.today),
		})
	}
	sortInfos(account.BudgetInfos, func(i *accounting.BudgetInfo) accounting.YearMonth { return i.Period })
	account.PostingLines = g.attachLines(account, accounting.AccountKindBudget, number)
	return account
}

func (g *graph) contactAccount(number int64) *accounting.ContactAccount {
	key := g.key(number)
	if account, ok := lookup[*accounting.ContactAccount](g.cache, EntityContactAccount, key); ok {
		return account
	}
	row, ok := g.accounts[accounting.AccountKindContact][number]
	if !ok {
		return nil
	}
	account, registered := register(g.cache, EntityContactAccount, key, &accounting.ContactAccount{AccountBase: g.base(row)})
	if !registered {
		return account
	}
	account.PostingLines = g.attachLines(account, accounting.AccountKindContact, number)
	return account
}

func (g *graph) attachLines(account accounting.Account, kind accounting.AccountKind, number int64) []*accounting.PostingLine {
	var lines []*accounting.PostingLine
	for _, row := range g.lines[accounting.AccountRef{Kind: kind, Number: number}] {
		if accounting.InPostingWindow(account, row.Date) {
			lines = append(lines, g.postingLine(row))
		}
	}
	return lines
}

// postingLine links the line to its accounts after registering it. References to
// accounts without a usable row stay nil.
func (g *graph) postingLine(row accounting.PostingLineRow) *accounting.PostingLine {
	if line, ok := lookup[*accounting.PostingLine](g.cache, EntityPostingLine, row.ID); ok {
		return line
	}
	line, registered := register(g.cache, EntityPostingLine, row.ID, &accounting.PostingLine{
		ID:           row.ID,
		SortOrder:    row.SortOrder,
		Ledger:       g.ledger,
		Date:         row.Date,
		Reference:    row.Reference,
		Debit:        row.Debit,
		Credit:       row.Credit,
		AccountValue: row.AccountValue,
		BudgetValue:  row.BudgetValue,
		ContactValue: row.ContactValue,
		Audit:        row.Audit,
	})
	if !registered {
		return line
	}

	line.Account = g.regularAccount(row.AccountNumber)
	if row.BudgetAccountNumber != nil {
		line.BudgetAccount = g.budgetAccount(*row.BudgetAccountNumber)
	}
	if row.ContactAccountNumber != nil {
		line.ContactAccount = g.contactAccount(*row.ContactAccountNumber)
	}
	return line
}

func sortInfos[T any](infos []T, period func(T) accounting.YearMonth) {
	slices.SortFunc(infos, func(a, b T) int {
		return period(a).Compare(period(b))
	})
}
