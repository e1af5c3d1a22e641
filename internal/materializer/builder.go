// Package materializer turns the flat rows of one ledger into a linked object graph
// as of a status date. Every entity is materialized exactly once per build.
package materializer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// Builder materializes ledger graphs from a GraphSource
type Builder struct {
	source accounting.GraphSource
	logger *slog.Logger
	clock  func() time.Time
}

func NewBuilder(source accounting.GraphSource, logger *slog.Logger, clock func() time.Time) *Builder {
	if clock == nil {
		clock = time.Now
	}
	return &Builder{
		source: source,
		logger: logger,
		clock:  clock,
	}
}

type fetchedRows struct {
	accounts   map[accounting.AccountKind][]accounting.AccountRow
	lines      []accounting.PostingLineRow
	credits    []accounting.CreditInfoRow
	budgets    []accounting.BudgetInfoRow
	referenced []accounting.AccountRef
}

// BuildLedger returns the ledger with its accounts, posting lines and info snapshots
// as of statusDate (today when zero). Rows that cannot be converted are left out of
// the graph and logged; only a missing ledger is an error.
func (b *Builder) BuildLedger(ctx context.Context, ledgerID int64, statusDate time.Time) (*accounting.Ledger, error) {
	if ledgerID <= 0 {
		return nil, accounting.ValidationError{Field: "ledger_id", Reason: "must be positive"}
	}
	today := accounting.DateOf(b.clock())
	if statusDate.IsZero() {
		statusDate = today
	}
	statusDate = accounting.DateOf(statusDate)

	row, err := b.source.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	rows, err := b.fetch(ctx, ledgerID, statusDate)
	if err != nil {
		return nil, err
	}

	g := b.classify(accounting.NewLedgerFromRow(row, statusDate), rows, today)
	ledger, err := g.materialize(ctx)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("Ledger graph built",
		"ledger_id", ledgerID,
		"status_date", statusDate.Format(time.DateOnly),
		"regular_accounts", len(ledger.RegularAccounts),
		"budget_accounts", len(ledger.BudgetAccounts),
		"contact_accounts", len(ledger.ContactAccounts),
		"posting_lines", len(ledger.PostingLines),
		"instances", g.cache.Len())
	return ledger, nil
}

func (b *Builder) fetch(ctx context.Context, ledgerID int64, statusDate time.Time) (*fetchedRows, error) {
	accounts := make([][]accounting.AccountRow, len(accounting.AccountKinds))
	rows := &fetchedRows{accounts: make(map[accounting.AccountKind][]accounting.AccountRow)}
	until := accounting.YearMonthOf(statusDate)

	eg, ctx := errgroup.WithContext(ctx)
	for i, kind := range accounting.AccountKinds {
		i, kind := i, kind
		eg.Go(func() error {
			list, err := b.source.ListAccountRows(ctx, ledgerID, kind)
			if err != nil {
				return fmt.Errorf("failed to list %s accounts: %w", kind.Label(), err)
			}
			accounts[i] = list
			return nil
		})
	}
	eg.Go(func() error {
		list, err := b.source.ListPostingLineRows(ctx, ledgerID, statusDate)
		if err != nil {
			return fmt.Errorf("failed to list posting lines: %w", err)
		}
		rows.lines = list
		return nil
	})
	eg.Go(func() error {
		list, err := b.source.ListCreditInfoRows(ctx, ledgerID, until)
		if err != nil {
			return fmt.Errorf("failed to list credit infos: %w", err)
		}
		rows.credits = list
		return nil
	})
	eg.Go(func() error {
		list, err := b.source.ListBudgetInfoRows(ctx, ledgerID, until)
		if err != nil {
			return fmt.Errorf("failed to list budget infos: %w", err)
		}
		rows.budgets = list
		return nil
	})
	eg.Go(func() error {
		list, err := b.source.ListReferencedAccounts(ctx, ledgerID)
		if err != nil {
			return fmt.Errorf("failed to list referenced accounts: %w", err)
		}
		rows.referenced = list
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, kind := range accounting.AccountKinds {
		rows.accounts[kind] = accounts[i]
	}
	return rows, nil
}

// classify evaluates every row once and indexes the usable ones
func (b *Builder) classify(ledger *accounting.Ledger, rows *fetchedRows, today time.Time) *graph {
	g := &graph{
		cache:      NewIdentityCache(),
		ledger:     ledger,
		today:      today,
		accounts:   make(map[accounting.AccountKind]map[int64]accounting.AccountRow),
		numbers:    make(map[accounting.AccountKind][]int64),
		lines:      make(map[accounting.AccountRef][]accounting.PostingLineRow),
		credits:    make(map[int64][]accounting.CreditInfoRow),
		budgets:    make(map[int64][]accounting.BudgetInfoRow),
		referenced: make(map[accounting.AccountRef]bool, len(rows.referenced)),
	}

	total := 0
	for _, kind := range accounting.AccountKinds {
		g.accounts[kind] = make(map[int64]accounting.AccountRow)
		for _, row := range rows.accounts[kind] {
			total++
			row.Kind = kind
			if v := classifyAccountRow(ledger.ID, row); !v.Usable() {
				b.logExcluded(ledger.ID, v)
				continue
			}
			if _, dup := g.accounts[kind][row.Number]; dup {
				continue
			}
			g.accounts[kind][row.Number] = row
			g.numbers[kind] = append(g.numbers[kind], row.Number)
		}
		slices.Sort(g.numbers[kind])
	}

	for _, ref := range rows.referenced {
		g.referenced[ref] = true
	}
	ledger.Deletable = total == 0 && len(rows.referenced) == 0

	regularUsable := func(number int64) bool {
		_, ok := g.accounts[accounting.AccountKindRegular][number]
		return ok
	}
	sorted := slices.Clone(rows.lines)
	slices.SortStableFunc(sorted, func(a, b accounting.PostingLineRow) int {
		switch {
		case a.Position().Before(b.Position()):
			return -1
		case b.Position().Before(a.Position()):
			return 1
		}
		return 0
	})
	for _, row := range sorted {
		if v := classifyPostingLineRow(ledger.ID, row, regularUsable); !v.Usable() {
			b.logExcluded(ledger.ID, v)
			continue
		}
		g.order = append(g.order, row)
		g.lines[accounting.AccountRef{Kind: accounting.AccountKindRegular, Number: row.AccountNumber}] =
			append(g.lines[accounting.AccountRef{Kind: accounting.AccountKindRegular, Number: row.AccountNumber}], row)
		if ref, ok := g.optionalRef(accounting.AccountKindBudget, row.BudgetAccountNumber); ok {
			g.lines[ref] = append(g.lines[ref], row)
		}
		if ref, ok := g.optionalRef(accounting.AccountKindContact, row.ContactAccountNumber); ok {
			g.lines[ref] = append(g.lines[ref], row)
		}
	}

	for _, row := range rows.credits {
		if row.LedgerID == ledger.ID {
			g.credits[row.AccountNumber] = append(g.credits[row.AccountNumber], row)
		}
	}
	for _, row := range rows.budgets {
		if row.LedgerID == ledger.ID {
			g.budgets[row.AccountNumber] = append(g.budgets[row.AccountNumber], row)
		}
	}
	return g
}

func (b *Builder) logExcluded(ledgerID int64, v verdict) {
	b.logger.Warn("Row excluded from ledger graph",
		"ledger_id", ledgerID,
		"entity", v.excluded.Entity,
		"id", v.excluded.ID,
		"reason", v.excluded.Reason)
}
