package components

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// balanceTracker derives running values for the lines of one journal. Lines are
// inserted in the journal's transaction before the next one is valued, so the
// store sum already holds this journal's earlier lines.
type balanceTracker struct {
	repo     accounting.PostingRepository
	ledgerID int64
}

func newBalanceTracker(repo accounting.PostingRepository, ledgerID int64) *balanceTracker {
	return &balanceTracker{repo: repo, ledgerID: ledgerID}
}

// apply returns the account's value after adding amount at pos
func (b *balanceTracker) apply(ctx context.Context, ref accounting.AccountRef, pos accounting.PostingPosition, amount decimal.Decimal) (decimal.Decimal, error) {
	key := accounting.AccountKey{LedgerID: b.ledgerID, Number: ref.Number}
	previous, err := b.repo.BalanceBefore(ctx, ref.Kind, key, pos)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s account %s balance: %w", ref.Kind.Label(), key, err)
	}
	return previous.Add(amount), nil
}

// sortSequence hands out intra-date sort orders after the persisted maximum
type sortSequence struct {
	repo     accounting.PostingRepository
	ledgerID int64
	last     map[string]int
}

func newSortSequence(repo accounting.PostingRepository, ledgerID int64) *sortSequence {
	return &sortSequence{
		repo:     repo,
		ledgerID: ledgerID,
		last:     make(map[string]int),
	}
}

func (s *sortSequence) next(ctx context.Context, date time.Time) (int, error) {
	day := date.Format(time.DateOnly)
	last, ok := s.last[day]
	if !ok {
		var err error
		last, err = s.repo.MaxSortOrder(ctx, s.ledgerID, date)
		if err != nil {
			return 0, fmt.Errorf("failed to read sort order for %s: %w", day, err)
		}
	}
	s.last[day] = last + 1
	return last + 1, nil
}
