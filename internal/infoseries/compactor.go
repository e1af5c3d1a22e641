package infoseries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// Changes counts the writes a synchronization issued
type Changes struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Writes is the total number of store writes
func (c Changes) Writes() int {
	return c.Created + c.Updated + c.Deleted
}

// Compactor reconciles a desired series with the persisted compacted records
type Compactor[V Value[V]] struct {
	store  Store[V]
	dims   Dimension
	logger *slog.Logger
	clock  func() time.Time
}

// NewCompactor creates a compactor over the given store and year-month dimension
func NewCompactor[V Value[V]](store Store[V], dims Dimension, logger *slog.Logger, clock func() time.Time) *Compactor[V] {
	if clock == nil {
		clock = time.Now
	}
	return &Compactor[V]{
		store:  store,
		dims:   dims,
		logger: logger,
		clock:  clock,
	}
}

// Synchronize makes the account's records match desired while keeping them minimal.
// desired lists explicit months in ascending order; months between entries keep
// whatever is persisted. Each desired month is compared with the value carried
// forward from the nearest persisted record before it:
//
//   - equal to the carried value: the month's record is redundant and removed
//   - equal to the month's existing record: nothing is written
//   - otherwise the record is updated, or created when absent
//
// A persisted month that is not desired but now repeats the carried value is removed.
//
// Synchronize issues no writes when nothing changed. It must run inside the
// caller's transaction so the result is all-or-nothing.
func (c *Compactor[V]) Synchronize(ctx context.Context, key accounting.AccountKey, desired []Entry[V], by string) (Changes, error) {
	var changes Changes
	if err := validateSeries(desired); err != nil {
		return changes, err
	}

	existing, err := c.store.List(ctx, key)
	if err != nil {
		return changes, fmt.Errorf("failed to list info records: %w", err)
	}
	existing = sortRecords(existing)

	now := c.clock()
	var carried V
	i := 0
	for d, want := range desired {
		for i < len(existing) && existing[i].Period.Before(want.Period) {
			carried = existing[i].Value
			i++
		}

		if i < len(existing) && existing[i].Period == want.Period {
			record := existing[i]
			i++

			switch {
			case want.Value.Equal(carried):
				if err := c.delete(ctx, key, record.Period); err != nil {
					return changes, err
				}
				changes.Deleted++
			case record.Value.Equal(want.Value):
				carried = record.Value
			default:
				record.Value = want.Value
				record.Audit.Touch(by, now)
				if err := c.store.Update(ctx, key, record); err != nil {
					return changes, fmt.Errorf("failed to update info record %s: %w", record.Period, err)
				}
				changes.Updated++
				carried = want.Value
			}
		} else if !want.Value.Equal(carried) {
			if _, err := c.dims.Acquire(ctx, want.Period); err != nil {
				return changes, fmt.Errorf("failed to acquire year month %s: %w", want.Period, err)
			}
			record := Record[V]{Period: want.Period, Value: want.Value, Audit: accounting.NewAuditInfo(by, now)}
			if err := c.store.Create(ctx, key, record); err != nil {
				return changes, fmt.Errorf("failed to create info record %s: %w", want.Period, err)
			}
			changes.Created++
			carried = want.Value
		}

		// persisted months after want that are not desired themselves now follow
		// the new carried value and go once they repeat it
		for i < len(existing) && beforeNextDesired(desired, d, existing[i].Period) && existing[i].Value.Equal(carried) {
			if err := c.delete(ctx, key, existing[i].Period); err != nil {
				return changes, err
			}
			changes.Deleted++
			i++
		}
	}

	if changes.Writes() > 0 {
		c.logger.Info("Info series synchronized",
			"account", key.String(),
			"created", changes.Created,
			"updated", changes.Updated,
			"deleted", changes.Deleted)
	}
	return changes, nil
}

// Remove deletes the account's record for period and releases the year month
// when it is no longer referenced. If the following record then repeats the
// carried value it is redundant and removed too. Removing an absent month is a no-op.
func (c *Compactor[V]) Remove(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) (Changes, error) {
	var changes Changes
	existing, err := c.store.List(ctx, key)
	if err != nil {
		return changes, fmt.Errorf("failed to list info records: %w", err)
	}

	var carried V
	var next *Record[V]
	found := false
	sorted := sortRecords(existing)
	for i := 0; i < len(sorted) && next == nil; i++ {
		switch r := sorted[i]; {
		case r.Period.Before(period):
			carried = r.Value
		case r.Period == period:
			found = true
		default:
			next = &sorted[i]
		}
	}
	if !found {
		return changes, nil
	}

	if err := c.delete(ctx, key, period); err != nil {
		return changes, err
	}
	changes.Deleted++

	if next != nil && next.Value.Equal(carried) {
		if err := c.delete(ctx, key, next.Period); err != nil {
			return changes, err
		}
		changes.Deleted++
	}
	return changes, nil
}

func beforeNextDesired[V any](desired []Entry[V], d int, period accounting.YearMonth) bool {
	return d+1 == len(desired) || period.Before(desired[d+1].Period)
}

func (c *Compactor[V]) delete(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) error {
	if err := c.store.Delete(ctx, key, period); err != nil {
		return fmt.Errorf("failed to delete info record %s: %w", period, err)
	}
	released, err := c.dims.Release(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to release year month %s: %w", period, err)
	}
	if released {
		c.logger.Debug("Year month released", "period", period.String())
	}
	return nil
}
