// Package infoseries keeps monthly credit-limit and budget series in a
// run-length compacted form: a record exists only for months whose value differs
// from the value carried forward from the previous record (or zero before the first).
package infoseries

import (
	"context"
	"slices"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// Value is a series value with numeric equality. The zero value of V is the
// implicit default before the first record.
type Value[V any] interface {
	Equal(V) bool
}

// Entry is one month of a logical (expanded) series
type Entry[V any] struct {
	Period accounting.YearMonth `json:"period"`
	Value  V                    `json:"value"`
}

// Record is one persisted month of a compacted series
type Record[V any] struct {
	Period accounting.YearMonth
	Value  V
	Audit  accounting.AuditInfo
}

// Store persists the compacted series of one account kind
type Store[V any] interface {
	// List returns the account's records in ascending period order.
	List(ctx context.Context, key accounting.AccountKey) ([]Record[V], error)
	Create(ctx context.Context, key accounting.AccountKey, record Record[V]) error
	Update(ctx context.Context, key accounting.AccountKey, record Record[V]) error
	Delete(ctx context.Context, key accounting.AccountKey, period accounting.YearMonth) error
}

// Dimension manages the shared (year, month) rows
type Dimension interface {
	// Acquire returns the id of the period's row, creating it on first reference.
	Acquire(ctx context.Context, period accounting.YearMonth) (int64, error)
	// Release removes the period's row once no credit or budget record points at it.
	Release(ctx context.Context, period accounting.YearMonth) (bool, error)
}

func sortRecords[V any](records []Record[V]) []Record[V] {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b Record[V]) int {
		return a.Period.Compare(b.Period)
	})
	return sorted
}

// ValueAt returns the carried-forward value for period: the value of the latest
// record at or before period, or the zero value when none exists.
func ValueAt[V any](records []Record[V], period accounting.YearMonth) V {
	var value V
	for _, r := range sortRecords(records) {
		if r.Period.After(period) {
			break
		}
		value = r.Value
	}
	return value
}

// Expand decodes records into one entry per month in [from, to].
func Expand[V any](records []Record[V], from, to accounting.YearMonth) []Entry[V] {
	if to.Before(from) {
		return nil
	}
	sorted := sortRecords(records)
	entries := make([]Entry[V], 0, from.MonthsUntil(to)+1)

	var current V
	i := 0
	for period := from; !period.After(to); period = period.Next() {
		for i < len(sorted) && !sorted[i].Period.After(period) {
			current = sorted[i].Value
			i++
		}
		entries = append(entries, Entry[V]{Period: period, Value: current})
	}
	return entries
}

// Compact encodes a logical series into its minimal run-length form.
func Compact[V Value[V]](series []Entry[V]) []Entry[V] {
	var compacted []Entry[V]
	var previous V
	for _, e := range series {
		if e.Value.Equal(previous) {
			continue
		}
		compacted = append(compacted, e)
		previous = e.Value
	}
	return compacted
}

func validateSeries[V any](series []Entry[V]) error {
	for i, e := range series {
		if _, err := accounting.NewYearMonth(e.Period.Year, e.Period.Month); err != nil {
			return err
		}
		if i > 0 && !series[i-1].Period.Before(e.Period) {
			return accounting.ValidationError{
				Field:  "series",
				Reason: "periods must be strictly ascending, got " + series[i-1].Period.String() + " then " + e.Period.String(),
			}
		}
	}
	return nil
}
