package infoseries

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/accounting-ledger/internal/domain/accounting"
)

type amount struct{ decimal.Decimal }

func (a amount) Equal(other amount) bool { return a.Decimal.Equal(other.Decimal) }

func amt(v int64) amount { return amount{decimal.NewFromInt(v)} }

func ym(year int, month time.Month) accounting.YearMonth {
	return accounting.YearMonth{Year: year, Month: month}
}

// memoryStore keeps records per account and counts writes
type memoryStore struct {
	records map[accounting.AccountKey][]Record[amount]
	writes  int
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[accounting.AccountKey][]Record[amount])}
}

func (s *memoryStore) seed(key accounting.AccountKey, entries ...Entry[amount]) {
	for _, e := range entries {
		s.records[key] = append(s.records[key], Record[amount]{Period: e.Period, Value: e.Value})
	}
}

func (s *memoryStore) List(_ context.Context, key accounting.AccountKey) ([]Record[amount], error) {
	return sortRecords(s.records[key]), nil
}

func (s *memoryStore) Create(_ context.Context, key accounting.AccountKey, record Record[amount]) error {
	if s.failOn == "create" {
		return errors.New("insert failed")
	}
	s.writes++
	s.records[key] = append(s.records[key], record)
	return nil
}

func (s *memoryStore) Update(_ context.Context, key accounting.AccountKey, record Record[amount]) error {
	s.writes++
	for i, r := range s.records[key] {
		if r.Period == record.Period {
			s.records[key][i] = record
		}
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key accounting.AccountKey, period accounting.YearMonth) error {
	s.writes++
	kept := s.records[key][:0]
	for _, r := range s.records[key] {
		if r.Period != period {
			kept = append(kept, r)
		}
	}
	s.records[key] = kept
	return nil
}

func (s *memoryStore) entries(key accounting.AccountKey) []Entry[amount] {
	var out []Entry[amount]
	for _, r := range sortRecords(s.records[key]) {
		out = append(out, Entry[amount]{Period: r.Period, Value: r.Value})
	}
	return out
}

type MockDimension struct {
	mock.Mock
}

func (m *MockDimension) Acquire(ctx context.Context, period accounting.YearMonth) (int64, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDimension) Release(ctx context.Context, period accounting.YearMonth) (bool, error) {
	args := m.Called(ctx, period)
	return args.Bool(0), args.Error(1)
}

func assertEntries(t *testing.T, expected, actual []Entry[amount], msgAndArgs ...interface{}) {
	t.Helper()
	require.Len(t, actual, len(expected), msgAndArgs...)
	for i := range expected {
		assert.Equal(t, expected[i].Period, actual[i].Period, msgAndArgs...)
		assert.True(t, expected[i].Value.Equal(actual[i].Value), msgAndArgs...)
	}
}

// assertCompacted checks the stored records are the minimal encoding of the
// series they expand to: no leading default and no adjacent repeats.
func assertCompacted(t *testing.T, store *memoryStore, msgAndArgs ...interface{}) {
	t.Helper()
	stored := store.entries(testKey)
	if len(stored) == 0 {
		return
	}
	records := sortRecords(store.records[testKey])
	expanded := Expand(records, stored[0].Period, stored[len(stored)-1].Period)
	assertEntries(t, stored, Compact(expanded), msgAndArgs...)
}

var testKey = accounting.AccountKey{LedgerID: 1, Number: 4711}

func newTestCompactor(store Store[amount], dims Dimension) *Compactor[amount] {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC) }
	return NewCompactor[amount](store, dims, logger, clock)
}

func TestSynchronize_CreatesOnlyChanges(t *testing.T) {
	store := newMemoryStore()
	dims := new(MockDimension)
	dims.On("Acquire", mock.Anything, ym(2023, time.January)).Return(int64(1), nil).Once()
	dims.On("Acquire", mock.Anything, ym(2023, time.March)).Return(int64(3), nil).Once()

	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(100)},
		{Period: ym(2023, time.February), Value: amt(100)},
		{Period: ym(2023, time.March), Value: amt(150)},
	}, "alice")

	require.NoError(t, err)
	assert.Equal(t, Changes{Created: 2}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(100)},
		{Period: ym(2023, time.March), Value: amt(150)},
	}, store.entries(testKey))
	assert.Equal(t, "alice", store.records[testKey][0].Audit.CreatedBy)
	dims.AssertExpectations(t)
	assertCompacted(t, store)
}

func TestSynchronize_DeletesRecordEqualToDefault(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.January), Value: amt(100)},
		Entry[amount]{Period: ym(2023, time.February), Value: amt(100)},
	)
	dims := new(MockDimension)
	dims.On("Release", mock.Anything, ym(2023, time.January)).Return(true, nil).Once()

	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(0)},
	}, "alice")

	require.NoError(t, err)
	assert.Equal(t, Changes{Deleted: 1}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.February), Value: amt(100)},
	}, store.entries(testKey))
	dims.AssertExpectations(t)
	assertCompacted(t, store)
}

func TestSynchronize_UpdatesChangedRecord(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.January), Value: amt(100)},
		Entry[amount]{Period: ym(2023, time.April), Value: amt(300)},
	)
	dims := new(MockDimension)

	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.April), Value: amt(250)},
	}, "bob")

	require.NoError(t, err)
	assert.Equal(t, Changes{Updated: 1}, changes)
	updated := store.records[testKey][1]
	assert.True(t, updated.Value.Equal(amt(250)))
	require.NotNil(t, updated.Audit.ModifiedAt)
	assert.Equal(t, "bob", updated.Audit.ModifiedBy)
	dims.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
	assertCompacted(t, store)
}

func TestSynchronize_GapRecordsCarryForward(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey, Entry[amount]{Period: ym(2023, time.February), Value: amt(500)})
	dims := new(MockDimension)

	// March equals the persisted February value, so nothing is stored for it
	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.March), Value: amt(500)},
	}, "alice")

	require.NoError(t, err)
	assert.Zero(t, changes.Writes())
	assert.Len(t, store.entries(testKey), 1)
	assertCompacted(t, store)
}

func TestSynchronize_IsIdempotent(t *testing.T) {
	store := newMemoryStore()
	dims := new(MockDimension)
	dims.On("Acquire", mock.Anything, mock.Anything).Return(int64(1), nil)
	desired := []Entry[amount]{
		{Period: ym(2022, time.November), Value: amt(10)},
		{Period: ym(2022, time.December), Value: amt(20)},
		{Period: ym(2023, time.January), Value: amt(20)},
	}
	compactor := newTestCompactor(store, dims)

	_, err := compactor.Synchronize(context.Background(), testKey, desired, "alice")
	require.NoError(t, err)
	writes := store.writes

	changes, err := compactor.Synchronize(context.Background(), testKey, desired, "alice")
	require.NoError(t, err)
	assert.Zero(t, changes.Writes())
	assert.Equal(t, writes, store.writes)
	assertCompacted(t, store)
}

func TestSynchronize_RoundTripsLogicalSeries(t *testing.T) {
	series := [][]int64{
		{0, 0, 0},
		{5, 5, 5, 5},
		{1, 2, 3, 4},
		{0, 7, 0, 7, 7, 0},
		{100, 100, 150, 150, 0, 0, 150},
	}
	from := ym(2022, time.October)

	for _, values := range series {
		store := newMemoryStore()
		dims := new(MockDimension)
		dims.On("Acquire", mock.Anything, mock.Anything).Return(int64(1), nil)
		dims.On("Release", mock.Anything, mock.Anything).Return(false, nil)

		var desired []Entry[amount]
		period := from
		for _, v := range values {
			desired = append(desired, Entry[amount]{Period: period, Value: amt(v)})
			period = period.Next()
		}
		to := desired[len(desired)-1].Period

		_, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, desired, "alice")
		require.NoError(t, err)

		records, err := store.List(context.Background(), testKey)
		require.NoError(t, err)
		assertEntries(t, desired, Expand(records, from, to), "series %v", values)
		assertEntries(t, Compact(desired), store.entries(testKey), "series %v", values)
		assertCompacted(t, store, "series %v", values)

		for i, r := range records {
			if i == 0 {
				assert.False(t, r.Value.Equal(amount{}), "first record equals default in %v", values)
				continue
			}
			assert.False(t, r.Value.Equal(records[i-1].Value), "adjacent duplicates in %v", values)
		}
	}
}

func TestSynchronize_DropsUndesiredRecordRepeatingNewValue(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.January), Value: amt(100)},
		Entry[amount]{Period: ym(2023, time.February), Value: amt(50)},
	)
	dims := new(MockDimension)
	dims.On("Release", mock.Anything, ym(2023, time.February)).Return(true, nil).Once()

	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(50)},
	}, "alice")

	require.NoError(t, err)
	assert.Equal(t, Changes{Updated: 1, Deleted: 1}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(50)},
	}, store.entries(testKey))
	assertCompacted(t, store)
	dims.AssertExpectations(t)
}

func TestSynchronize_LaterRecordJudgedAfterNextDesiredMonth(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.January), Value: amt(100)},
		Entry[amount]{Period: ym(2023, time.March), Value: amt(50)},
	)
	dims := new(MockDimension)
	dims.On("Acquire", mock.Anything, ym(2023, time.February)).Return(int64(2), nil).Once()

	// March repeats the new January value but February sits between them
	changes, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(50)},
		{Period: ym(2023, time.February), Value: amt(70)},
	}, "alice")

	require.NoError(t, err)
	assert.Equal(t, Changes{Created: 1, Updated: 1}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(50)},
		{Period: ym(2023, time.February), Value: amt(70)},
		{Period: ym(2023, time.March), Value: amt(50)},
	}, store.entries(testKey))
	assertCompacted(t, store)
	dims.AssertExpectations(t)
}

func TestSynchronize_SparseSeriesStayCompacted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	from := ym(2022, time.January)

	for round := 0; round < 200; round++ {
		store := newMemoryStore()
		dims := new(MockDimension)
		dims.On("Acquire", mock.Anything, mock.Anything).Return(int64(1), nil)
		dims.On("Release", mock.Anything, mock.Anything).Return(false, nil)

		var logical []Entry[amount]
		var desired []Entry[amount]
		period := from
		for m := 0; m < 12; m++ {
			logical = append(logical, Entry[amount]{Period: period, Value: amt(int64(rng.Intn(3)))})
			if rng.Intn(3) == 0 {
				desired = append(desired, Entry[amount]{Period: period, Value: amt(int64(rng.Intn(3)))})
			}
			period = period.Next()
		}
		store.seed(testKey, Compact(logical)...)
		before := Expand(sortRecords(store.records[testKey]), from, period)

		_, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, desired, "alice")
		require.NoError(t, err)

		assertCompacted(t, store, "round %d", round)
		after := Expand(sortRecords(store.records[testKey]), from, period)
		for _, want := range desired {
			assert.True(t, ValueAt(store.records[testKey], want.Period).Equal(want.Value), "round %d: %s", round, want.Period)
		}
		// months before the first desired entry are untouched
		for m := range before {
			if len(desired) > 0 && before[m].Period.Before(desired[0].Period) {
				assert.True(t, before[m].Value.Equal(after[m].Value), "round %d: %s", round, before[m].Period)
			}
		}
	}
}

func TestSynchronize_RejectsUnorderedSeries(t *testing.T) {
	store := newMemoryStore()
	dims := new(MockDimension)

	_, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.March), Value: amt(1)},
		{Period: ym(2023, time.March), Value: amt(2)},
	}, "alice")

	assert.ErrorIs(t, err, accounting.ValidationError{})
	assert.Zero(t, store.writes)
}

func TestSynchronize_PropagatesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "create"
	dims := new(MockDimension)
	dims.On("Acquire", mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := newTestCompactor(store, dims).Synchronize(context.Background(), testKey, []Entry[amount]{
		{Period: ym(2023, time.March), Value: amt(1)},
	}, "alice")

	assert.ErrorContains(t, err, "insert failed")
}

func TestValueAt(t *testing.T) {
	records := []Record[amount]{
		{Period: ym(2023, time.March), Value: amt(150)},
		{Period: ym(2023, time.January), Value: amt(100)},
	}

	assert.True(t, ValueAt(records, ym(2022, time.December)).Equal(amount{}))
	assert.True(t, ValueAt(records, ym(2023, time.February)).Equal(amt(100)))
	assert.True(t, ValueAt(records, ym(2023, time.March)).Equal(amt(150)))
	assert.True(t, ValueAt(records, ym(2024, time.July)).Equal(amt(150)))
}

func TestExpand_EmptyRange(t *testing.T) {
	assert.Nil(t, Expand[amount](nil, ym(2023, time.May), ym(2023, time.April)))
}

func TestRemove_DropsMonthAndRedundantSuccessor(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.January), Value: amt(100)},
		Entry[amount]{Period: ym(2023, time.August), Value: amt(150)},
		Entry[amount]{Period: ym(2023, time.October), Value: amt(100)},
	)
	dims := new(MockDimension)
	dims.On("Release", mock.Anything, ym(2023, time.August)).Return(true, nil).Once()
	dims.On("Release", mock.Anything, ym(2023, time.October)).Return(false, nil).Once()

	changes, err := newTestCompactor(store, dims).Remove(context.Background(), testKey, ym(2023, time.August))
	require.NoError(t, err)

	assert.Equal(t, Changes{Deleted: 2}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.January), Value: amt(100)},
	}, store.entries(testKey))
	dims.AssertExpectations(t)
}

func TestRemove_KeepsDistinctSuccessor(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey,
		Entry[amount]{Period: ym(2023, time.August), Value: amt(150)},
		Entry[amount]{Period: ym(2023, time.October), Value: amt(100)},
	)
	dims := new(MockDimension)
	dims.On("Release", mock.Anything, ym(2023, time.August)).Return(true, nil).Once()

	changes, err := newTestCompactor(store, dims).Remove(context.Background(), testKey, ym(2023, time.August))
	require.NoError(t, err)

	assert.Equal(t, Changes{Deleted: 1}, changes)
	assertEntries(t, []Entry[amount]{
		{Period: ym(2023, time.October), Value: amt(100)},
	}, store.entries(testKey))
}

func TestRemove_AbsentMonthIsNoop(t *testing.T) {
	store := newMemoryStore()
	store.seed(testKey, Entry[amount]{Period: ym(2023, time.August), Value: amt(150)})
	dims := new(MockDimension)

	changes, err := newTestCompactor(store, dims).Remove(context.Background(), testKey, ym(2023, time.September))
	require.NoError(t, err)

	assert.Zero(t, changes.Writes())
	assert.Zero(t, store.writes)
	dims.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

