package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// LedgerPool applies journals on a bounded ants pool. Journals of different
// ledgers run concurrently; journals of the same ledger run one at a time.
type LedgerPool struct {
	next   ProcessingService
	pool   *ants.Pool
	logger *slog.Logger

	mu       sync.Mutex
	lanes    map[int64]*lane
	inFlight int
}

type lane struct {
	sync.Mutex
	refs int
}

// antsLogger routes the pool's own diagnostics through slog
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func NewLedgerPool(next ProcessingService, size int, logger *slog.Logger) (*LedgerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be positive, got %d", size)
	}
	pool, err := ants.NewPool(size, ants.WithLogger(antsLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &LedgerPool{
		next:   next,
		pool:   pool,
		logger: logger,
		lanes:  make(map[int64]*lane),
	}, nil
}

// ProcessJournal runs the journal on the pool and waits for its outcome or for ctx.
// A worker that panics is reported as an error instead of hanging the caller.
func (p *LedgerPool) ProcessJournal(ctx context.Context, j *accounting.PostingJournal) error {
	l := p.acquire(j.LedgerID)
	done := make(chan error, 1)

	task := func() {
		err := p.run(ctx, l, j)
		p.release(j.LedgerID)
		done <- err
	}

	if err := p.pool.Submit(task); err != nil {
		p.release(j.LedgerID)
		p.logger.Error("Failed to submit journal to worker pool",
			"journal_id", j.ID.String(),
			"ledger_id", j.LedgerID,
			"error", err,
		)
		return fmt.Errorf("failed to submit journal %s: %w", j.ID, err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run applies j while holding its ledger's lane
func (p *LedgerPool) run(ctx context.Context, l *lane, j *accounting.PostingJournal) (err error) {
	l.Lock()
	defer l.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("journal %s panicked: %v", j.ID, r)
		}
	}()
	return p.next.ProcessJournal(ctx, j)
}

func (p *LedgerPool) acquire(ledgerID int64) *lane {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lanes[ledgerID]
	if !ok {
		l = &lane{}
		p.lanes[ledgerID] = l
	}
	l.refs++
	p.inFlight++
	return l
}

func (p *LedgerPool) release(ledgerID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.lanes[ledgerID]
	l.refs--
	if l.refs == 0 {
		delete(p.lanes, ledgerID)
	}
	p.inFlight--
}

// InFlight counts journals submitted but not yet finished
func (p *LedgerPool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func (p *LedgerPool) Capacity() int {
	return p.pool.Cap()
}

// Shutdown waits up to timeout for running journals, then releases the pool
func (p *LedgerPool) Shutdown(timeout time.Duration) {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running(), "in_flight", p.InFlight())
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("Worker pool did not drain before timeout", "error", err)
	}
}
