package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/accounting-ledger/internal/config"
	"github.com/accounting-ledger/internal/domain/outbox"
)

// Poller drains pending outbox messages into the journal archive
type Poller struct {
	outboxRepo       outbox.Repository
	archivePublisher ArchivePublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	archivePublisher ArchivePublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		archivePublisher: archivePublisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start drains once right away, then on every tick until ctx is cancelled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if err := p.drain(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("Failed to drain outbox", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// drain archives one batch. A full batch is followed by another right away so a
// backlog does not wait for the next tick.
func (p *Poller) drain(ctx context.Context) error {
	for {
		messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending outbox messages: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}
		p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

		archived := 0
		for _, msg := range messages {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.archive(ctx, msg) {
				archived++
			}
		}

		// Stop when nothing moved so a failing archive is retried on the next tick
		if len(messages) < p.batchSize || archived == 0 {
			return nil
		}
	}
}

func (p *Poller) archive(ctx context.Context, msg *outbox.Message) bool {
	logger := p.logger.With("outbox_id", msg.ID, "journal_id", msg.JournalID, "ledger_id", msg.LedgerID)

	err := p.archivePublisher.PublishToArchive(ctx, msg)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrUndecodablePayload) {
		return false
	}

	attempt, recErr := p.outboxRepo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts)
	if recErr != nil {
		logger.Error("Failed to record outbox attempt", "publish_error", err, "error", recErr)
		return false
	}
	if attempt.GaveUp {
		logger.Warn("Giving up on outbox message", "attempts", attempt.Count, "error", err)
	} else {
		logger.Warn("Failed to archive outbox message, will retry", "attempts", attempt.Count, "error", err)
	}
	return false
}
