package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/shared"
)

// PostingEngine applies posting journals atomically
type PostingEngine struct {
	db              TxBeginner
	validator       JournalValidator
	resolver        LedgerResolver
	writer          PostingWriter
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	calculator      accounting.WarningCalculator
	logger          *slog.Logger
	clock           func() time.Time
}

func NewPostingEngine(
	db TxBeginner,
	validator JournalValidator,
	resolver LedgerResolver,
	writer PostingWriter,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	calculator accounting.WarningCalculator,
	logger *slog.Logger,
	clock func() time.Time,
) *PostingEngine {
	if clock == nil {
		clock = time.Now
	}
	return &PostingEngine{
		db:              db,
		validator:       validator,
		resolver:        resolver,
		writer:          writer,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		calculator:      calculator,
		logger:          logger,
		clock:           clock,
	}
}

// ApplyPostingJournal validates and persists every line of the journal in one
// database transaction and returns the created lines with their warnings.
// On any failure nothing is committed and a JournalError wrapping the cause is returned.
func (e *PostingEngine) ApplyPostingJournal(ctx context.Context, j *accounting.PostingJournal, calc accounting.WarningCalculator) (result *accounting.PostingJournalResult, err error) {
	logger := e.logger
	if j.CorrelationID != "" {
		logger = e.logger.With("correlation_id", j.CorrelationID)
	}
	journalErr := func(cause error) error {
		return accounting.JournalError{JournalID: j.ID.String(), LedgerID: j.LedgerID, Cause: cause}
	}
	if calc == nil {
		calc = e.calculator
	}

	if err := e.validator.Validate(ctx, j); err != nil {
		return nil, journalErr(err)
	}

	ledger, err := e.resolver.BuildLedger(ctx, j.LedgerID, e.statusDate(j))
	if err != nil {
		return nil, journalErr(err)
	}

	var tx pgx.Tx
	tx, err = e.db.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "journal_id", j.ID.String(), "error", err)
		return nil, journalErr(fmt.Errorf("failed to begin DB transaction: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back journal", "panic", p, "journal_id", j.ID.String())
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error("Failed to rollback journal after error", "rollback_error", rbErr, "original_error", err, "journal_id", j.ID.String())
			}
		}
	}()

	lines, warnings, err := e.writer.WriteLines(ctx, tx, ledger, j, calc)
	if err != nil {
		err = journalErr(err)
		return nil, err
	}

	result = &accounting.PostingJournalResult{
		JournalID: j.ID,
		LedgerID:  j.LedgerID,
		Lines:     lines,
		Warnings:  warnings,
		AppliedAt: e.clock(),
	}

	if err = e.outboxManager.CreateOutboxEntry(ctx, tx, j, result); err != nil {
		err = journalErr(err)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit journal", "journal_id", j.ID.String(), "ledger_id", j.LedgerID, "error", err)
		err = journalErr(fmt.Errorf("failed to commit journal: %w", err))
		return nil, err
	}

	logger.Info("Posting journal applied",
		"journal_id", j.ID.String(),
		"ledger_id", j.LedgerID,
		"lines", len(lines),
		"warnings", len(warnings))
	return result, nil
}

// statusDate covers today and every line date, so the graph holds all history the
// journal's running values and credit limits depend on.
func (e *PostingEngine) statusDate(j *accounting.PostingJournal) time.Time {
	status := accounting.DateOf(e.clock())
	for _, line := range j.Lines {
		if d := accounting.DateOf(line.Date); d.After(status) {
			status = d
		}
	}
	return status
}

// ProcessJournal is the consumer entry point. Business rejections are archived and
// acknowledged; infrastructure failures are returned so the message is retried.
func (e *PostingEngine) ProcessJournal(ctx context.Context, j *accounting.PostingJournal) error {
	logger := e.logger
	if j.CorrelationID != "" {
		logger = e.logger.With("correlation_id", j.CorrelationID)
	}

	logger.Info("Processing posting journal", "journal_id", j.ID.String(), "ledger_id", j.LedgerID, "lines", len(j.Lines))

	skip, err := e.validator.CheckIdempotency(ctx, j)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	_, err = e.ApplyPostingJournal(ctx, j, e.calculator)
	if err == nil {
		return nil
	}

	reason, rejected := failureReason(err)
	if !rejected {
		return err
	}
	logger.Warn("Posting journal rejected", "journal_id", j.ID.String(), "reason", reason, "error", err)
	if recordErr := e.failureRecorder.RecordFailure(ctx, j, reason); recordErr != nil {
		logger.Error("Failed to record journal rejection", "journal_id", j.ID.String(), "error", recordErr)
	}
	return nil
}

func failureReason(err error) (string, bool) {
	switch {
	case errors.Is(err, accounting.ValidationError{}):
		return string(shared.FailureReasonInvalidJournal), true
	case errors.Is(err, accounting.ErrLedgerNotFound{}):
		return string(shared.FailureReasonLedgerNotFound), true
	case errors.Is(err, accounting.ErrAccountNotFound{}):
		return string(shared.FailureReasonAccountNotFound), true
	case errors.Is(err, accounting.BackDatingError{}):
		return string(shared.FailureReasonBackDatingExceeded), true
	}
	return "", false
}
