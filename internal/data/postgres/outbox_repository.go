package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/accounting-ledger/internal/domain/outbox"
	"github.com/accounting-ledger/internal/domain/shared"
	"github.com/accounting-ledger/internal/platform/persistence"
)

const outboxSelect = `
	SELECT id, journal_id, ledger_id, payload, status, attempts, created_at, last_attempt_at
	FROM journal_outbox
`

// OutboxRepository keeps the journal outbox in the ledger database, so a
// message commits or rolls back with the posting lines it describes
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	now     func() time.Time
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
		now:     time.Now,
	}
}

func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
		now:     r.now,
	}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO journal_outbox (journal_id, ledger_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.JournalID,
		message.LedgerID,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return outbox.ErrDuplicateMessage{JournalID: message.JournalID}
		}
		r.logger.Error("Failed to create outbox message",
			"journal_id", message.JournalID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOutboxMessage(row rowScanner) (*outbox.Message, error) {
	var m outbox.Message
	err := row.Scan(&m.ID, &m.JournalID, &m.LedgerID, &m.Payload, &m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := outboxSelect + `
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		message, err := scanOutboxMessage(rows)
		if err != nil {
			r.logger.Error("Failed to scan outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) GetByJournalID(ctx context.Context, journalID uuid.UUID) (*outbox.Message, error) {
	message, err := scanOutboxMessage(r.querier.QueryRow(ctx, outboxSelect+` WHERE journal_id = $1`, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, outbox.ErrMessageNotFound{}
		}
		r.logger.Error("Failed to get outbox message by journal ID",
			"journal_id", journalID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get outbox message by journal ID: %w", err)
	}
	return message, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, shared.OutboxStatusProcessed)
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, shared.OutboxStatusFailedToPublish)
}

func (r *OutboxRepository) setStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE journal_outbox
		SET status = $2, last_attempt_at = $3
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id, status, r.now())
	if err != nil {
		r.logger.Error("Failed to update outbox message status",
			"id", id,
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to set outbox message %d to %s: %w", id, status, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// RecordFailure relies on SET evaluating attempts before the increment
func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int) (outbox.Attempt, error) {
	query := `
		UPDATE journal_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE status END
		WHERE id = $1
		RETURNING attempts, status
	`

	var (
		attempts int
		status   shared.OutboxStatus
	)
	err := r.querier.QueryRow(ctx, query, id, r.now(), maxAttempts, shared.OutboxStatusFailedToPublish).Scan(&attempts, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return outbox.Attempt{}, outbox.ErrMessageNotFound{ID: id}
		}
		r.logger.Error("Failed to record outbox attempt", "id", id, "error", err)
		return outbox.Attempt{}, fmt.Errorf("failed to record outbox attempt: %w", err)
	}

	return outbox.Attempt{
		Count:  attempts,
		GaveUp: status == shared.OutboxStatusFailedToPublish,
	}, nil
}
