package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/platform/messaging/producers"
	"github.com/accounting-ledger/internal/posting_processor/service"
)

// JournalEventHandler handles posting journal messages from Kafka
type JournalEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewJournalEventHandler creates a new handler. producer may be nil when no DLQ is configured.
func NewJournalEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *JournalEventHandler {
	return &JournalEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes one journal and hands it to the processing service.
// A nil return commits the offset.
func (h *JournalEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var j accounting.PostingJournal
	if err := json.Unmarshal(value, &j); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal posting journal from Kafka message", err)
	}
	if j.ID == uuid.Nil {
		return h.deadLetter(ctx, key, value, "Posting journal message has no id", accounting.ValidationError{Field: "id", Reason: "is required"})
	}

	logger := h.logger
	if j.CorrelationID != "" {
		logger = h.logger.With("correlation_id", j.CorrelationID)
	}

	logger.Info("Received posting journal for processing",
		"journal_id", j.ID.String(),
		"ledger_id", j.LedgerID,
		"lines", len(j.Lines),
	)

	if err := h.processingService.ProcessJournal(ctx, &j); err != nil {
		logger.Error("Failed to process posting journal",
			"journal_id", j.ID.String(),
			"ledger_id", j.LedgerID,
			"error", err,
		)
		return fmt.Errorf("processing journal %s failed: %w", j.ID.String(), err)
	}

	logger.Info("Processed posting journal", "journal_id", j.ID.String())
	return nil
}

// deadLetter parks an undecodable message. It is acknowledged only if the DLQ took it.
func (h *JournalEventHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg,
		"error", cause,
		"message_key", string(key),
	)

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", msg, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
			return nil
		}
	}
	return fmt.Errorf("failed to decode journal message: %w", cause)
}
