package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/domain/accounting"
)

// LedgerHandler handles HTTP requests for ledgers, their accounts and posting lines
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
	clock         func() time.Time
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService, clock func() time.Time) *LedgerHandler {
	if clock == nil {
		clock = time.Now
	}
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
		clock:         clock,
	}
}

// Get materializes the ledger as of status_date, today when the query omits it
func (h *LedgerHandler) Get(c *gin.Context) {
	ledgerID, ok := parsePositiveParam(c, "number")
	if !ok {
		return
	}

	statusDate := accounting.DateOf(h.clock())
	if raw := c.Query("status_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid status_date: expected YYYY-MM-DD")
			return
		}
		statusDate = parsed
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), ledgerID, statusDate)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get ledger")
		return
	}

	RespondOK(c, mapLedgerToResponse(ledger))
}

// Delete removes a ledger that has no accounts or posting lines
func (h *LedgerHandler) Delete(c *gin.Context) {
	ledgerID, ok := parsePositiveParam(c, "number")
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteLedger(c.Request.Context(), ledgerID); err != nil {
		respondError(c, h.logger, err, "Failed to delete ledger")
		return
	}

	RespondNoContent(c)
}

// DeleteAccount removes an account of kind that no posting line references
func (h *LedgerHandler) DeleteAccount(kind accounting.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := accountKeyParams(c)
		if !ok {
			return
		}

		if err := h.ledgerService.DeleteAccount(c.Request.Context(), key.LedgerID, kind, key.Number); err != nil {
			respondError(c, h.logger, err, "Failed to delete "+kind.Label()+" account")
			return
		}

		RespondNoContent(c)
	}
}

// AmendPostingLine always answers 405: posting lines are immutable
func (h *LedgerHandler) AmendPostingLine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	respondError(c, h.logger, h.ledgerService.AmendPostingLine(c.Request.Context(), id), "Failed to amend posting line")
}

// DeletePostingLine always answers 405: posting lines are immutable
func (h *LedgerHandler) DeletePostingLine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	respondError(c, h.logger, h.ledgerService.DeletePostingLine(c.Request.Context(), id), "Failed to delete posting line")
}
