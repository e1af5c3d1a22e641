package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/api_gateway/middleware"
	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/domain/accounting"
)

// JournalHandler handles HTTP requests for posting journals
type JournalHandler struct {
	journalService service.JournalService
	logger         *slog.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(logger *slog.Logger, journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		logger:         logger,
	}
}

// Submit queues a posting journal for the ledger. A resubmitted id that was
// already processed answers with the archived outcome.
func (h *JournalHandler) Submit(c *gin.Context) {
	ledgerID, ok := parsePositiveParam(c, "number")
	if !ok {
		return
	}
	var req SubmitJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	j := &accounting.PostingJournal{
		LedgerID:      ledgerID,
		SubmittedBy:   middleware.GetActor(c),
		CorrelationID: middleware.GetCorrelationID(c),
	}
	if req.ID != "" {
		j.ID = uuid.MustParse(req.ID)
	}
	for i, line := range req.Lines {
		date, err := time.Parse(time.DateOnly, line.Date)
		if err != nil {
			RespondBadRequest(c, fmt.Sprintf("Invalid lines[%d].date: expected YYYY-MM-DD", i))
			return
		}
		j.Lines = append(j.Lines, accounting.ProposedPostingLine{
			Date:                 date,
			Reference:            line.Reference,
			AccountNumber:        line.AccountNumber,
			BudgetAccountNumber:  line.BudgetAccountNumber,
			ContactAccountNumber: line.ContactAccountNumber,
			Debit:                line.Debit,
			Credit:               line.Credit,
		})
	}

	existing, err := h.journalService.SubmitJournal(c.Request.Context(), j)
	if err != nil {
		respondError(c, h.logger, err, "Failed to submit journal")
		return
	}
	if existing != nil {
		RespondOK(c, mapJournalToResponse(existing))
		return
	}

	RespondAccepted(c, gin.H{
		"journal_id": j.ID,
		"status":     "PENDING",
	})
}

// GetByID returns the archived outcome of a journal
func (h *JournalHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.journalService.GetJournal(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get journal")
		return
	}

	RespondOK(c, mapJournalToResponse(entry))
}

// ListByLedger returns the ledger's archived journals, newest first
func (h *JournalHandler) ListByLedger(c *gin.Context) {
	ledgerID, ok := parsePositiveParam(c, "number")
	if !ok {
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.journalService.ListLedgerJournals(c.Request.Context(), ledgerID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list journals")
		return
	}

	journals := make([]JournalResponse, 0, len(entries))
	for _, entry := range entries {
		journals = append(journals, mapJournalToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, journals, pagination.Page, pagination.PerPage, total)
}
