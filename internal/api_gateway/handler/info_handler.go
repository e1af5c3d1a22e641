package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/accounting-ledger/internal/api_gateway/middleware"
	"github.com/accounting-ledger/internal/api_gateway/service"
	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/infoseries"
)

// InfoHandler handles HTTP requests for credit limit and budget series
type InfoHandler struct {
	infoService service.InfoService
	logger      *slog.Logger
}

// NewInfoHandler creates a new info series handler
func NewInfoHandler(logger *slog.Logger, infoService service.InfoService) *InfoHandler {
	return &InfoHandler{
		infoService: infoService,
		logger:      logger,
	}
}

// SynchronizeCredit stores the listed months of a regular account's credit limits
func (h *InfoHandler) SynchronizeCredit(c *gin.Context) {
	key, ok := accountKeyParams(c)
	if !ok {
		return
	}
	var req SynchronizeCreditInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	desired := make([]infoseries.Entry[decimal.Decimal], 0, len(req.Entries))
	for _, e := range req.Entries {
		period, ok := periodParam(c, e.Period)
		if !ok {
			return
		}
		desired = append(desired, infoseries.Entry[decimal.Decimal]{Period: period, Value: e.CreditLimit})
	}

	changes, err := h.infoService.SynchronizeCreditInfo(c.Request.Context(), key, desired, middleware.GetActor(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to synchronize credit info")
		return
	}

	RespondOK(c, mapChangesToResponse(changes))
}

// SynchronizeBudget stores the listed months of a budget account's budgets
func (h *InfoHandler) SynchronizeBudget(c *gin.Context) {
	key, ok := accountKeyParams(c)
	if !ok {
		return
	}
	var req SynchronizeBudgetInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	desired := make([]infoseries.Entry[accounting.BudgetAmount], 0, len(req.Entries))
	for _, e := range req.Entries {
		period, ok := periodParam(c, e.Period)
		if !ok {
			return
		}
		desired = append(desired, infoseries.Entry[accounting.BudgetAmount]{
			Period: period,
			Value:  accounting.BudgetAmount{Income: e.Income, Expense: e.Expense},
		})
	}

	changes, err := h.infoService.SynchronizeBudgetInfo(c.Request.Context(), key, desired, middleware.GetActor(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to synchronize budget info")
		return
	}

	RespondOK(c, mapChangesToResponse(changes))
}

// ExpandCredit returns one credit limit per month in [from, to]
func (h *InfoHandler) ExpandCredit(c *gin.Context) {
	key, from, to, ok := h.rangeParams(c)
	if !ok {
		return
	}

	entries, err := h.infoService.ExpandCreditInfo(c.Request.Context(), key, from, to)
	if err != nil {
		respondError(c, h.logger, err, "Failed to expand credit info")
		return
	}

	response := make([]CreditSeriesEntry, 0, len(entries))
	for _, e := range entries {
		response = append(response, CreditSeriesEntry{Period: e.Period.String(), CreditLimit: e.Value})
	}
	RespondOK(c, response)
}

// ExpandBudget returns one budget per month in [from, to]
func (h *InfoHandler) ExpandBudget(c *gin.Context) {
	key, from, to, ok := h.rangeParams(c)
	if !ok {
		return
	}

	entries, err := h.infoService.ExpandBudgetInfo(c.Request.Context(), key, from, to)
	if err != nil {
		respondError(c, h.logger, err, "Failed to expand budget info")
		return
	}

	response := make([]BudgetSeriesEntry, 0, len(entries))
	for _, e := range entries {
		response = append(response, BudgetSeriesEntry{Period: e.Period.String(), Income: e.Value.Income, Expense: e.Value.Expense})
	}
	RespondOK(c, response)
}

// DeleteCredit removes a future month of a credit limit series
func (h *InfoHandler) DeleteCredit(c *gin.Context) {
	key, ok := accountKeyParams(c)
	if !ok {
		return
	}
	period, ok := periodParam(c, c.Param("period"))
	if !ok {
		return
	}

	changes, err := h.infoService.DeleteCreditInfo(c.Request.Context(), key, period)
	if err != nil {
		respondError(c, h.logger, err, "Failed to delete credit info")
		return
	}

	RespondOK(c, mapChangesToResponse(changes))
}

// DeleteBudget removes a future month of a budget series
func (h *InfoHandler) DeleteBudget(c *gin.Context) {
	key, ok := accountKeyParams(c)
	if !ok {
		return
	}
	period, ok := periodParam(c, c.Param("period"))
	if !ok {
		return
	}

	changes, err := h.infoService.DeleteBudgetInfo(c.Request.Context(), key, period)
	if err != nil {
		respondError(c, h.logger, err, "Failed to delete budget info")
		return
	}

	RespondOK(c, mapChangesToResponse(changes))
}

func (h *InfoHandler) rangeParams(c *gin.Context) (accounting.AccountKey, accounting.YearMonth, accounting.YearMonth, bool) {
	key, ok := accountKeyParams(c)
	if !ok {
		return key, accounting.YearMonth{}, accounting.YearMonth{}, false
	}
	var params SeriesRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid range: from and to are required")
		return key, accounting.YearMonth{}, accounting.YearMonth{}, false
	}
	from, ok := periodParam(c, params.From)
	if !ok {
		return key, accounting.YearMonth{}, accounting.YearMonth{}, false
	}
	to, ok := periodParam(c, params.To)
	if !ok {
		return key, accounting.YearMonth{}, accounting.YearMonth{}, false
	}
	return key, from, to, true
}
