package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accounting-ledger/internal/api_gateway/handler"
	"github.com/accounting-ledger/internal/api_gateway/middleware"
	"github.com/accounting-ledger/internal/domain/accounting"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	infoHandler *handler.InfoHandler,
	journalHandler *handler.JournalHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Actor())
	r.Use(middleware.Logger(logger, "/health"))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		ledgers := v1.Group("/ledgers/:number")
		{
			ledgers.GET("", ledgerHandler.Get)
			ledgers.DELETE("", ledgerHandler.Delete)
			ledgers.POST("/journals", journalHandler.Submit)
			ledgers.GET("/journals", journalHandler.ListByLedger)
			// one static route per kind; gin never falls back from the series groups to a :kind wildcard
			for _, kind := range accounting.AccountKinds {
				ledgers.DELETE("/accounts/"+kind.Label()+"/:account", ledgerHandler.DeleteAccount(kind))
			}

			// Monthly series
			credit := ledgers.Group("/accounts/regular/:account/credit-info")
			credit.PUT("", infoHandler.SynchronizeCredit)
			credit.GET("", infoHandler.ExpandCredit)
			credit.DELETE("/:period", infoHandler.DeleteCredit)

			budget := ledgers.Group("/accounts/budget/:account/budget-info")
			budget.PUT("", infoHandler.SynchronizeBudget)
			budget.GET("", infoHandler.ExpandBudget)
			budget.DELETE("/:period", infoHandler.DeleteBudget)
		}

		v1.GET("/journals/:id", journalHandler.GetByID)

		// Posting lines are immutable
		v1.PUT("/posting-lines/:id", ledgerHandler.AmendPostingLine)
		v1.DELETE("/posting-lines/:id", ledgerHandler.DeletePostingLine)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
