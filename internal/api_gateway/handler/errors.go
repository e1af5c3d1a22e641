package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/accounting-ledger/internal/api_gateway/middleware"
	"github.com/accounting-ledger/internal/domain/accounting"
	"github.com/accounting-ledger/internal/domain/journal"
)

// respondError maps domain errors onto HTTP statuses. Anything unrecognized is
// logged and answered with a 500 that does not leak the cause.
func respondError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, accounting.ValidationError{}), errors.Is(err, accounting.BackDatingError{}):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, accounting.ErrLedgerNotFound{}),
		errors.Is(err, accounting.ErrAccountNotFound{}),
		errors.Is(err, journal.ErrEntryNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, accounting.IntegrityViolationError{}), errors.Is(err, accounting.ConcurrencyConflictError{}):
		RespondConflict(c, err.Error())
	case errors.Is(err, accounting.UnsupportedOperationError{}):
		RespondMethodNotAllowed(c, err.Error())
	default:
		middleware.RequestLogger(c, logger).Error(msg, "error", err)
		RespondInternalError(c)
	}
}
