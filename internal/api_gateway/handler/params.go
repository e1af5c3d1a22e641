package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accounting-ledger/internal/domain/accounting"
)

func parsePositiveParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		RespondBadRequest(c, "Invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}

// accountKeyParams reads the ledger and account numbers from the path
func accountKeyParams(c *gin.Context) (accounting.AccountKey, bool) {
	ledgerID, ok := parsePositiveParam(c, "number")
	if !ok {
		return accounting.AccountKey{}, false
	}
	number, ok := parsePositiveParam(c, "account")
	if !ok {
		return accounting.AccountKey{}, false
	}
	return accounting.AccountKey{LedgerID: ledgerID, Number: number}, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondBadRequest(c, "Invalid "+name+": "+raw)
		return uuid.Nil, false
	}
	return id, true
}

func periodParam(c *gin.Context, raw string) (accounting.YearMonth, bool) {
	period, err := accounting.ParseYearMonth(raw)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return accounting.YearMonth{}, false
	}
	return period, true
}
