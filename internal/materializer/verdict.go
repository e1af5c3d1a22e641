package materializer

import (
	"fmt"

	"github.com/accounting-ledger/internal/domain/accounting"
)

// verdict is the usability outcome of one fetched row, decided once right after fetch
type verdict struct {
	excluded *accounting.NotConvertibleError
}

func usable() verdict { return verdict{} }

func excluded(entity, id, reason string) verdict {
	return verdict{excluded: &accounting.NotConvertibleError{Entity: entity, ID: id, Reason: reason}}
}

func (v verdict) Usable() bool { return v.excluded == nil }

func classifyAccountRow(ledgerID int64, row accounting.AccountRow) verdict {
	entity := row.Kind.Label() + " account"
	id := row.Key().String()
	switch {
	case row.LedgerID != ledgerID:
		return excluded(entity, id, fmt.Sprintf("belongs to ledger %d", row.LedgerID))
	case row.Basic == nil:
		return excluded(entity, id, "basic account row is missing")
	case row.Kind.RequiresGroup() && row.Group == nil:
		return excluded(entity, id, "account group is missing")
	}
	return usable()
}

func classifyPostingLineRow(ledgerID int64, row accounting.PostingLineRow, regularUsable func(number int64) bool) verdict {
	id := row.ID.String()
	switch {
	case row.LedgerID != ledgerID:
		return excluded("posting line", id, fmt.Sprintf("belongs to ledger %d", row.LedgerID))
	case row.Date.IsZero():
		return excluded("posting line", id, "posting date is missing")
	case !regularUsable(row.AccountNumber):
		return excluded("posting line", id, fmt.Sprintf("regular account %d is not usable", row.AccountNumber))
	}
	return usable()
}
