package shared

// JournalStatus defines journal processing states
type JournalStatus string

const (
	JournalStatusPending  JournalStatus = "PENDING"
	JournalStatusApplied  JournalStatus = "APPLIED"
	JournalStatusRejected JournalStatus = "REJECTED"
)

// IsTerminal reports whether the journal will not be processed again
func (s JournalStatus) IsTerminal() bool {
	return s == JournalStatusApplied || s == JournalStatusRejected
}

// FailureReason defines journal rejection categories
type FailureReason string

const (
	FailureReasonInvalidJournal     FailureReason = "INVALID_JOURNAL"
	FailureReasonLedgerNotFound     FailureReason = "LEDGER_NOT_FOUND"
	FailureReasonAccountNotFound    FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonBackDatingExceeded FailureReason = "BACK_DATING_LIMIT_EXCEEDED"
	FailureReasonCommitFailed       FailureReason = "JOURNAL_COMMIT_FAILED"
	FailureReasonUnknownError       FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
