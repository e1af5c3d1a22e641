package accounting

import (
	"fmt"
	"strconv"
	"time"
)

// ValidationError reports a blank or invalid identifying argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches any ValidationError when the target carries no field.
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// ErrLedgerNotFound indicates the requested ledger does not exist
type ErrLedgerNotFound struct {
	LedgerID int64
}

func (e ErrLedgerNotFound) Error() string {
	return "ledger not found: " + strconv.FormatInt(e.LedgerID, 10)
}

// Is implements the errors.Is interface for ErrLedgerNotFound
func (e ErrLedgerNotFound) Is(target error) bool {
	t, ok := target.(ErrLedgerNotFound)
	if !ok {
		return false
	}
	return t.LedgerID == 0 || t.LedgerID == e.LedgerID
}

// ErrAccountNotFound indicates a missing account of the given kind
type ErrAccountNotFound struct {
	Kind AccountKind
	Key  AccountKey
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("%s account not found: %s", e.Kind.Label(), e.Key)
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.Key == (AccountKey{}) {
		return true
	}
	return t.Key == e.Key && (t.Kind == "" || t.Kind == e.Kind)
}

// NotConvertibleError describes a row that was excluded from a graph build.
// It is recorded for logging and never returned by BuildLedger.
type NotConvertibleError struct {
	Entity string
	ID     string
	Reason string
}

func (e NotConvertibleError) Error() string {
	return fmt.Sprintf("%s %s is not convertible: %s", e.Entity, e.ID, e.Reason)
}

// IntegrityViolationError is raised when deleting an entity that still has dependents
// or whose history is immutable.
type IntegrityViolationError struct {
	Entity string
	ID     string
	Reason string
}

func (e IntegrityViolationError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: %s", e.Entity, e.ID, e.Reason)
}

// Is matches any IntegrityViolationError when the target has no entity.
func (e IntegrityViolationError) Is(target error) bool {
	t, ok := target.(IntegrityViolationError)
	if !ok {
		return false
	}
	return t.Entity == "" || (t.Entity == e.Entity && (t.ID == "" || t.ID == e.ID))
}

// ConcurrencyConflictError is surfaced from the storage layer when a concurrent
// writer invalidated the current transaction.
type ConcurrencyConflictError struct {
	Entity string
	Cause  error
}

func (e ConcurrencyConflictError) Error() string {
	if e.Cause == nil {
		return "concurrent modification detected on " + e.Entity
	}
	return fmt.Sprintf("concurrent modification detected on %s: %v", e.Entity, e.Cause)
}

func (e ConcurrencyConflictError) Unwrap() error {
	return e.Cause
}

// Is matches any ConcurrencyConflictError.
func (e ConcurrencyConflictError) Is(target error) bool {
	_, ok := target.(ConcurrencyConflictError)
	return ok
}

// UnsupportedOperationError is returned for mutations of immutable entities.
type UnsupportedOperationError struct {
	Operation string
}

func (e UnsupportedOperationError) Error() string {
	return "unsupported operation: " + e.Operation
}

// Is matches any UnsupportedOperationError.
func (e UnsupportedOperationError) Is(target error) bool {
	_, ok := target.(UnsupportedOperationError)
	return ok
}

// JournalError wraps the first failure of a journal application. No line of the
// journal is committed when it is returned.
type JournalError struct {
	JournalID string
	LedgerID  int64
	Cause     error
}

func (e JournalError) Error() string {
	return fmt.Sprintf("posting journal %s for ledger %d rejected: %v", e.JournalID, e.LedgerID, e.Cause)
}

func (e JournalError) Unwrap() error {
	return e.Cause
}

// BackDatingError rejects a posting date older than the ledger's back-dating limit
type BackDatingError struct {
	Date      time.Time
	LimitDays int
}

func (e BackDatingError) Error() string {
	return fmt.Sprintf("posting date %s is more than %d days in the past", e.Date.Format(time.DateOnly), e.LimitDays)
}

// Is matches any BackDatingError.
func (e BackDatingError) Is(target error) bool {
	_, ok := target.(BackDatingError)
	return ok
}
