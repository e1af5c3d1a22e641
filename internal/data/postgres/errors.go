package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/accounting-ledger/internal/domain/accounting"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// asConflict turns serialization failures and deadlocks into ConcurrencyConflictError
// so callers can retry the whole unit of work. Other errors pass through unchanged.
func asConflict(entity string, err error) error {
	switch sqlState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return accounting.ConcurrencyConflictError{Entity: entity, Cause: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == sqlStateUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == sqlStateForeignKeyViolation
}
