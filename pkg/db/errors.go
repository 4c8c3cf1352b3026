package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the ledger cares about.
const (
	pgCodeLockNotAvailable = "55P03"
	pgCodeUniqueViolation  = "23505"
	pgCodeCheckViolation   = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsLockTimeout reports whether err is a bounded-wait lock acquisition
// failure (lock_timeout expired while waiting on a stock row).
func IsLockTimeout(err error) bool {
	return pgCode(err) == pgCodeLockNotAvailable
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraintName is provided, the constraint must match.
func IsUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCodeUniqueViolation {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}

// IsCheckViolation reports whether err broke a CHECK constraint, such as
// the non-negative guard on stock_levels.on_hand.
func IsCheckViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCodeCheckViolation {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}
