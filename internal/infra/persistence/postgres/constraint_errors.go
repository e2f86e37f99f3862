package postgres

import (
	domainerrors "storefront/internal/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// Unique constraints the repositories translate into domain errors.
const (
	constraintUsersEmail       = "uq_users_email"
	constraintUsersExternalRef = "uq_users_external_identity_ref"
	constraintUsersStoreName   = "uq_users_store_name_lower"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}

	return nil, false
}

func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgUniqueViolation
}

// violatedConstraint returns the constraint name of a unique violation, or "" when unknown.
func violatedConstraint(err error) string {
	if pgErr, ok := pgError(err); ok {
		return pgErr.ConstraintName
	}

	return ""
}

func isForeignKeyConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgForeignKeyViolation
}

func isNotNullConstraintViolation(err error) bool {
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgNotNullViolation
}

func isCheckConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgCheckViolation
}

// mapWriteError turns not-null and check violations into validation failures.
// Anything else is reported as a database execution failure.
func mapWriteError(err error, message string) error {
	switch {
	case isNotNullConstraintViolation(err):
		return domainerrors.ErrValidationFailed.WithDetails(violationDetail(err, "missing required value"))
	case isCheckConstraintViolation(err):
		return domainerrors.ErrValidationFailed.WithDetails(violationDetail(err, "value not allowed"))
	default:
		return domainerrors.NewDatabaseExecuteError(err, message)
	}
}

func violationDetail(err error, fallback string) string {
	pgErr, ok := pgError(err)
	switch {
	case ok && pgErr.ColumnName != "":
		return pgErr.ColumnName + ": " + fallback
	case ok && pgErr.ConstraintName != "":
		return pgErr.ConstraintName + ": " + fallback
	default:
		return fallback
	}
}
