package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/storefront/catalog/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes surfaced as write conflicts
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerializationFailed = "40001"
)

// IsUniqueViolation reports whether err is a unique-constraint violation raised by
// PostgreSQL (pgx or lib/pq) or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return sqlState(err) == pgUniqueViolation || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isConflict reports whether err means a concurrent write invalidated the current one
func isConflict(err error) bool {
	if IsUniqueViolation(err) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	switch sqlState(err) {
	case pgForeignKeyViolation, pgSerializationFailed:
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// translateError maps storage errors onto domain errors. Constraint violations become
// shared.ErrConflict so the caller re-runs validation and reports the real cause.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	}
	return err
}
