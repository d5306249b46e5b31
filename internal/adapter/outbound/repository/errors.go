package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common error types
var (
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyExists       = errors.New("record already exists")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConnectionFailed    = errors.New("database connection failed")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// PostgreSQL SQLSTATE codes the store cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	// ON CONFLICT DO UPDATE touching the same row twice in one statement.
	codeCardinalityViolation = "21000"
)

// classify maps a driver error to one of the package's error kinds, or nil when the error has
// no more specific kind.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return ErrAlreadyExists
	case codeForeignKeyViolation:
		return ErrForeignKeyViolation
	case codeCheckViolation, codeNotNullViolation, codeCardinalityViolation:
		return ErrConstraintViolation
	}
	if len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "57": // connection exception, operator intervention
			return ErrConnectionFailed
		}
	}
	return nil
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || errors.Is(classify(err), ErrNotFound))
}

// IsConstraintViolationError reports whether the store rejected a write because of a
// constraint.
func IsConstraintViolationError(err error) bool {
	if err == nil {
		return false
	}
	for _, kind := range []error{ErrAlreadyExists, ErrForeignKeyViolation, ErrConstraintViolation} {
		if errors.Is(err, kind) || errors.Is(classify(err), kind) {
			return true
		}
	}
	return false
}

// IsConnectionError checks if an error is a connection-related error
func IsConnectionError(err error) bool {
	return err != nil && (errors.Is(err, ErrConnectionFailed) || errors.Is(classify(err), ErrConnectionFailed))
}

// WrapError wraps a database error with the operation and its classified kind. The driver
// error stays reachable through errors.As.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil {
		return fmt.Errorf("%s failed: %w: %w", operation, kind, err)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}
