package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapError_ClassifiesPostgresCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"unique violation", "23505", ErrAlreadyExists},
		{"foreign key violation", "23503", ErrForeignKeyViolation},
		{"check violation", "23514", ErrConstraintViolation},
		{"not null violation", "23502", ErrConstraintViolation},
		{"row affected twice", "21000", ErrConstraintViolation},
		{"connection failure", "08006", ErrConnectionFailed},
		{"admin shutdown", "57P01", ErrConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, Message: tt.name}
			err := WrapError(pgErr, "save challenge")

			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "save challenge failed")

			var unwrapped *pgconn.PgError
			assert.ErrorAs(t, err, &unwrapped)
			assert.Equal(t, tt.code, unwrapped.Code)
		})
	}
}

func TestWrapError_NoRowsIsNotFound(t *testing.T) {
	err := WrapError(pgx.ErrNoRows, "find")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFoundError(err))
	assert.True(t, IsNotFoundError(pgx.ErrNoRows))
}

func TestWrapError_UnclassifiedErrorIsKept(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(cause, "find")
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsConstraintViolationError(err))
	assert.False(t, IsConnectionError(err))
	assert.Nil(t, WrapError(nil, "find"))
}

func TestErrorPredicates(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsConstraintViolationError(unique))
	assert.True(t, IsConstraintViolationError(fmt.Errorf("wrapped: %w", unique)))
	assert.True(t, IsConstraintViolationError(ErrForeignKeyViolation))
	assert.False(t, IsConstraintViolationError(nil))

	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "08001"}))
	assert.True(t, IsConnectionError(ErrConnectionFailed))
	assert.False(t, IsConnectionError(unique))
	assert.False(t, IsNotFoundError(nil))
}
