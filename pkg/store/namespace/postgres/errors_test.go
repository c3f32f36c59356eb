package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/anvarov/drivebox/pkg/store/namespace"
)

func TestIsRetryableTxError(t *testing.T) {
	t.Run("SerializationFailure", func(t *testing.T) {
		err := &pgconn.PgError{Code: serializationFailure}
		require.True(t, isRetryableTxError(err))
	})

	t.Run("DeadlockDetected", func(t *testing.T) {
		err := &pgconn.PgError{Code: deadlockDetected}
		require.True(t, isRetryableTxError(err))
	})

	t.Run("WrappedByCommit", func(t *testing.T) {
		// Aborts often surface at Commit, wrapped by the tx helper
		err := fmt.Errorf("failed to commit transaction: %w",
			&pgconn.PgError{Code: serializationFailure})
		require.True(t, isRetryableTxError(err))
	})

	t.Run("UniqueViolationIsNotRetryable", func(t *testing.T) {
		err := &pgconn.PgError{Code: uniqueViolation}
		require.False(t, isRetryableTxError(err))
	})

	t.Run("PlainErrorIsNotRetryable", func(t *testing.T) {
		require.False(t, isRetryableTxError(errors.New("connection refused")))
	})

	t.Run("NilIsNotRetryable", func(t *testing.T) {
		require.False(t, isRetryableTxError(nil))
	})
}

func TestConflictOr(t *testing.T) {
	t.Run("UniqueViolationBecomesConflict", func(t *testing.T) {
		err := conflictOr(&pgconn.PgError{Code: uniqueViolation}, "already exists")
		code, _ := namespace.CodeOf(err)
		require.Equal(t, namespace.ErrConflict, code)
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		cause := errors.New("connection refused")
		require.Equal(t, cause, conflictOr(cause, "already exists"))
	})
}
