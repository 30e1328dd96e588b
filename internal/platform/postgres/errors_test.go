package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotelab/rote-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "nil passes through",
			in:   nil,
			want: nil,
		},
		{
			name: "no rows maps to not found",
			in:   sql.ErrNoRows,
			want: store.ErrNotFound,
		},
		{
			name: "unique violation maps to duplicate",
			in:   &pgconn.PgError{Code: uniqueViolationCode},
			want: store.ErrDuplicate,
		},
		{
			name: "foreign key violation maps to invalid entity",
			in:   &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "flashcards_subject_id_fkey"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "check violation maps to invalid entity",
			in:   &pgconn.PgError{Code: checkViolationCode},
			want: store.ErrInvalidEntity,
		},
		{
			name: "not null violation maps to invalid entity",
			in:   &pgconn.PgError{Code: notNullViolationCode, ColumnName: "question"},
			want: store.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		unknown := errors.New("connection refused")
		assert.Equal(t, unknown, MapError(unknown))
	})
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("returns notFound when zero rows affected", func(t *testing.T) {
		t.Parallel()

		err := CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrFlashcardNotFound)
		assert.ErrorIs(t, err, store.ErrFlashcardNotFound)
	})

	t.Run("falls back to generic not found", func(t *testing.T) {
		t.Parallel()

		err := CheckRowsAffected(sqlmock.NewResult(0, 0), nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("passes when rows affected", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrFlashcardNotFound))
	})

	t.Run("rejects nil result", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, CheckRowsAffected(nil, nil))
	})
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: uniqueViolationCode}
	fk := &pgconn.PgError{Code: foreignKeyViolationCode}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.False(t, IsUniqueViolation(errors.New("plain")))

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrFlashcardNotFound))
	assert.False(t, IsNotFoundError(errors.New("plain")))
}
