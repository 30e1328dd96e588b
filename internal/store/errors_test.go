package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rotelab/rote-api/internal/store"
)

func TestEntitySpecificErrors(t *testing.T) {
	t.Parallel()

	t.Run("not found errors wrap ErrNotFound", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{
			store.ErrUserNotFound,
			store.ErrSubjectNotFound,
			store.ErrFlashcardNotFound,
		} {
			assert.True(t, errors.Is(err, store.ErrNotFound))
			assert.True(t, store.IsNotFoundError(err))
			assert.False(t, store.IsDuplicateError(err))
		}
	})

	t.Run("duplicate errors wrap ErrDuplicate", func(t *testing.T) {
		t.Parallel()

		assert.True(t, errors.Is(store.ErrEmailExists, store.ErrDuplicate))
		assert.True(t, store.IsDuplicateError(store.ErrEmailExists))
		assert.False(t, store.IsNotFoundError(store.ErrEmailExists))
	})

	t.Run("wrapped errors remain detectable", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("loading card for review: %w", store.ErrFlashcardNotFound)
		assert.True(t, errors.Is(wrapped, store.ErrFlashcardNotFound))
		assert.True(t, store.IsNotFoundError(wrapped))
	})
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("formats with wrapped error", func(t *testing.T) {
		t.Parallel()

		inner := errors.New("connection reset")
		err := store.NewStoreError("flashcard", "update", "persisting review state", inner)

		assert.Equal(
			t,
			"update operation on flashcard failed: persisting review state: connection reset",
			err.Error(),
		)
		assert.True(t, errors.Is(err, inner))
	})

	t.Run("formats without wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("user", "create", "hash failure", nil)
		assert.Equal(t, "create operation on user failed: hash failure", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("unwraps to sentinel", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("subject", "get", "row scan", store.ErrSubjectNotFound)
		assert.True(t, store.IsNotFoundError(err))

		var storeErr *store.StoreError
		assert.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "subject", storeErr.Entity)
	})
}
