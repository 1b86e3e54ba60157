package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistence(t *testing.T) {
	assert.NoError(t, Persistence("op", nil))

	// Domain errors pass through untouched
	assert.Same(t, ErrNotFound, Persistence("op", ErrNotFound))
	wrapped := fmt.Errorf("lookup: %w", ErrDuplicateID)
	assert.Equal(t, wrapped, Persistence("op", wrapped))

	cause := errors.New("disk full")
	err := Persistence("create book", cause)
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence failure during create book: disk full", err.Error())

	// Already wrapped errors are not wrapped twice
	assert.Equal(t, err, Persistence("other", err))
	assert.False(t, IsPersistence(ErrNotFound))
}
