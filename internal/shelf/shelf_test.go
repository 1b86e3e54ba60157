package shelf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/models"
	"picturebook/internal/storage"
	"picturebook/internal/storage/stubs"
	"picturebook/internal/viewer"
)

func seededShelf(t *testing.T) (*Shelf, *catalog.Catalog) {
	t.Helper()
	c := catalog.New(stubs.NewMockDB(), zap.NewNop())
	_, err := c.SeedSampleDataIfEmpty(context.Background())
	require.NoError(t, err)
	return New(c, viewer.WithHideDelay(0)), c
}

func TestShelf_FilterToggle(t *testing.T) {
	s, _ := seededShelf(t)

	assert.Equal(t, models.FilterAll, s.Filter())
	assert.Equal(t, "All picture books", s.Title())
	assert.Len(t, s.Items(), 6)

	assert.Equal(t, models.FilterFavorites, s.ToggleFilter())
	assert.Equal(t, "Favorite picture books", s.Title())
	assert.Empty(t, s.Items())
	assert.Equal(t, "No favorite picture books yet", s.EmptyText())

	assert.Equal(t, models.FilterAll, s.ToggleFilter())
}

func TestShelf_ToggleFavorite(t *testing.T) {
	s, _ := seededShelf(t)
	ctx := context.Background()

	book, err := s.ToggleFavorite(ctx, "book_003")
	require.NoError(t, err)
	assert.True(t, book.IsFavorite)

	s.SetFilter(models.FilterFavorites)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "book_003", items[0].Book.ID)

	_, err = s.ToggleFavorite(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestShelf_OpenRecordsReadAndBadge(t *testing.T) {
	s, _ := seededShelf(t)
	ctx := context.Background()

	assert.Empty(t, s.Items()[0].Badge)

	v, err := s.Open(ctx, "book_001")
	require.NoError(t, err)
	v.Close()
	v, err = s.Open(ctx, "book_001")
	require.NoError(t, err)
	v.Close()

	first := s.Items()[0]
	assert.Equal(t, "book_001", first.Book.ID)
	assert.Equal(t, 2, first.Book.ReadCount)
	assert.Equal(t, "Read 2×", first.Badge)

	_, err = s.Open(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestShelf_SeparateFiltersPerShelf(t *testing.T) {
	a, c := seededShelf(t)
	b := New(c)

	a.ToggleFilter()
	assert.Equal(t, models.FilterFavorites, a.Filter())
	assert.Equal(t, models.FilterAll, b.Filter())
}
