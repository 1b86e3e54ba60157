package ch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"picturebook/internal/models"
	"picturebook/internal/storage"
)

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse container test in short mode")
	}
	ctx := context.Background()

	// Start ClickHouse container
	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	// Get connection details
	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	// Create database connection
	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	require.NoError(t, db.Initialize(ctx), "Failed to run migrations")

	// Cleanup function
	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func testBook(id, title string, createdAt time.Time) models.Book {
	return models.Book{ID: id, Title: title, CoverImageName: id, CreatedAt: createdAt}
}

// TestClickHouseDB_CreateBook tests book creation and duplicate rejection
func TestClickHouseDB_CreateBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	created := time.Date(2025, 7, 2, 10, 0, 0, 987654321, time.UTC)

	require.NoError(t, db.CreateBook(ctx, testBook("book_002", "Momotaro", created)))

	book, err := db.GetBook(ctx, "book_002")
	require.NoError(t, err)
	assert.Equal(t, "Momotaro", book.Title)
	assert.True(t, created.Equal(book.CreatedAt))
	assert.Nil(t, book.LastReadAt)

	err = db.CreateBook(ctx, testBook("book_002", "Other", created))
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestClickHouseDB_ListBooks tests ordering and the favorites filter
func TestClickHouseDB_ListBooks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Initially should be empty
	books, err := db.ListBooks(ctx, models.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, books)

	base := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateBook(ctx, testBook("a", "A", base)))
	require.NoError(t, db.CreateBook(ctx, testBook("b", "B", base)))
	require.NoError(t, db.CreateBook(ctx, testBook("c", "C", base.Add(time.Second))))

	_, err = db.ToggleFavorite(ctx, "b")
	require.NoError(t, err)

	books, err = db.ListBooks(ctx, models.FilterAll)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "c", books[0].ID)
	assert.Equal(t, "a", books[1].ID)
	assert.Equal(t, "b", books[2].ID)

	favorites, err := db.ListBooks(ctx, models.FilterFavorites)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "b", favorites[0].ID)
}

// TestClickHouseDB_Mutations tests toggle and read recording through row versions
func TestClickHouseDB_Mutations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	created := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateBook(ctx, testBook("a", "A", created)))

	book, err := db.ToggleFavorite(ctx, "a")
	require.NoError(t, err)
	assert.True(t, book.IsFavorite)
	book, err = db.ToggleFavorite(ctx, "a")
	require.NoError(t, err)
	assert.False(t, book.IsFavorite)

	readAt := created.Add(time.Hour)
	_, err = db.RecordRead(ctx, "a", readAt)
	require.NoError(t, err)
	_, err = db.RecordRead(ctx, "a", readAt.Add(time.Minute))
	require.NoError(t, err)

	book, err = db.GetBook(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, book.ReadCount)
	require.NotNil(t, book.LastReadAt)
	assert.True(t, readAt.Add(time.Minute).Equal(*book.LastReadAt))

	n, err := db.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "row versions must collapse to one book")

	_, err = db.RecordRead(ctx, "missing", readAt)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
