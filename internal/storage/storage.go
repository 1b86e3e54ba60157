package storage

import (
	"context"
	"time"

	"picturebook/internal/models"
)

// Storage defines the interface for book catalog persistence.
// Every mutating call returns only after the change is durable.
type Storage interface {
	// Book operations

	// CreateBook stores a new book. Returns ErrDuplicateID if the id is taken.
	CreateBook(ctx context.Context, book models.Book) error
	GetBook(ctx context.Context, id string) (models.Book, error)

	// ListBooks returns books ordered by CreatedAt descending.
	// Books with equal CreatedAt keep their insertion order.
	ListBooks(ctx context.Context, filter models.Filter) ([]models.Book, error)
	CountBooks(ctx context.Context) (int, error)

	// ToggleFavorite flips IsFavorite and returns the stored record
	ToggleFavorite(ctx context.Context, id string) (models.Book, error)

	// RecordRead increments ReadCount, sets LastReadAt and returns the stored record
	RecordRead(ctx context.Context, id string, at time.Time) (models.Book, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
