// Package catalog owns the shelf's book collection.
//
// A Catalog keeps an in-memory view of every book, ordered newest first, and
// writes through to a storage.Storage backend: each mutation is persisted
// before the view changes, so the view always matches what is stored.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"picturebook/internal/models"
	"picturebook/internal/storage"
)

// Catalog is the book collection shared by every shelf and viewer
type Catalog struct {
	db     storage.Storage
	logger *zap.Logger
	now    func() time.Time

	// writeMu serialises persist-then-patch so the view and event order
	// follow the order of writes to the store
	writeMu sync.Mutex

	mu    sync.RWMutex
	books []models.Book

	subsMu      sync.Mutex
	subscribers []chan Event
	bufferSize  int
}

// Option configures a Catalog
type Option func(*Catalog)

// WithClock overrides the time source used for CreatedAt and LastReadAt
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithEventBuffer sets the buffer size of subscription channels
func WithEventBuffer(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// New creates a catalog over db. Call Load to populate the view.
func New(db storage.Storage, logger *zap.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		db:         db,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		bufferSize: 32,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the in-memory view with the stored books. A read failure is
// logged and leaves the previous view in place.
func (c *Catalog) Load(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	books, err := c.db.ListBooks(ctx, models.FilterAll)
	if err != nil {
		c.logger.Error("Failed to load books", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.books = books
	c.mu.Unlock()

	c.logger.Debug("Catalog loaded", zap.Int("books", len(books)))
	return nil
}

// List returns the books matching filter, newest first
func (c *Catalog) List(filter models.Filter) []models.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]models.Book, 0, len(c.books))
	for _, b := range c.books {
		if filter.Matches(b) {
			books = append(books, copyBook(b))
		}
	}
	return books
}

// Len returns the number of books in the view
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Get returns one book from the view
func (c *Catalog) Get(id string) (models.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return copyBook(c.books[i]), nil
	}
	return models.Book{}, storage.ErrNotFound
}

// Create adds a new book with default counters and CreatedAt set to now
func (c *Catalog) Create(ctx context.Context, id, title, coverImageName string) (models.Book, error) {
	return c.create(ctx, id, title, coverImageName, c.now())
}

func (c *Catalog) create(ctx context.Context, id, title, coverImageName string, createdAt time.Time) (models.Book, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" || title == "" {
		return models.Book{}, storage.ErrInvalidBook
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.Get(id); err == nil {
		return models.Book{}, fmt.Errorf("failed to create book %q: %w", id, storage.ErrDuplicateID)
	}

	book := models.Book{
		ID:             id,
		Title:          title,
		CoverImageName: strings.TrimSpace(coverImageName),
		CreatedAt:      createdAt,
	}
	if err := c.db.CreateBook(ctx, book); err != nil {
		c.logWriteFailure("create book", id, err)
		return models.Book{}, fmt.Errorf("failed to create book %q: %w", id, err)
	}

	c.mu.Lock()
	c.insert(book)
	c.mu.Unlock()

	c.logger.Info("Book created", zap.String("book_id", id), zap.String("title", title))
	c.publish(Event{Kind: EventCreated, Book: book})
	return copyBook(book), nil
}

// ToggleFavorite flips the favorite flag of a book
func (c *Catalog) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	book, err := c.db.ToggleFavorite(ctx, id)
	if err != nil {
		c.logWriteFailure("toggle favorite", id, err)
		return models.Book{}, fmt.Errorf("failed to toggle favorite for %q: %w", id, err)
	}

	c.replace(book)
	c.logger.Info("Favorite toggled", zap.String("book_id", id), zap.Bool("is_favorite", book.IsFavorite))
	c.publish(Event{Kind: EventFavoriteToggled, Book: book})
	return copyBook(book), nil
}

// IncrementReadCount records one more read of a book at the current time
func (c *Catalog) IncrementReadCount(ctx context.Context, id string) (models.Book, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	at := c.now()
	if current, err := c.Get(id); err == nil && at.Before(current.CreatedAt) {
		// a clock that moved backwards must not produce a read before creation
		at = current.CreatedAt
	}

	book, err := c.db.RecordRead(ctx, id, at)
	if err != nil {
		c.logWriteFailure("record read", id, err)
		return models.Book{}, fmt.Errorf("failed to record read for %q: %w", id, err)
	}

	c.replace(book)
	c.logger.Info("Read recorded", zap.String("book_id", id), zap.Int("read_count", book.ReadCount))
	c.publish(Event{Kind: EventReadRecorded, Book: book})
	return copyBook(book), nil
}

func (c *Catalog) logWriteFailure(op, id string, err error) {
	if storage.IsPersistence(err) {
		c.logger.Error("Catalog write failed", zap.String("op", op), zap.String("book_id", id), zap.Error(err))
		return
	}
	c.logger.Debug("Catalog write rejected", zap.String("op", op), zap.String("book_id", id), zap.Error(err))
}

// replace swaps the stored record into the view, inserting it if the view
// had not seen it yet.
func (c *Catalog) replace(book models.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(book.ID); i >= 0 {
		c.books[i] = book
		return
	}
	c.insert(book)
}

// insert places book before the first entry created strictly earlier, so
// equal timestamps keep insertion order. Caller holds c.mu.
func (c *Catalog) insert(book models.Book) {
	pos := len(c.books)
	for i, b := range c.books {
		if b.CreatedAt.Before(book.CreatedAt) {
			pos = i
			break
		}
	}
	c.books = append(c.books, models.Book{})
	copy(c.books[pos+1:], c.books[pos:])
	c.books[pos] = book
}

// Caller holds c.mu.
func (c *Catalog) indexOf(id string) int {
	for i, b := range c.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func copyBook(b models.Book) models.Book {
	if b.LastReadAt != nil {
		t := *b.LastReadAt
		b.LastReadAt = &t
	}
	return b
}
