package stubs

import (
	"context"
	"picturebook/internal/models"
	"picturebook/internal/storage"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ storage.Storage = (*MockDB)(nil)

type mockRow struct {
	book models.Book
	seq  int64
}

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu      sync.RWMutex
	books   map[string]*mockRow
	nextSeq int64

	// FailWrites makes every mutating call fail with a PersistenceError
	FailWrites bool
	// FailReads makes every read call fail with a PersistenceError
	FailReads bool
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books: make(map[string]*mockRow),
	}
}

// Initialize is a no-op for the mock database
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// CreateBook stores a new book
func (m *MockDB) CreateBook(ctx context.Context, book models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return storage.Persistence("create book", errMockWrite)
	}
	if strings.TrimSpace(book.ID) == "" || strings.TrimSpace(book.Title) == "" {
		return storage.ErrInvalidBook
	}
	if _, exists := m.books[book.ID]; exists {
		return storage.ErrDuplicateID
	}

	m.nextSeq++
	m.books[book.ID] = &mockRow{book: cloneBook(book), seq: m.nextSeq}
	return nil
}

// GetBook returns a single book by id
func (m *MockDB) GetBook(ctx context.Context, id string) (models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return models.Book{}, storage.Persistence("get book", errMockRead)
	}
	row, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	return cloneBook(row.book), nil
}

// ListBooks returns books sorted by creation time, newest first
func (m *MockDB) ListBooks(ctx context.Context, filter models.Filter) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, storage.Persistence("list books", errMockRead)
	}

	rows := make([]*mockRow, 0, len(m.books))
	for _, row := range m.books {
		if filter.Matches(row.book) {
			rows = append(rows, row)
		}
	}

	// Sort by created_at descending, then by insertion order
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].book.CreatedAt.Equal(rows[j].book.CreatedAt) {
			return rows[i].book.CreatedAt.After(rows[j].book.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, cloneBook(row.book))
	}
	return books, nil
}

// CountBooks returns the number of stored books
func (m *MockDB) CountBooks(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return 0, storage.Persistence("count books", errMockRead)
	}
	return len(m.books), nil
}

// ToggleFavorite flips the favorite flag of a book
func (m *MockDB) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return models.Book{}, storage.Persistence("toggle favorite", errMockWrite)
	}
	row, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	row.book.IsFavorite = !row.book.IsFavorite
	return cloneBook(row.book), nil
}

// RecordRead increments the read counter of a book
func (m *MockDB) RecordRead(ctx context.Context, id string, at time.Time) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return models.Book{}, storage.Persistence("record read", errMockWrite)
	}
	row, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	row.book.ReadCount++
	lastRead := at
	row.book.LastReadAt = &lastRead
	return cloneBook(row.book), nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func cloneBook(b models.Book) models.Book {
	if b.LastReadAt != nil {
		t := *b.LastReadAt
		b.LastReadAt = &t
	}
	return b
}

type mockError string

func (e mockError) Error() string { return string(e) }

const (
	errMockWrite = mockError("mock write failure")
	errMockRead  = mockError("mock read failure")
)
