// Package sqlite stores the book catalog in an embedded SQLite file.
//
// Queries go through gorm; the schema is owned by goose migrations embedded
// in the binary and applied by Initialize.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"picturebook/internal/models"
	"picturebook/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ storage.Storage = (*SQLiteDB)(nil)

// bookRow is the persisted shape of a book; timestamps are unix nanoseconds
// so ordering never depends on text formatting.
type bookRow struct {
	Seq            int64  `gorm:"column:seq;primaryKey;autoIncrement"`
	BookID         string `gorm:"column:id"`
	Title          string `gorm:"column:title"`
	CoverImageName string `gorm:"column:cover_image_name"`
	IsFavorite     bool   `gorm:"column:is_favorite"`
	ReadCount      int    `gorm:"column:read_count"`
	LastReadAtNs   *int64 `gorm:"column:last_read_at_ns"`
	CreatedAtNs    int64  `gorm:"column:created_at_ns"`
}

func (bookRow) TableName() string { return "books" }

func (r bookRow) toModel() models.Book {
	book := models.Book{
		ID:             r.BookID,
		Title:          r.Title,
		CoverImageName: r.CoverImageName,
		IsFavorite:     r.IsFavorite,
		ReadCount:      r.ReadCount,
		CreatedAt:      time.Unix(0, r.CreatedAtNs).UTC(),
	}
	if r.LastReadAtNs != nil {
		t := time.Unix(0, *r.LastReadAtNs).UTC()
		book.LastReadAt = &t
	}
	return book
}

func rowFromModel(b models.Book) bookRow {
	row := bookRow{
		BookID:         b.ID,
		Title:          b.Title,
		CoverImageName: b.CoverImageName,
		IsFavorite:     b.IsFavorite,
		ReadCount:      b.ReadCount,
		CreatedAtNs:    b.CreatedAt.UnixNano(),
	}
	if b.LastReadAt != nil {
		ns := b.LastReadAt.UnixNano()
		row.LastReadAtNs = &ns
	}
	return row
}

// SQLiteDB is the embedded catalog backend
type SQLiteDB struct {
	db *gorm.DB
}

// NewSQLiteDB opens (or creates) the database file at path
func NewSQLiteDB(path string, verbose bool) (*SQLiteDB, error) {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// A single writer connection keeps SQLite from returning SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	return &SQLiteDB{db: db}, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Initialize applies the embedded schema migrations
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storage.Persistence("initialize", err)
	}
	if _, err := Migrate(ctx, sqlDB); err != nil {
		return storage.Persistence("initialize", err)
	}
	return nil
}

// Migrate runs all pending migrations against db and returns the applied versions
func Migrate(ctx context.Context, db *sql.DB) ([]int64, error) {
	provider, err := NewMigrationProvider(db)
	if err != nil {
		return nil, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// NewMigrationProvider returns a goose provider over the embedded migrations
func NewMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// SQLDB exposes the underlying handle for migration tooling
func (s *SQLiteDB) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

// CreateBook inserts a new book
func (s *SQLiteDB) CreateBook(ctx context.Context, book models.Book) error {
	if strings.TrimSpace(book.ID) == "" || strings.TrimSpace(book.Title) == "" {
		return storage.ErrInvalidBook
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&bookRow{}).Where("id = ?", book.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return storage.ErrDuplicateID
		}
		row := rowFromModel(book)
		return tx.Create(&row).Error
	})
	return storage.Persistence("create book", err)
}

// GetBook returns a book by id
func (s *SQLiteDB) GetBook(ctx context.Context, id string) (models.Book, error) {
	row, err := s.findRow(s.db.WithContext(ctx), id)
	if err != nil {
		return models.Book{}, storage.Persistence("get book", err)
	}
	return row.toModel(), nil
}

func (s *SQLiteDB) findRow(tx *gorm.DB, id string) (bookRow, error) {
	var row bookRow
	err := tx.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, storage.ErrNotFound
	}
	return row, err
}

// ListBooks returns books newest first, insertion order among equal timestamps
func (s *SQLiteDB) ListBooks(ctx context.Context, filter models.Filter) ([]models.Book, error) {
	query := s.db.WithContext(ctx).Model(&bookRow{})
	if filter == models.FilterFavorites {
		query = query.Where("is_favorite = ?", true)
	}

	var rows []bookRow
	if err := query.Order("created_at_ns DESC").Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, storage.Persistence("list books", err)
	}

	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toModel())
	}
	return books, nil
}

// CountBooks returns the number of stored books
func (s *SQLiteDB) CountBooks(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&bookRow{}).Count(&n).Error; err != nil {
		return 0, storage.Persistence("count books", err)
	}
	return int(n), nil
}

// ToggleFavorite flips the favorite flag inside a transaction
func (s *SQLiteDB) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	return s.update(ctx, "toggle favorite", id, map[string]any{
		"is_favorite": gorm.Expr("NOT is_favorite"),
	})
}

// RecordRead increments the read count and stamps the read time
func (s *SQLiteDB) RecordRead(ctx context.Context, id string, at time.Time) (models.Book, error) {
	return s.update(ctx, "record read", id, map[string]any{
		"read_count":      gorm.Expr("read_count + 1"),
		"last_read_at_ns": at.UnixNano(),
	})
}

func (s *SQLiteDB) update(ctx context.Context, op, id string, changes map[string]any) (models.Book, error) {
	var updated bookRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookRow{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		row, err := s.findRow(tx, id)
		if err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return models.Book{}, storage.Persistence(op, err)
	}
	return updated.toModel(), nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
