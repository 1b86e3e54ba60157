package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"picturebook/internal/models"
	"picturebook/internal/storage"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ storage.Storage = (*ClickHouseDB)(nil)

const selectColumns = `id, title, cover_image_name, is_favorite, read_count, last_read_at, created_at, seq, version`

// ClickHouseDB keeps books in a ReplacingMergeTree keyed by id. Every change
// inserts a new row version; reads use FINAL to see the latest one.
type ClickHouseDB struct {
	conn    clickhouse.Conn
	options *clickhouse.Options

	// serialises read-modify-write cycles within this process
	mu sync.Mutex
}

type chRow struct {
	book    models.Book
	seq     uint64
	version uint64
}

// Options builds connection options for the given server
func Options(host string, port int, database, user, password string, useTLS bool) *clickhouse.Options {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}
	return options
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	options := Options(host, port, database, user, password, useTLS)

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// Initialize applies the embedded goose migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()

	if _, err := Migrate(ctx, sqlDB); err != nil {
		return storage.Persistence("initialize", err)
	}
	return nil
}

// Migrate runs all pending migrations and returns the applied versions
func Migrate(ctx context.Context, sqlDB *sql.DB) ([]int64, error) {
	provider, err := NewMigrationProvider(sqlDB)
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
func NewMigrationProvider(sqlDB *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectClickHouse, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// CreateBook creates a new book
func (db *ClickHouseDB) CreateBook(ctx context.Context, book models.Book) error {
	if strings.TrimSpace(book.ID) == "" || strings.TrimSpace(book.Title) == "" {
		return storage.ErrInvalidBook
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.getRow(ctx, book.ID); err == nil {
		return storage.ErrDuplicateID
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.Persistence("create book", err)
	}

	var maxSeq uint64
	if err := db.conn.QueryRow(ctx, `SELECT max(seq) FROM books FINAL`).Scan(&maxSeq); err != nil {
		return storage.Persistence("create book", err)
	}

	row := chRow{book: book, seq: maxSeq + 1, version: 1}
	return storage.Persistence("create book", db.insert(ctx, row))
}

// GetBook returns a single book by id
func (db *ClickHouseDB) GetBook(ctx context.Context, id string) (models.Book, error) {
	row, err := db.getRow(ctx, id)
	if err != nil {
		return models.Book{}, storage.Persistence("get book", err)
	}
	return row.book, nil
}

// ListBooks returns books newest first
func (db *ClickHouseDB) ListBooks(ctx context.Context, filter models.Filter) ([]models.Book, error) {
	query := `SELECT ` + selectColumns + ` FROM books FINAL`
	if filter == models.FilterFavorites {
		query += ` WHERE is_favorite = true`
	}
	query += ` ORDER BY created_at DESC, seq ASC`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, storage.Persistence("list books", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, storage.Persistence("list books", err)
		}
		books = append(books, row.book)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Persistence("list books", err)
	}
	return books, nil
}

// CountBooks returns the number of distinct books
func (db *ClickHouseDB) CountBooks(ctx context.Context) (int, error) {
	var n uint64
	if err := db.conn.QueryRow(ctx, `SELECT count() FROM books FINAL`).Scan(&n); err != nil {
		return 0, storage.Persistence("count books", err)
	}
	return int(n), nil
}

// ToggleFavorite flips the favorite flag by writing a new row version
func (db *ClickHouseDB) ToggleFavorite(ctx context.Context, id string) (models.Book, error) {
	return db.mutate(ctx, "toggle favorite", id, func(b *models.Book) {
		b.IsFavorite = !b.IsFavorite
	})
}

// RecordRead increments the read count by writing a new row version
func (db *ClickHouseDB) RecordRead(ctx context.Context, id string, at time.Time) (models.Book, error) {
	return db.mutate(ctx, "record read", id, func(b *models.Book) {
		b.ReadCount++
		lastRead := at.UTC()
		b.LastReadAt = &lastRead
	})
}

func (db *ClickHouseDB) mutate(ctx context.Context, op, id string, change func(*models.Book)) (models.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	row, err := db.getRow(ctx, id)
	if err != nil {
		return models.Book{}, storage.Persistence(op, err)
	}

	change(&row.book)
	row.version++

	if err := db.insert(ctx, row); err != nil {
		return models.Book{}, storage.Persistence(op, err)
	}
	return row.book, nil
}

func (db *ClickHouseDB) getRow(ctx context.Context, id string) (chRow, error) {
	rows, err := db.conn.Query(ctx, `SELECT `+selectColumns+` FROM books FINAL WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return chRow{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return chRow{}, err
		}
		return chRow{}, storage.ErrNotFound
	}
	return scanRow(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(rows scanner) (chRow, error) {
	var (
		row       chRow
		readCount uint32
		lastRead  *time.Time
	)
	err := rows.Scan(
		&row.book.ID,
		&row.book.Title,
		&row.book.CoverImageName,
		&row.book.IsFavorite,
		&readCount,
		&lastRead,
		&row.book.CreatedAt,
		&row.seq,
		&row.version,
	)
	if err != nil {
		return chRow{}, fmt.Errorf("failed to scan book: %w", err)
	}
	row.book.ReadCount = int(readCount)
	row.book.CreatedAt = row.book.CreatedAt.UTC()
	if lastRead != nil {
		t := lastRead.UTC()
		row.book.LastReadAt = &t
	}
	return row, nil
}

func (db *ClickHouseDB) insert(ctx context.Context, row chRow) error {
	var lastRead *time.Time
	if row.book.LastReadAt != nil {
		t := row.book.LastReadAt.UTC()
		lastRead = &t
	}
	// Batch inserts use the native column encoding, keeping DateTime64 nanoseconds
	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO books (`+selectColumns+`)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	err = batch.Append(
		row.book.ID,
		row.book.Title,
		row.book.CoverImageName,
		row.book.IsFavorite,
		uint32(row.book.ReadCount),
		lastRead,
		row.book.CreatedAt.UTC(),
		row.seq,
		row.version,
	)
	if err != nil {
		_ = batch.Abort()
		return fmt.Errorf("failed to append book version: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert book version: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
