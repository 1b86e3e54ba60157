package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"picturebook/internal/catalog"
	"picturebook/internal/config"
	"picturebook/internal/storage"
	"picturebook/internal/storage/ch"
	"picturebook/internal/storage/sqlite"
	"picturebook/internal/storage/stubs"
)

// NewLogger builds a production logger, or a development one when dev is set
func NewLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenStorage connects to the configured backend and applies its migrations
func OpenStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (storage.Storage, error) {
	var db storage.Storage
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("Using in-memory database")
		db = stubs.NewMockDB()
	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	case config.BackendSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.SQLitePath))
		sqliteDB, err := sqlite.NewSQLiteDB(cfg.SQLitePath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		db = sqliteDB
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized successfully", zap.String("backend", cfg.Backend))
	return db, nil
}

// OpenCatalog loads the catalog over db and seeds it with samples when the
// store holds no books. Only an unreadable seed manifest is an error.
func OpenCatalog(ctx context.Context, db storage.Storage, cfg *config.StorageConfig, logger *zap.Logger) (*catalog.Catalog, error) {
	cat := catalog.New(db, logger.Named("catalog"))

	samples, err := catalog.LoadSamples(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	// Read failures leave an empty shelf; a later Load or write fills it
	if err := cat.Load(ctx); err != nil {
		logger.Warn("Starting with an empty shelf, books could not be loaded", zap.Error(err))
		return cat, nil
	}
	if _, err := cat.SeedIfEmpty(ctx, samples); err != nil {
		logger.Warn("Skipping sample data", zap.Error(err))
	}
	return cat, nil
}
