package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"picturebook/internal/config"
	"picturebook/internal/storage/ch"
	"picturebook/internal/storage/sqlite"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	cfg, err := config.LoadStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to load storage configuration: %v", err)
	}

	// Get command from arguments (default to "up")
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if command == "create" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <migration_name>")
		}
		dir, err := migrationsDir(cfg.Backend)
		if err != nil {
			log.Fatal(err)
		}
		if err := goose.Create(nil, dir, os.Args[2], "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		log.Printf("Created migration: %s", os.Args[2])
		return
	}

	db, closeDB, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	provider, err := newProvider(cfg.Backend, db)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	log.Printf("Running migrations on %s: %s", cfg.Backend, command)
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		for _, r := range results {
			log.Printf("Applied %s (%s)", r.Source.Path, r.Duration)
		}
		log.Println("Migrations completed successfully")
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		log.Printf("Rolled back %s", result.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			log.Printf("%-24s %s", applied, s.Source.Path)
		}
	case "version":
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.Printf("Current migration version: %d", version)
	default:
		log.Fatalf("Unknown command: %s. Available commands: up, down, status, version, create", command)
	}
}

func openDB(cfg *config.StorageConfig) (*sql.DB, func(), error) {
	switch cfg.Backend {
	case config.BackendClickHouse:
		db := clickhouse.OpenDB(ch.Options(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		))
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("Connected to ClickHouse successfully")
		return db, func() { db.Close() }, nil
	case config.BackendSQLite:
		store, err := sqlite.NewSQLiteDB(cfg.SQLitePath, false)
		if err != nil {
			return nil, nil, err
		}
		db, err := store.SQLDB()
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Printf("Opened SQLite database %s", cfg.SQLitePath)
		return db, func() { store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("backend %s has no migrations", cfg.Backend)
}

func newProvider(backend string, db *sql.DB) (*goose.Provider, error) {
	if backend == config.BackendClickHouse {
		return ch.NewMigrationProvider(db)
	}
	return sqlite.NewMigrationProvider(db)
}

func migrationsDir(backend string) (string, error) {
	switch backend {
	case config.BackendClickHouse:
		return filepath.Join("internal", "storage", "ch", "migrations"), nil
	case config.BackendSQLite:
		return filepath.Join("internal", "storage", "sqlite", "migrations"), nil
	}
	return "", fmt.Errorf("backend %s has no migrations", backend)
}
