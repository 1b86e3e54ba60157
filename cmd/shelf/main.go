package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"picturebook/internal/app"
	"picturebook/internal/catalog"
	"picturebook/internal/config"
	"picturebook/internal/storage"
)

var (
	// Global flags
	verbose    bool
	backend    string
	sqlitePath string
	seedFile   string

	logger *zap.Logger
	db     storage.Storage
	cat    *catalog.Catalog
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Browse and read the picture book library",
	Long: `shelf works on the same library as the Telegram bot.

Storage is configured through the environment (STORAGE_BACKEND,
SQLITE_PATH, CLICKHOUSE_*); the flags below override it.

Run "shelf tui" to read books in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.LoadStorageFromEnv()
		if err != nil {
			return err
		}
		if backend != "" {
			cfg.Backend = backend
		}
		if sqlitePath != "" {
			cfg.SQLitePath = sqlitePath
		}
		if cfg.Backend == config.BackendSQLite && cfg.SQLitePath == "" {
			cfg.SQLitePath = config.DefaultSQLitePath
		}
		if seedFile != "" {
			cfg.SeedFile = seedFile
		}

		logger = zap.NewNop()
		if verbose {
			if logger, err = app.NewLogger(true); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}

		db, err = app.OpenStorage(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		cat, err = app.OpenCatalog(cmd.Context(), db, cfg, logger)
		if err != nil {
			db.Close()
			db = nil
			return err
		}
		return nil
	},
}

func closeStorage() error {
	if logger != nil {
		_ = logger.Sync()
	}
	if db == nil {
		return nil
	}
	err := db.Close()
	db, cat = nil, nil
	return err
}

func init() {
	// Runs even when a command fails
	cobra.OnFinalize(func() { _ = closeStorage() })

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: sqlite, clickhouse or memory")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed-file", "", "YAML manifest used to seed an empty library")

	listCmd.Flags().BoolVarP(&listFavorites, "favorites", "f", false, "Only list favorite books")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print books as JSON")
	addCmd.Flags().StringVar(&addID, "id", "", "Book id (default: generated)")
	addCmd.Flags().StringVar(&addCover, "cover", "", "Cover image name")
	tuiCmd.Flags().BoolVar(&tuiTablet, "tablet", false, "Keep controls visible in landscape")
	tuiCmd.Flags().DurationVar(&tuiHideDelay, "hide-delay", 0, "Hide controls after this long without input (default: CONTROLS_HIDE_DELAY or 3s)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
