package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
	BackendMemory     = "memory"
)

// DefaultSQLitePath is used when SQLITE_PATH is unset
const DefaultSQLitePath = "picturebook.db"

// Config holds the application configuration
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string

	Storage StorageConfig

	// How long viewer controls stay up without interaction
	ControlsHideDelay time.Duration

	LogDev bool
}

// StorageConfig selects and configures the catalog backend
type StorageConfig struct {
	Backend string

	SQLitePath string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Sample manifest used to seed an empty catalog; empty means the built-in one
	SeedFile string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Allowed User IDs (required)
	allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
	if allowedIDsStr == "" {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	idStrs := strings.Split(allowedIDsStr, ",")
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		config.AllowedUserIDs = append(config.AllowedUserIDs, id)
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	config.Port = os.Getenv("PORT")
	if config.Port == "" {
		config.Port = "8080" // Default port
	}

	delay, err := LoadHideDelay()
	if err != nil {
		return nil, err
	}
	config.ControlsHideDelay = delay

	storage, err := LoadStorageFromEnv()
	if err != nil {
		return nil, err
	}
	config.Storage = *storage

	config.LogDev = os.Getenv("LOG_DEV") == "true"

	return config, nil
}

// LoadStorageFromEnv loads only the storage settings, for tools that don't run the bot
func LoadStorageFromEnv() (*StorageConfig, error) {
	config := &StorageConfig{}

	config.Backend = strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	// USE_MOCK_DB=true is kept as a shorthand for the in-memory backend
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.Backend = BackendMemory
	}
	if config.Backend == "" {
		config.Backend = BackendSQLite
	}

	config.SeedFile = os.Getenv("SEED_FILE")

	switch config.Backend {
	case BackendMemory:
	case BackendSQLite:
		config.SQLitePath = os.Getenv("SQLITE_PATH")
		if config.SQLitePath == "" {
			config.SQLitePath = DefaultSQLitePath
		}
	case BackendClickHouse:
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
		}

		portStr := os.Getenv("CLICKHOUSE_PORT")
		if portStr == "" {
			config.ClickHousePort = 9000 // Default ClickHouse native port
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
			}
			config.ClickHousePort = port
		}

		config.ClickHouseDatabase = os.Getenv("CLICKHOUSE_DATABASE")
		if config.ClickHouseDatabase == "" {
			config.ClickHouseDatabase = "default"
		}

		config.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
		if config.ClickHouseUser == "" {
			config.ClickHouseUser = "default"
		}

		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		// Password is optional, can be empty

		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want sqlite, clickhouse or memory)", config.Backend)
	}

	return config, nil
}

// LoadHideDelay reads CONTROLS_HIDE_DELAY, defaulting to three seconds
func LoadHideDelay() (time.Duration, error) {
	s := os.Getenv("CONTROLS_HIDE_DELAY")
	if s == "" {
		return 3 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CONTROLS_HIDE_DELAY: %w", err)
	}
	return d, nil
}
