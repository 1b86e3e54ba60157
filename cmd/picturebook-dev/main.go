package main

import (
	"context"
	"log"
	"os"

	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"picturebook/internal/app"
)

const (
	clickhouseImage    = "clickhouse/clickhouse-server:latest"
	clickhousePassword = "devpassword"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run serves the bot against a throwaway ClickHouse; the container goes away on exit
func run() error {
	ctx := context.Background()

	log.Println("Starting ClickHouse testcontainer...")
	container, err := clickhouse.Run(ctx, clickhouseImage,
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(clickhousePassword),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := container.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return err
	}
	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	env := map[string]string{
		"STORAGE_BACKEND":     "clickhouse",
		"USE_MOCK_DB":         "false",
		"CLICKHOUSE_HOST":     host,
		"CLICKHOUSE_PORT":     port.Port(),
		"CLICKHOUSE_DATABASE": "default",
		"CLICKHOUSE_USER":     "default",
		"CLICKHOUSE_PASSWORD": clickhousePassword,
		"CLICKHOUSE_USE_TLS":  "false",
		"WEBHOOK_MODE":        "false",
		"LOG_DEV":             "true",
	}
	for k, v := range env {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}

	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "ALLOWED_USER_IDS"} {
		if os.Getenv(key) == "" {
			log.Printf("⚠️  %s not set. Put it in .env or the environment before starting.", key)
		}
	}

	application, err := app.New()
	if err != nil {
		return err
	}
	log.Printf("Shelf API at http://localhost:%s/api/books", os.Getenv("PORT"))

	// Run blocks until SIGINT/SIGTERM and shuts the app down
	return application.Run()
}
