package main

// Run database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate -command status
//   go run ./cmd/migrate -command down

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"library-backend/internal/shared/config"
	"library-backend/internal/shared/storage/db"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status or version")
	flag.Parse()

	cfg := config.Load()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command); err != nil {
		log.Printf("migrate %s failed: %v", *command, err)
		os.Exit(1)
	}
}
