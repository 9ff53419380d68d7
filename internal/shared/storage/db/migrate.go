package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

var gooseInit = sync.OnceValue(func() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
})

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs a goose command against the embedded migrations: "up",
// "down" (one step), "status" or "version".
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	if err := gooseInit(); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.UpContext(ctx, database, migrationsDir)
	case "down":
		return goose.DownContext(ctx, database, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, database, migrationsDir)
	case "version":
		v, err := goose.GetDBVersionContext(ctx, database)
		if err != nil {
			return err
		}
		log.Printf("schema version %d", v)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
