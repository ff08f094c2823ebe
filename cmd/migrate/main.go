// Command migrate applies the embedded cv_uploads schema migrations.
//
//	go run ./cmd/migrate            # up
//	go run ./cmd/migrate -cmd status
package main

import (
	"context"
	"flag"
	"os"

	"cv-ingest/internal/shared/config"
	"cv-ingest/internal/shared/storage/db"
	"cv-ingest/internal/shared/telemetry"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, down, status, version")
	flag.Parse()

	cfg := config.MustLoad()
	ctx := context.Background()

	opts := db.DefaultMigrateOptions().WithOverrides(cfg.DB)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": *command, "err": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": *command})
}
