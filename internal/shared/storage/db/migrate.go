package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"cv-ingest/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// gooseLogger sends goose progress lines to the structured log.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	telemetry.Info("db.migrate", map[string]any{"msg": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("db.migrate.fatal", map[string]any{"msg": strings.TrimSpace(fmt.Sprintf(format, v...))})
	os.Exit(1)
}

// RunMigrations brings the schema up to date. A nil database is a no-op so
// in-memory runs can share the bootstrap path.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs one goose command (up, down, status, version) against the
// embedded migrations.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	var run func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error
	switch command {
	case "", "up":
		run = goose.UpContext
	case "down":
		run = goose.DownContext
	case "status":
		run = goose.StatusContext
	case "version":
		run = goose.VersionContext
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err := run(ctx, database, migrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
