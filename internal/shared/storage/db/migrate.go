package db

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"

	"codm-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn()
}

// Migrate creates or upgrades the user_analyses and shared_dashboards tables.
// A nil database is a no-op so memory-backed runs can call it unconditionally.
func Migrate(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	return withGoose(func() error {
		if err := goose.UpContext(ctx, database, "migrations"); err != nil {
			return err
		}
		version, err := goose.GetDBVersion(database)
		if err != nil {
			return err
		}
		telemetry.Info("db.migrated", map[string]any{"version": version})
		return nil
	})
}

// MigrationStatus logs the applied state of each migration.
func MigrationStatus(ctx context.Context, database *sql.DB) error {
	return withGoose(func() error {
		return goose.StatusContext(ctx, database, "migrations")
	})
}
