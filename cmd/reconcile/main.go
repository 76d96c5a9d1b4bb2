package main

// Report records saved for an owner that are missing from the shared
// collection, and optionally copy them back:
//   go run ./cmd/reconcile [-repair]

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"codm-backend/internal/bootstrap"
	"codm-backend/internal/dashboards"
	"codm-backend/internal/shared/config"
	"codm-backend/internal/shared/storage/db"
	"codm-backend/internal/shared/telemetry"
)

func main() {
	repair := flag.Bool("repair", false, "copy missing records into the shared collection")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(cfg.Env)
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *repair); err != nil {
		telemetry.Error("reconcile.failed", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, repair bool) error {
	store, _, err := bootstrap.BuildStore(ctx, cfg, db.OptionsFromEnv(db.CLIOptions()))
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := dashboards.NewService(store).Reconcile(ctx, repair)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
