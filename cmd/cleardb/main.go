// Command cleardb wipes all collected data. It exists for the one recovery
// path that requires an explicit administrative clear: a store flagged as
// corrupt because it holds future-dated items.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jmoralesv/pulso/config"
	"github.com/jmoralesv/pulso/internal/logging"
	"github.com/jmoralesv/pulso/internal/store"
)

func main() {
	logging.InitLogger()

	confirmed := flag.Bool("yes", false, "confirm deletion of all collected data")
	flag.Parse()

	if !*confirmed {
		slog.Error("Refusing to clear without --yes")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	count, err := db.CountItems(ctx)
	if err != nil {
		slog.Error("Failed to count items", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := db.ClearItems(ctx); err != nil {
		slog.Error("Failed to clear data", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Cleared all collected data", slog.Int("items_removed", count))
}
