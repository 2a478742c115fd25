// Command backfill runs a one-off historical collection of posts and their
// top comments across all monitored subreddits.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/jmoralesv/pulso/config"
	"github.com/jmoralesv/pulso/internal/collector"
	"github.com/jmoralesv/pulso/internal/logging"
	"github.com/jmoralesv/pulso/internal/reddit"
	"github.com/jmoralesv/pulso/internal/sentiment"
	"github.com/jmoralesv/pulso/internal/store"
)

func main() {
	logging.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	provider := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	coll := collector.New(provider, db, sentiment.NewAnalyzer(), clockwork.NewRealClock(), collector.Config{
		PageLimit:   cfg.PageLimit,
		FetchBudget: cfg.FetchBudget,
	})

	inserted, err := coll.Backfill(ctx)
	if err != nil {
		slog.Error("Backfill failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	status := coll.Status()
	if status.Error != "" {
		slog.Warn("Backfill finished with error", slog.String("error", status.Error))
		os.Exit(1)
	}

	oldest, newest, err := db.ItemSpan(ctx)
	if err == nil && !oldest.IsZero() {
		slog.Info("Stored history",
			slog.Time("oldest", oldest),
			slog.Time("newest", newest),
			slog.Int("span_days", int(newest.Sub(oldest).Hours()/24)))
	}
	slog.Info("Backfill complete", slog.Int("items_inserted", inserted))
}
