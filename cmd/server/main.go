package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmoralesv/pulso/config"
	"github.com/jmoralesv/pulso/internal/aggregator"
	"github.com/jmoralesv/pulso/internal/api"
	"github.com/jmoralesv/pulso/internal/collector"
	"github.com/jmoralesv/pulso/internal/logging"
	"github.com/jmoralesv/pulso/internal/reddit"
	"github.com/jmoralesv/pulso/internal/scheduler"
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

	clock := clockwork.NewRealClock()
	analyzer := sentiment.NewAnalyzer()
	provider := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)

	coll := collector.New(provider, db, analyzer, clock, collector.Config{
		PageLimit:      cfg.PageLimit,
		FetchBudget:    cfg.FetchBudget,
		MinStoredItems: cfg.BackfillMinItems,
		MinStoredDays:  cfg.BackfillMinDays,
	})
	agg := aggregator.New(db, clock)

	jobs := scheduler.Jobs{
		Collect: func(ctx context.Context) {
			if _, err := coll.CollectOnce(ctx); err != nil {
				slog.Error("Incremental collection failed", slog.String("error", err.Error()))
			}
		},
		DailySummary: func(ctx context.Context) {
			if err := agg.RunDailySummary(ctx); err != nil {
				slog.Error("Daily summary failed", slog.String("error", err.Error()))
			}
		},
		TopicTrends: func(ctx context.Context) {
			if err := agg.RunTopicTrends(ctx); err != nil {
				slog.Error("Topic trends failed", slog.String("error", err.Error()))
			}
		},
	}

	sched := scheduler.New(clock, jobs, cfg.CollectInterval, cfg.TrendInterval, cfg.SummaryHourUTC)
	sched.Start(ctx)
	defer sched.Stop()

	// Backfill runs on its own worker so startup and the periodic cycles
	// are never blocked behind historical collection.
	go func() {
		if err := coll.EnsureHistory(ctx); err != nil {
			slog.Error("Startup backfill check failed", slog.String("error", err.Error()))
		}
	}()

	server := api.NewServer(db, coll, analyzer, clock)
	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", slog.String("error", err.Error()))
			cancel()
		}
	}()
	slog.Info("Server started", slog.String("addr", cfg.HTTPAddr))

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
