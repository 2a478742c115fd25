package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

// Config is loaded once at startup and treated as immutable afterwards.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	CollectInterval time.Duration
	TrendInterval   time.Duration
	SummaryHourUTC  int

	FetchBudget      time.Duration
	PageLimit        int
	BackfillMinItems int
	BackfillMinDays  int
}

func Load() (Config, error) {
	if err := gotenv.Load(".env"); err != nil {
		slog.Warn("No .env file found, using OS environment")
	}

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "pulso-bot/0.1"),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_NAME", "pulso"))
	}

	var err error
	if cfg.CollectInterval, err = getDuration("COLLECT_INTERVAL", 2*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.TrendInterval, err = getDuration("TREND_INTERVAL", 6*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.FetchBudget, err = getDuration("FETCH_BUDGET", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SummaryHourUTC, err = getInt("SUMMARY_HOUR_UTC", 1); err != nil {
		return Config{}, err
	}
	if cfg.PageLimit, err = getInt("PAGE_LIMIT", 100); err != nil {
		return Config{}, err
	}
	if cfg.BackfillMinItems, err = getInt("BACKFILL_MIN_ITEMS", 200); err != nil {
		return Config{}, err
	}
	if cfg.BackfillMinDays, err = getInt("BACKFILL_MIN_DAYS", 30); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}
