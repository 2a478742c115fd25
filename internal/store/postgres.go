// Package store persists analyzed items and their derived aggregates in
// PostgreSQL. Batch writes are transactional: a failed batch leaves nothing
// behind and can be retried wholesale.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistenceError wraps a failed batch-level write. The batch was rolled
// back and is safe to retry on the next cycle.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	slog.Info("[Store] Connected to PostgreSQL successfully")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		subreddit TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		score INT NOT NULL DEFAULT 0,
		num_comments INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		permalink TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL,
		sentiment_score DOUBLE PRECISION NOT NULL,
		topics JSONB NOT NULL DEFAULT '[]',
		kind TEXT NOT NULL DEFAULT 'post',
		analyzed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_sentiment ON items (sentiment)`,
	`CREATE TABLE IF NOT EXISTS daily_summaries (
		date TIMESTAMPTZ PRIMARY KEY,
		total_posts INT NOT NULL,
		positive_count INT NOT NULL,
		negative_count INT NOT NULL,
		neutral_count INT NOT NULL,
		positive_pct DOUBLE PRECISION NOT NULL,
		negative_pct DOUBLE PRECISION NOT NULL,
		neutral_pct DOUBLE PRECISION NOT NULL,
		avg_sentiment_score DOUBLE PRECISION NOT NULL,
		top_topics JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS topic_trends (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		mention_count INT NOT NULL,
		avg_sentiment DOUBLE PRECISION NOT NULL,
		positive_mentions INT NOT NULL,
		negative_mentions INT NOT NULL,
		neutral_mentions INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_topic_trends_name_date ON topic_trends (name, date)`,
}

// InitSchema creates all tables. Safe to call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// ClearItems wipes all collected and derived data. This is the explicit
// administrative reset required after an integrity violation; the pipeline
// itself never deletes.
func (s *Store) ClearItems(ctx context.Context) error {
	for _, table := range []string{"items", "daily_summaries", "topic_trends"} {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Warn("[Store] All collected data cleared")
	return nil
}
