package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoralesv/pulso/internal/models"
)

const insertItemSQL = `
	INSERT INTO items (
		id, subreddit, title, body, author, score, num_comments,
		created_at, permalink, sentiment, sentiment_score, topics, kind, analyzed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	ON CONFLICT (id) DO NOTHING`

// dedupeBatch drops intra-batch duplicates before the store is touched,
// keeping the first occurrence of each id. The same post can arrive via two
// fetch strategies in one cycle.
func dedupeBatch(items []models.AnalyzedItem) ([]models.AnalyzedItem, int) {
	seen := make(map[string]struct{}, len(items))
	unique := items[:0:0]

	dupes := 0
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			dupes++
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	return unique, dupes
}

// SaveItems persists a batch, skipping ids that already exist. The whole
// batch is one transaction: on failure nothing is written and the error is
// reported for retry. Returns how many rows were inserted and how many were
// skipped as duplicates.
func (s *Store) SaveItems(ctx context.Context, items []models.AnalyzedItem) (inserted, skipped int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	unique, dupes := dedupeBatch(items)
	skipped = dupes

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, &PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	for _, item := range unique {
		topicsJSON, err := json.Marshal(item.Topics)
		if err != nil {
			return 0, 0, &PersistenceError{Op: "encode topics", Err: err}
		}

		tag, err := tx.Exec(ctx, insertItemSQL,
			item.ID, item.Subreddit, item.Title, item.Body, item.Author,
			item.Score, item.NumComments, item.CreatedAt, item.Permalink,
			item.Sentiment, item.SentimentScore, topicsJSON, item.Kind)
		if err != nil {
			return 0, 0, &PersistenceError{Op: "insert item", Err: err}
		}

		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, &PersistenceError{Op: "commit", Err: err}
	}

	slog.Info("[Store] Batch persisted",
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped))
	return inserted, skipped, nil
}

const selectItemSQL = `
	SELECT id, subreddit, title, body, author, score, num_comments,
	       created_at, permalink, sentiment, sentiment_score, topics, kind, analyzed_at
	FROM items`

func (s *Store) scanItems(ctx context.Context, query string, args ...any) ([]models.AnalyzedItem, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.AnalyzedItem
	for rows.Next() {
		var item models.AnalyzedItem
		var topicsJSON []byte
		err := rows.Scan(&item.ID, &item.Subreddit, &item.Title, &item.Body,
			&item.Author, &item.Score, &item.NumComments, &item.CreatedAt,
			&item.Permalink, &item.Sentiment, &item.SentimentScore,
			&topicsJSON, &item.Kind, &item.AnalyzedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		if err := json.Unmarshal(topicsJSON, &item.Topics); err != nil {
			return nil, fmt.Errorf("failed to decode topics for %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemsBetween returns items with created_at in [from, to), oldest first.
func (s *Store) ItemsBetween(ctx context.Context, from, to time.Time) ([]models.AnalyzedItem, error) {
	return s.scanItems(ctx,
		selectItemSQL+` WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`,
		from, to)
}

// RecentItems returns the newest items, newest first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]models.AnalyzedItem, error) {
	return s.scanItems(ctx, selectItemSQL+` ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *Store) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// ItemSpan returns the oldest and newest created_at in the store. Zero times
// mean the store is empty.
func (s *Store) ItemSpan(ctx context.Context) (oldest, newest time.Time, err error) {
	var minTime, maxTime *time.Time
	err = s.pool.QueryRow(ctx, `SELECT MIN(created_at), MAX(created_at) FROM items`).
		Scan(&minTime, &maxTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to query item span: %w", err)
	}
	if minTime == nil || maxTime == nil {
		return time.Time{}, time.Time{}, nil
	}
	return *minTime, *maxTime, nil
}
