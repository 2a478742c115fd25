package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoralesv/pulso/internal/models"
)

// HasDailySummary reports whether a summary already exists for the given UTC
// day. The aggregator uses this as its idempotence guard.
func (s *Store) HasDailySummary(ctx context.Context, day time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_summaries WHERE date = $1)`, day).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check daily summary: %w", err)
	}
	return exists, nil
}

func (s *Store) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	topTopicsJSON, err := json.Marshal(summary.TopTopics)
	if err != nil {
		return &PersistenceError{Op: "encode top topics", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO daily_summaries (
			date, total_posts, positive_count, negative_count, neutral_count,
			positive_pct, negative_pct, neutral_pct, avg_sentiment_score, top_topics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (date) DO NOTHING`,
		summary.Date, summary.TotalPosts,
		summary.PositiveCount, summary.NegativeCount, summary.NeutralCount,
		summary.PositivePct, summary.NegativePct, summary.NeutralPct,
		summary.AvgScore, topTopicsJSON)
	if err != nil {
		return &PersistenceError{Op: "insert daily summary", Err: err}
	}
	return nil
}

// DailySummariesBetween returns summaries with date in [from, to), oldest
// first.
func (s *Store) DailySummariesBetween(ctx context.Context, from, to time.Time) ([]models.DailySummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, total_posts, positive_count, negative_count, neutral_count,
		       positive_pct, negative_pct, neutral_pct, avg_sentiment_score, top_topics
		FROM daily_summaries
		WHERE date >= $1 AND date < $2
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySummary
	for rows.Next() {
		var summary models.DailySummary
		var topTopicsJSON []byte
		err := rows.Scan(&summary.Date, &summary.TotalPosts,
			&summary.PositiveCount, &summary.NegativeCount, &summary.NeutralCount,
			&summary.PositivePct, &summary.NegativePct, &summary.NeutralPct,
			&summary.AvgScore, &topTopicsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		if err := json.Unmarshal(topTopicsJSON, &summary.TopTopics); err != nil {
			return nil, fmt.Errorf("failed to decode top topics: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) CountDailySummaries(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_summaries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count daily summaries: %w", err)
	}
	return count, nil
}

// SaveTopicTrends appends one row per trend in a single batch insert. Rows
// are never updated; readers sum rows per (name, date).
func (s *Store) SaveTopicTrends(ctx context.Context, trends []models.TopicTrend) error {
	if len(trends) == 0 {
		return nil
	}

	query := `INSERT INTO topic_trends
		(name, date, mention_count, avg_sentiment, positive_mentions, negative_mentions, neutral_mentions)
		VALUES `

	values := make([]any, 0, len(trends)*7)
	placeholders := make([]string, 0, len(trends))
	for i, trend := range trends {
		offset := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			offset+1, offset+2, offset+3, offset+4, offset+5, offset+6, offset+7))
		values = append(values, trend.Name, trend.Date, trend.MentionCount,
			trend.AvgSentiment, trend.PositiveMentions, trend.NegativeMentions,
			trend.NeutralMentions)
	}
	query += strings.Join(placeholders, ", ")

	if _, err := s.pool.Exec(ctx, query, values...); err != nil {
		return &PersistenceError{Op: "insert topic trends", Err: err}
	}
	return nil
}

// TrendingTopics sums trend rows since the given time and returns the most
// mentioned topics with their mean sentiment.
func (s *Store) TrendingTopics(ctx context.Context, since time.Time, limit int) ([]models.TopicTrend, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, SUM(mention_count) AS total_mentions, AVG(avg_sentiment) AS avg_sent
		FROM topic_trends
		WHERE date >= $1
		GROUP BY name
		ORDER BY total_mentions DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending topics: %w", err)
	}
	defer rows.Close()

	var trends []models.TopicTrend
	for rows.Next() {
		var trend models.TopicTrend
		if err := rows.Scan(&trend.Name, &trend.MentionCount, &trend.AvgSentiment); err != nil {
			return nil, fmt.Errorf("failed to scan trending topic: %w", err)
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// TopTopicsAllTime returns the most mentioned topics over the whole store.
func (s *Store) TopTopicsAllTime(ctx context.Context, limit int) ([]models.TopicCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, SUM(mention_count) AS total
		FROM topic_trends
		GROUP BY name
		ORDER BY total DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top topics: %w", err)
	}
	defer rows.Close()

	var topics []models.TopicCount
	for rows.Next() {
		var tc models.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top topic: %w", err)
		}
		topics = append(topics, tc)
	}
	return topics, rows.Err()
}
