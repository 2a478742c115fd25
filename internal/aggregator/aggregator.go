// Package aggregator folds stored items into daily sentiment summaries and
// per-day topic trend rows. Both jobs are idempotent and independently
// schedulable.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmoralesv/pulso/internal/models"
)

const topTopicsPerDay = 10

// Store is the slice of the persistent store the aggregator needs.
type Store interface {
	HasDailySummary(ctx context.Context, day time.Time) (bool, error)
	ItemsBetween(ctx context.Context, from, to time.Time) ([]models.AnalyzedItem, error)
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
	SaveTopicTrends(ctx context.Context, trends []models.TopicTrend) error
}

type Aggregator struct {
	store Store
	clock clockwork.Clock
}

func New(store Store, clock clockwork.Clock) *Aggregator {
	return &Aggregator{store: store, clock: clock}
}

// RunDailySummary writes the rollup for yesterday (UTC). It is a no-op when
// the summary already exists or when yesterday has no items; the existence
// check, not a lock, is the idempotence guard.
func (a *Aggregator) RunDailySummary(ctx context.Context) error {
	today := a.clock.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	exists, err := a.store.HasDailySummary(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("daily summary: %w", err)
	}
	if exists {
		slog.Info("[Aggregator] Daily summary already exists",
			slog.Time("date", yesterday))
		return nil
	}

	items, err := a.store.ItemsBetween(ctx, yesterday, today)
	if err != nil {
		return fmt.Errorf("daily summary: %w", err)
	}
	if len(items) == 0 {
		slog.Warn("[Aggregator] No items to summarize",
			slog.Time("date", yesterday))
		return nil
	}

	summary := buildDailySummary(yesterday, items)
	if err := a.store.SaveDailySummary(ctx, summary); err != nil {
		return fmt.Errorf("daily summary: %w", err)
	}

	slog.Info("[Aggregator] Generated daily summary",
		slog.Time("date", yesterday),
		slog.Int("total", summary.TotalPosts))
	return nil
}

func buildDailySummary(day time.Time, items []models.AnalyzedItem) models.DailySummary {
	total := len(items)

	var positive, negative, neutral int
	var scoreSum float64
	for _, item := range items {
		switch item.Sentiment {
		case models.SentimentPositive:
			positive++
		case models.SentimentNegative:
			negative++
		default:
			neutral++
		}
		scoreSum += item.SentimentScore
	}

	return models.DailySummary{
		Date:          day,
		TotalPosts:    total,
		PositiveCount: positive,
		NegativeCount: negative,
		NeutralCount:  neutral,
		PositivePct:   float64(positive) / float64(total),
		NegativePct:   float64(negative) / float64(total),
		NeutralPct:    float64(neutral) / float64(total),
		AvgScore:      scoreSum / float64(total),
		TopTopics:     topTopics(items, topTopicsPerDay),
	}
}

// topTopics counts topic mentions across the items and returns the most
// frequent, ties broken by first-encountered order.
func topTopics(items []models.AnalyzedItem, limit int) []models.TopicCount {
	counts := make(map[string]int)
	var order []string

	for _, item := range items {
		for _, topic := range item.Topics {
			if _, ok := counts[topic]; !ok {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}

	top := make([]models.TopicCount, 0, len(order))
	for _, topic := range order {
		top = append(top, models.TopicCount{Topic: topic, Count: counts[topic]})
	}
	return top
}

// RunTopicTrends accumulates today's per-topic mention and sentiment stats
// and appends one trend row per topic. Running it again later the same day
// appends fresh rows; readers sum rows per (name, date).
func (a *Aggregator) RunTopicTrends(ctx context.Context) error {
	today := a.clock.Now().UTC().Truncate(24 * time.Hour)

	items, err := a.store.ItemsBetween(ctx, today, today.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("topic trends: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	trends := buildTopicTrends(today, items)
	if err := a.store.SaveTopicTrends(ctx, trends); err != nil {
		return fmt.Errorf("topic trends: %w", err)
	}

	slog.Info("[Aggregator] Updated topic trends",
		slog.Time("date", today),
		slog.Int("topics", len(trends)))
	return nil
}

func buildTopicTrends(day time.Time, items []models.AnalyzedItem) []models.TopicTrend {
	type accumulator struct {
		count    int
		scoreSum float64
		positive int
		negative int
		neutral  int
	}

	byTopic := make(map[string]*accumulator)
	var order []string

	for _, item := range items {
		for _, topic := range item.Topics {
			acc, ok := byTopic[topic]
			if !ok {
				acc = &accumulator{}
				byTopic[topic] = acc
				order = append(order, topic)
			}
			acc.count++
			acc.scoreSum += item.SentimentScore
			switch item.Sentiment {
			case models.SentimentPositive:
				acc.positive++
			case models.SentimentNegative:
				acc.negative++
			default:
				acc.neutral++
			}
		}
	}

	trends := make([]models.TopicTrend, 0, len(order))
	for _, topic := range order {
		acc := byTopic[topic]
		trends = append(trends, models.TopicTrend{
			Name:             topic,
			Date:             day,
			MentionCount:     acc.count,
			AvgSentiment:     acc.scoreSum / float64(acc.count),
			PositiveMentions: acc.positive,
			NegativeMentions: acc.negative,
			NeutralMentions:  acc.neutral,
		})
	}
	return trends
}
