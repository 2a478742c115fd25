package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoralesv/pulso/internal/models"
)

// Fixed clock: today is 2025-03-10, so the summary job targets 2025-03-09.
var (
	testNow   = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	today     = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
)

type fakeStore struct {
	summaries map[string]models.DailySummary
	items     []models.AnalyzedItem
	trends    []models.TopicTrend

	summarySaves int
}

func newFakeStore() *fakeStore {
	return &fakeStore{summaries: make(map[string]models.DailySummary)}
}

func (s *fakeStore) HasDailySummary(_ context.Context, day time.Time) (bool, error) {
	_, ok := s.summaries[day.Format("2006-01-02")]
	return ok, nil
}

func (s *fakeStore) ItemsBetween(_ context.Context, from, to time.Time) ([]models.AnalyzedItem, error) {
	var out []models.AnalyzedItem
	for _, item := range s.items {
		if !item.CreatedAt.Before(from) && item.CreatedAt.Before(to) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveDailySummary(_ context.Context, summary models.DailySummary) error {
	s.summaries[summary.Date.Format("2006-01-02")] = summary
	s.summarySaves++
	return nil
}

func (s *fakeStore) SaveTopicTrends(_ context.Context, trends []models.TopicTrend) error {
	s.trends = append(s.trends, trends...)
	return nil
}

func item(id string, createdAt time.Time, sentiment string, score float64, topics ...string) models.AnalyzedItem {
	return models.AnalyzedItem{
		ID:             id,
		CreatedAt:      createdAt,
		Sentiment:      sentiment,
		SentimentScore: score,
		Topics:         topics,
	}
}

func TestRunDailySummaryRollsUpYesterday(t *testing.T) {
	store := newFakeStore()
	store.items = []models.AnalyzedItem{
		item("a", yesterday.Add(2*time.Hour), models.SentimentPositive, 0.5, "economía", "dólar"),
		item("b", yesterday.Add(5*time.Hour), models.SentimentPositive, 0.3, "dólar"),
		item("c", yesterday.Add(9*time.Hour), models.SentimentNegative, -0.4, "economía"),
		item("d", yesterday.Add(20*time.Hour), models.SentimentNeutral, 0.0),
		item("e", today.Add(time.Hour), models.SentimentPositive, 0.9, "milei"),
	}

	agg := New(store, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, agg.RunDailySummary(context.Background()))

	summary, ok := store.summaries[yesterday.Format("2006-01-02")]
	require.True(t, ok, "summary for yesterday must exist")

	assert.Equal(t, 4, summary.TotalPosts, "today's items are excluded")
	assert.Equal(t, 2, summary.PositiveCount)
	assert.Equal(t, 1, summary.NegativeCount)
	assert.Equal(t, 1, summary.NeutralCount)
	assert.InDelta(t, 0.5, summary.PositivePct, 1e-9)
	assert.InDelta(t, 0.25, summary.NegativePct, 1e-9)
	assert.InDelta(t, 0.25, summary.NeutralPct, 1e-9)
	assert.InDelta(t, 1.0, summary.PositivePct+summary.NegativePct+summary.NeutralPct, 1e-9)
	assert.InDelta(t, 0.1, summary.AvgScore, 1e-9)

	// economía and dólar both count 2; economía was encountered first.
	require.Len(t, summary.TopTopics, 2)
	assert.Equal(t, models.TopicCount{Topic: "economía", Count: 2}, summary.TopTopics[0])
	assert.Equal(t, models.TopicCount{Topic: "dólar", Count: 2}, summary.TopTopics[1])
}

func TestRunDailySummaryIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.items = []models.AnalyzedItem{
		item("a", yesterday.Add(time.Hour), models.SentimentPositive, 0.5),
	}

	agg := New(store, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, agg.RunDailySummary(context.Background()))
	require.NoError(t, agg.RunDailySummary(context.Background()))

	assert.Equal(t, 1, store.summarySaves, "existing summary must not be rewritten")
}

func TestRunDailySummaryEmptyDayWritesNothing(t *testing.T) {
	store := newFakeStore()
	store.items = []models.AnalyzedItem{
		item("e", today.Add(time.Hour), models.SentimentPositive, 0.9),
	}

	agg := New(store, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, agg.RunDailySummary(context.Background()))

	assert.Equal(t, 0, store.summarySaves)
}

func TestTopTopicsCapsAtLimit(t *testing.T) {
	items := make([]models.AnalyzedItem, 0, 12)
	for _, topic := range []string{
		"economía", "inflación", "dólar", "peso", "milei", "cristina",
		"macri", "massa", "justicia", "congreso", "senado", "caba",
	} {
		items = append(items, item(topic, yesterday, models.SentimentNeutral, 0, topic))
	}

	top := topTopics(items, 10)
	assert.Len(t, top, 10)
}

func TestRunTopicTrendsAppendsPerRun(t *testing.T) {
	store := newFakeStore()
	store.items = []models.AnalyzedItem{
		item("a", today.Add(time.Hour), models.SentimentPositive, 0.6, "milei", "economía"),
		item("b", today.Add(2*time.Hour), models.SentimentNegative, -0.8, "milei"),
		item("old", yesterday.Add(time.Hour), models.SentimentPositive, 0.2, "milei"),
	}

	agg := New(store, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, agg.RunTopicTrends(context.Background()))

	require.Len(t, store.trends, 2)
	milei := store.trends[0]
	assert.Equal(t, "milei", milei.Name)
	assert.Equal(t, today, milei.Date)
	assert.Equal(t, 2, milei.MentionCount, "yesterday's mention is excluded")
	assert.InDelta(t, -0.1, milei.AvgSentiment, 1e-9)
	assert.Equal(t, 1, milei.PositiveMentions)
	assert.Equal(t, 1, milei.NegativeMentions)
	assert.Equal(t, 0, milei.NeutralMentions)

	economia := store.trends[1]
	assert.Equal(t, "economía", economia.Name)
	assert.Equal(t, 1, economia.MentionCount)

	// Readers sum rows per (name, date), so a second run appends fresh rows.
	require.NoError(t, agg.RunTopicTrends(context.Background()))
	assert.Len(t, store.trends, 4)
}

func TestRunTopicTrendsNoItemsWritesNothing(t *testing.T) {
	store := newFakeStore()

	agg := New(store, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, agg.RunTopicTrends(context.Background()))
	assert.Empty(t, store.trends)
}
