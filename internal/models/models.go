package models

import "time"

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

const (
	KindPost    = "post"
	KindComment = "comment"
)

// AnalyzedItem is a post or comment that passed the relevance gate and was
// scored. Items are written once and never mutated; comments carry a composite
// "{postID}_{commentID}" id so they can never collide with post ids.
type AnalyzedItem struct {
	ID             string    `json:"id"`
	Subreddit      string    `json:"subreddit"`
	Title          string    `json:"title"`
	Body           string    `json:"text"`
	Author         string    `json:"author"`
	Score          int       `json:"score"`
	NumComments    int       `json:"num_comments"`
	CreatedAt      time.Time `json:"created_at"`
	Permalink      string    `json:"url"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Topics         []string  `json:"topics"`
	Kind           string    `json:"kind"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// DailySummary is the rollup for one closed UTC day. There is at most one row
// per day.
type DailySummary struct {
	Date          time.Time    `json:"date"`
	TotalPosts    int          `json:"total_posts"`
	PositiveCount int          `json:"positive_count"`
	NegativeCount int          `json:"negative_count"`
	NeutralCount  int          `json:"neutral_count"`
	PositivePct   float64      `json:"positive_pct"`
	NegativePct   float64      `json:"negative_pct"`
	NeutralPct    float64      `json:"neutral_pct"`
	AvgScore      float64      `json:"avg_sentiment_score"`
	TopTopics     []TopicCount `json:"top_topics"`
}

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TopicTrend is one accumulation of a topic's mentions for a day. The trend
// job appends a fresh row per run, so readers must sum rows per (name, date).
type TopicTrend struct {
	Name             string    `json:"name"`
	Date             time.Time `json:"date"`
	MentionCount     int       `json:"mention_count"`
	AvgSentiment     float64   `json:"avg_sentiment"`
	PositiveMentions int       `json:"positive_mentions"`
	NegativeMentions int       `json:"negative_mentions"`
	NeutralMentions  int       `json:"neutral_mentions"`
}
