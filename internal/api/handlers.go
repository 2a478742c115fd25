package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jmoralesv/pulso/internal/models"
	"github.com/jmoralesv/pulso/internal/topics"
)

type sentimentPoint struct {
	Date       string  `json:"date"`
	Positive   float64 `json:"positive"`
	Negative   float64 `json:"negative"`
	Neutral    float64 `json:"neutral"`
	TotalPosts int     `json:"total_posts"`
}

type topicPoint struct {
	Topic        string  `json:"topic"`
	Mentions     int     `json:"mentions"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

type postPoint struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	CreatedAt string   `json:"created_at"`
	Subreddit string   `json:"subreddit"`
	Topics    []string `json:"topics"`
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":     "Argentine Political Sentiment API",
		"description": "Sentiment analysis of Argentine political discussions from Reddit",
		"endpoints": map[string]string{
			"GET /sentiment/trend":   "Sentiment trends over time",
			"GET /sentiment/current": "Current sentiment snapshot",
			"GET /topics/trending":   "Trending political topics",
			"GET /posts/recent":      "Recent analyzed posts",
			"POST /analyze/text":     "Analyze any text",
			"GET /stats":             "Overall statistics",
			"POST /collect/refresh":  "Trigger manual collection",
			"GET /collect/status":    "Collection run status",
		},
	})
}

func (s *Server) handleHealthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSentimentTrend(c echo.Context) error {
	days := queryInt(c, "days", 7)
	ctx := c.Request().Context()

	end := s.clock.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)

	summaries, err := s.store.DailySummariesBetween(ctx, start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(summaries) == 0 {
		return s.trendFromItems(c, start, end, days)
	}

	points := make([]sentimentPoint, 0, len(summaries))
	for _, summary := range summaries {
		points = append(points, sentimentPoint{
			Date:       summary.Date.Format("2006-01-02"),
			Positive:   summary.PositivePct,
			Negative:   summary.NegativePct,
			Neutral:    summary.NeutralPct,
			TotalPosts: summary.TotalPosts,
		})
	}
	return c.JSON(http.StatusOK, points)
}

// trendFromItems derives the trend directly from raw items when no daily
// summaries cover the range, anchoring the window to the newest stored item
// when the requested range is empty. Days with too few items are dropped as
// noise.
func (s *Server) trendFromItems(c echo.Context, start, end time.Time, days int) error {
	ctx := c.Request().Context()

	items, err := s.store.ItemsBetween(ctx, start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(items) == 0 {
		_, newest, err := s.store.ItemSpan(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if newest.IsZero() {
			return c.JSON(http.StatusOK, []sentimentPoint{})
		}

		end = newest.Truncate(24 * time.Hour).Add(24 * time.Hour)
		start = end.AddDate(0, 0, -days)
		items, err = s.store.ItemsBetween(ctx, start, end)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if len(items) == 0 {
			return c.JSON(http.StatusOK, []sentimentPoint{})
		}
	}

	type bucket struct {
		positive, negative, neutral, total int
	}
	byDay := make(map[time.Time]*bucket)
	for _, item := range items {
		day := item.CreatedAt.UTC().Truncate(24 * time.Hour)
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
		}
		switch item.Sentiment {
		case models.SentimentPositive:
			b.positive++
		case models.SentimentNegative:
			b.negative++
		default:
			b.neutral++
		}
		b.total++
	}

	minPerDay := 5
	if days > 30 {
		minPerDay = 10
	}

	var dayKeys []time.Time
	for day, b := range byDay {
		if b.total >= minPerDay {
			dayKeys = append(dayKeys, day)
		}
	}
	sort.Slice(dayKeys, func(i, j int) bool { return dayKeys[i].Before(dayKeys[j]) })

	points := make([]sentimentPoint, 0, len(dayKeys))
	for _, day := range dayKeys {
		b := byDay[day]
		total := float64(b.total)
		points = append(points, sentimentPoint{
			Date:       day.Format("2006-01-02"),
			Positive:   float64(b.positive) / total,
			Negative:   float64(b.negative) / total,
			Neutral:    float64(b.neutral) / total,
			TotalPosts: b.total,
		})
	}
	return c.JSON(http.StatusOK, points)
}

func (s *Server) handleCurrentSentiment(c echo.Context) error {
	ctx := c.Request().Context()
	now := s.clock.Now().UTC()

	items, err := s.store.ItemsBetween(ctx, now.Add(-24*time.Hour), now.Add(time.Minute))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(items) == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"timestamp": now.Format(time.RFC3339),
			"sentiment": map[string]float64{
				"positive": 0,
				"negative": 0,
				"neutral":  0,
			},
			"total_analyzed": 0,
			"message":        "No recent data. Collection in progress...",
		})
	}

	var positive, negative, neutral int
	var scoreSum float64
	lastUpdated := items[0].AnalyzedAt
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
		if item.AnalyzedAt.After(lastUpdated) {
			lastUpdated = item.AnalyzedAt
		}
	}

	total := float64(len(items))
	return c.JSON(http.StatusOK, map[string]any{
		"timestamp": now.Format(time.RFC3339),
		"sentiment": map[string]float64{
			"positive": float64(positive) / total,
			"negative": float64(negative) / total,
			"neutral":  float64(neutral) / total,
		},
		"total_analyzed": len(items),
		"avg_score":      scoreSum / total,
		"last_updated":   lastUpdated.Format(time.RFC3339),
	})
}

func (s *Server) handleTrendingTopics(c echo.Context) error {
	limit := queryInt(c, "limit", 10)
	days := queryInt(c, "days", 7)

	since := s.clock.Now().UTC().AddDate(0, 0, -days)
	trends, err := s.store.TrendingTopics(c.Request().Context(), since, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	points := make([]topicPoint, 0, len(trends))
	for _, trend := range trends {
		points = append(points, topicPoint{
			Topic:        trend.Name,
			Mentions:     trend.MentionCount,
			AvgSentiment: trend.AvgSentiment,
		})
	}
	return c.JSON(http.StatusOK, points)
}

func (s *Server) handleRecentPosts(c echo.Context) error {
	limit := queryInt(c, "limit", 20)

	items, err := s.store.RecentItems(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	points := make([]postPoint, 0, len(items))
	for _, item := range items {
		text := item.Body
		if len([]rune(text)) > 200 {
			text = string([]rune(text)[:200]) + "..."
		}
		itemTopics := item.Topics
		if itemTopics == nil {
			itemTopics = []string{}
		}
		points = append(points, postPoint{
			ID:        item.ID,
			Title:     item.Title,
			Text:      text,
			Sentiment: item.Sentiment,
			Score:     item.SentimentScore,
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
			Subreddit: item.Subreddit,
			Topics:    itemTopics,
		})
	}
	return c.JSON(http.StatusOK, points)
}

func (s *Server) handleAnalyzeText(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	result := s.analyzer.Analyze(req.Text)
	found := topics.Extract(req.Text)
	if found == nil {
		found = []string{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"text":      req.Text,
		"sentiment": result.Label,
		"score":     result.Compound,
		"details": map[string]float64{
			"positive": result.Positive,
			"negative": result.Negative,
			"neutral":  result.Neutral,
		},
		"topics":     found,
		"confidence": result.Confidence,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	totalItems, err := s.store.CountItems(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if totalItems == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"total_posts_analyzed": 0,
			"total_days_tracked":   0,
			"message":              "Data collection in progress. Check back soon!",
		})
	}

	totalDays, err := s.store.CountDailySummaries(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	topTopics, err := s.store.TopTopicsAllTime(ctx, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if topTopics == nil {
		topTopics = []models.TopicCount{}
	}

	divisor := totalDays
	if divisor == 0 {
		divisor = 1
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_posts_analyzed": totalItems,
		"total_days_tracked":   totalDays,
		"avg_daily_posts":      float64(totalItems) / float64(divisor),
		"top_topics":           topTopics,
	})
}

func (s *Server) handleCollectRefresh(c echo.Context) error {
	inserted, err := s.orchestrator.CollectOnce(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("error during collection: %v", err))
	}

	if inserted == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"status":          "warning",
			"message":         "No new political posts found",
			"posts_collected": 0,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "success",
		"message":         fmt.Sprintf("Collected and stored %d new items", inserted),
		"posts_collected": inserted,
	})
}

func (s *Server) handleCollectStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orchestrator.Status())
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
